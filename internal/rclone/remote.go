// internal/rclone/remote.go
package rclone

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/upliftd/uplift/internal/config"
	"github.com/upliftd/uplift/internal/executor"
)

// runFunc executes the rclone binary and returns its combined output.
// Injectable so tests never spawn a real process.
type runFunc func(ctx context.Context, binary string, args []string) (string, error)

// Remote wraps delete operations against one rclone destination. rclone exits
// zero for some partial failures, so the captured output is checked for its
// failure markers as well.
type Remote struct {
	Name   string
	binary string
	dryRun bool
	logger *slog.Logger
	run    runFunc
}

// NewRemote creates a Remote using the process executor.
func NewRemote(name string, cfg config.RcloneConfig, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		Name:   name,
		binary: cfg.Binary,
		dryRun: cfg.DryRun,
		logger: logger,
		run: func(ctx context.Context, binary string, args []string) (string, error) {
			result, err := executor.Run(ctx, binary, args, nil)
			if err != nil {
				return "", err
			}
			if result.State != executor.StateSuccess {
				return result.Output, fmt.Errorf("rclone exited with state %s: %s", result.State, result.Error)
			}
			return result.Output, nil
		},
	}
}

// DeleteFile deletes a single file from the remote.
func (r *Remote) DeleteFile(ctx context.Context, path string) error {
	args := DeleteFileArgs(path, r.dryRun)
	r.logger.Debug("deleting file from remote", "remote", r.Name, "path", path, "args", args)

	out, err := r.run(ctx, r.binary, args)
	if err != nil {
		return fmt.Errorf("deleting file %s from remote %s: %w", path, r.Name, err)
	}
	if strings.Contains(out, "Failed to delete") {
		return fmt.Errorf("deleting file %s from remote %s: rclone reported failure", path, r.Name)
	}
	return nil
}

// DeleteFolder removes a directory from the remote.
func (r *Remote) DeleteFolder(ctx context.Context, path string) error {
	args := DeleteDirArgs(path, r.dryRun)
	r.logger.Debug("deleting folder from remote", "remote", r.Name, "path", path, "args", args)

	out, err := r.run(ctx, r.binary, args)
	if err != nil {
		return fmt.Errorf("deleting folder %s from remote %s: %w", path, r.Name, err)
	}
	if strings.Contains(out, "Failed to rmdir") {
		return fmt.Errorf("deleting folder %s from remote %s: rclone reported failure", path, r.Name)
	}
	return nil
}
