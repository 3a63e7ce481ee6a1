// internal/rclone/command.go
package rclone

import (
	"sort"

	"github.com/upliftd/uplift/internal/config"
)

// MoveArgs constructs the argument vector for an rclone move. Extras with a
// nil value become bare flags; the rest are emitted as flag=value. Arguments
// are passed as an argv, so no shell quoting is involved.
func MoveArgs(src, dst string, cfg config.RcloneConfig) []string {
	args := []string{"move", src, dst}

	// Sorted for a stable command line in logs and tests.
	extras := make([]string, 0, len(cfg.Extras))
	for flag := range cfg.Extras {
		extras = append(extras, flag)
	}
	sort.Strings(extras)
	for _, flag := range extras {
		if v := cfg.Extras[flag]; v != nil {
			args = append(args, flag+"="+*v)
		} else {
			args = append(args, flag)
		}
	}

	for _, pattern := range cfg.Excludes {
		args = append(args, "--exclude="+pattern)
	}

	if cfg.DryRun {
		args = append(args, "--dry-run")
	}

	return args
}

// DeleteFileArgs constructs the argument vector for deleting a single remote file.
func DeleteFileArgs(path string, dryRun bool) []string {
	args := []string{"delete", path}
	if dryRun {
		args = append(args, "--dry-run")
	}
	return args
}

// DeleteDirArgs constructs the argument vector for removing a remote directory.
func DeleteDirArgs(path string, dryRun bool) []string {
	args := []string{"rmdir", path}
	if dryRun {
		args = append(args, "--dry-run")
	}
	return args
}
