// internal/rclone/rclone_test.go
package rclone

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/upliftd/uplift/internal/config"
)

func strptr(s string) *string { return &s }

func TestMoveArgs(t *testing.T) {
	cfg := config.RcloneConfig{
		Extras: map[string]*string{
			"--transfers":   strptr("8"),
			"--bwlimit":     strptr("10M"),
			"--no-traverse": nil,
		},
		Excludes: []string{"**partial~", "*.!qB"},
	}

	args := MoveArgs("/mnt/staging/media", "gdrive:media", cfg)

	want := []string{
		"move", "/mnt/staging/media", "gdrive:media",
		"--bwlimit=10M", "--no-traverse", "--transfers=8",
		"--exclude=**partial~", "--exclude=*.!qB",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("MoveArgs() = %v, want %v", args, want)
	}
}

func TestMoveArgs_DryRun(t *testing.T) {
	args := MoveArgs("/data", "s3:bucket", config.RcloneConfig{DryRun: true})
	if args[len(args)-1] != "--dry-run" {
		t.Errorf("expected trailing --dry-run, got %v", args)
	}
}

func TestDeleteArgs(t *testing.T) {
	args := DeleteFileArgs("gdrive:media/old.mkv", false)
	if !reflect.DeepEqual(args, []string{"delete", "gdrive:media/old.mkv"}) {
		t.Errorf("unexpected delete args: %v", args)
	}

	args = DeleteDirArgs("gdrive:media/old", true)
	if !reflect.DeepEqual(args, []string{"rmdir", "gdrive:media/old", "--dry-run"}) {
		t.Errorf("unexpected rmdir args: %v", args)
	}
}

func testRemote(run runFunc) *Remote {
	return &Remote{
		Name:   "gdrive",
		binary: "rclone",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		run:    run,
	}
}

func TestDeleteFile_Success(t *testing.T) {
	var gotArgs []string
	r := testRemote(func(ctx context.Context, binary string, args []string) (string, error) {
		gotArgs = args
		return "", nil
	})

	if err := r.DeleteFile(context.Background(), "gdrive:media/old.mkv"); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if !reflect.DeepEqual(gotArgs, []string{"delete", "gdrive:media/old.mkv"}) {
		t.Errorf("unexpected args: %v", gotArgs)
	}
}

func TestDeleteFile_FailureMarkerInOutput(t *testing.T) {
	r := testRemote(func(ctx context.Context, binary string, args []string) (string, error) {
		return "2024/01/01 ERROR : old.mkv: Failed to delete: permission denied", nil
	})

	err := r.DeleteFile(context.Background(), "gdrive:media/old.mkv")
	if err == nil {
		t.Fatal("expected error when output reports a delete failure")
	}
	if !strings.Contains(err.Error(), "rclone reported failure") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDeleteFolder_RunError(t *testing.T) {
	r := testRemote(func(ctx context.Context, binary string, args []string) (string, error) {
		return "", errors.New("binary not found")
	})

	if err := r.DeleteFolder(context.Background(), "gdrive:media/old"); err == nil {
		t.Fatal("expected execution error to propagate")
	}
}

func TestDeleteFolder_FailureMarkerInOutput(t *testing.T) {
	r := testRemote(func(ctx context.Context, binary string, args []string) (string, error) {
		return "Failed to rmdir: directory not empty", nil
	})

	if err := r.DeleteFolder(context.Background(), "gdrive:media/old"); err == nil {
		t.Fatal("expected error when output reports an rmdir failure")
	}
}

func TestParseStats(t *testing.T) {
	output := `
2024/01/01 12:00:00 INFO  :
Transferred:   	  1.245 GBytes (4.231 MBytes/s)
Errors:                 1
Checks:                42
Deleted:               12
Transferred:          104 / 104, 100%
Elapsed time:      5m1.2s
`
	stats := ParseStats(output)

	// 1.245 GB in SI bytes
	if stats.TransferredBytes != 1245000000 {
		t.Errorf("TransferredBytes = %d, want 1245000000", stats.TransferredBytes)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.Checks != 42 {
		t.Errorf("Checks = %d, want 42", stats.Checks)
	}
	if stats.Deleted != 12 {
		t.Errorf("Deleted = %d, want 12", stats.Deleted)
	}
}

func TestParseStats_LastBlockWins(t *testing.T) {
	output := `
Transferred:   	  100 MBytes (1 MBytes/s)
Transferred:   	  200 MBytes (1 MBytes/s)
`
	stats := ParseStats(output)
	if stats.TransferredBytes != 200000000 {
		t.Errorf("expected last stat block to win, got %d", stats.TransferredBytes)
	}
}

func TestParseStats_NoStatsBlock(t *testing.T) {
	stats := ParseStats("nothing to transfer\n")
	if stats != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}
