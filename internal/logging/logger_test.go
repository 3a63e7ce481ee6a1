// internal/logging/logger_test.go
package logging

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("json", "info", &buf)

	logger.Info("sync started", "remote", "media-offload")

	out := buf.String()
	if !strings.Contains(out, `"msg":"sync started"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"remote":"media-offload"`) {
		t.Errorf("expected remote attribute, got %q", out)
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("text", "info", &buf)

	logger.Info("sync started")
	if strings.Contains(buf.String(), "{") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("text", "warn", &buf)

	logger.Info("suppressed")
	logger.Warn("tracked trigger occurrence")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info should be suppressed at warn level")
	}
	if !strings.Contains(out, "tracked trigger occurrence") {
		t.Error("warn should be emitted at warn level")
	}
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("text", "verbose", &buf)

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug should be suppressed at default info level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info should be emitted at default info level")
	}
}

func TestWithRemote(t *testing.T) {
	var buf bytes.Buffer
	logger := WithRemote(NewLogger("json", "info", &buf), "media-offload")

	logger.Info("cooldown imposed")
	if !strings.Contains(buf.String(), `"remote":"media-offload"`) {
		t.Errorf("expected remote attribute, got %q", buf.String())
	}
}

func TestRotatingWriter_Creates(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "upliftd.log")

	w, err := NewRotatingWriter(logPath, 1024*1024)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestRotatingWriter_Writes(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "upliftd.log")

	w, err := NewRotatingWriter(logPath, 1024*1024)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer w.Close()

	msg := "transfer aborted by trigger\n"
	n, err := w.Write([]byte(msg))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(msg) {
		t.Errorf("Write() = %d, want %d", n, len(msg))
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != msg {
		t.Errorf("log content = %q, want %q", string(content), msg)
	}
}

func TestRotatingWriter_RotatesAtThreshold(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "upliftd.log")

	w, err := NewRotatingWriter(logPath, 100)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer w.Close()

	line := strings.Repeat("x", 50) + "\n"
	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := os.Stat(logPath + ".1.gz"); os.IsNotExist(err) {
		if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
			t.Error("rotated log file (.1 or .1.gz) was not created")
		}
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("current log file should still exist after rotation")
	}
}

func TestRotatingWriter_CompressedFilesAreValidGzip(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "upliftd.log")

	w, err := NewRotatingWriter(logPath, 50)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer w.Close()

	line := strings.Repeat("y", 60) + "\n"
	for i := 0; i < 10; i++ {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	gzFiles, _ := filepath.Glob(filepath.Join(dir, "*.gz"))
	if len(gzFiles) == 0 {
		t.Skip("compression fell back to plain rename")
	}

	f, err := os.Open(gzFiles[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("rotated file is not valid gzip: %v", err)
	}
	defer gz.Close()

	if _, err := io.ReadAll(gz); err != nil {
		t.Errorf("reading rotated gzip content: %v", err)
	}
}
