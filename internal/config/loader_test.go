// internal/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGlobal(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
daemon:
  log_level: debug
  listen_port: 9811
  listen_address: 127.0.0.1
logging:
  format: json
  debug: false
sync:
  max_concurrent: 4
rclone_defaults:
  binary: /usr/local/bin/rclone
  excludes:
    - "**partial~"
sleep_triggers:
  "userRateLimitExceeded":
    count: 5
    timeout: 3600
    sleep: 90000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal(configPath)
	if err != nil {
		t.Fatalf("LoadGlobal failed: %v", err)
	}

	if cfg.Daemon.LogLevel != "debug" {
		t.Errorf("expected log_level debug, got %s", cfg.Daemon.LogLevel)
	}
	if cfg.Daemon.ListenPort != 9811 {
		t.Errorf("expected port 9811, got %d", cfg.Daemon.ListenPort)
	}
	if cfg.Sync.MaxConcurrent != 4 {
		t.Errorf("expected max_concurrent 4, got %d", cfg.Sync.MaxConcurrent)
	}
	if cfg.RcloneDefaults.Binary != "/usr/local/bin/rclone" {
		t.Errorf("expected rclone binary path, got %s", cfg.RcloneDefaults.Binary)
	}
	rule, ok := cfg.SleepTriggers["userRateLimitExceeded"]
	if !ok {
		t.Fatal("expected global sleep trigger to load")
	}
	if rule.Count != 5 || rule.TimeoutSeconds != 3600 || rule.SleepSeconds != 90000 {
		t.Errorf("unexpected trigger rule: %+v", rule)
	}
}

func TestLoadGlobal_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal(configPath)
	if err != nil {
		t.Fatalf("LoadGlobal failed: %v", err)
	}

	if cfg.Daemon.LogLevel != "info" {
		t.Errorf("expected default log_level info, got %s", cfg.Daemon.LogLevel)
	}
	if cfg.Daemon.ListenAddress != "127.0.0.1" || cfg.Daemon.ListenPort != 9811 {
		t.Errorf("unexpected default listen address: %s:%d", cfg.Daemon.ListenAddress, cfg.Daemon.ListenPort)
	}
	if cfg.RcloneDefaults.Binary != "rclone" {
		t.Errorf("expected default binary rclone, got %s", cfg.RcloneDefaults.Binary)
	}
	if cfg.Sync.MaxConcurrent != 2 {
		t.Errorf("expected default max_concurrent 2, got %d", cfg.Sync.MaxConcurrent)
	}
	if cfg.Sync.HistoryRetention != 90 {
		t.Errorf("expected default retention 90, got %d", cfg.Sync.HistoryRetention)
	}
}

func TestLoadRemote(t *testing.T) {
	dir := t.TempDir()
	remotePath := filepath.Join(dir, "media.yaml")

	content := `
name: media-offload
description: Move finished downloads to cloud storage
enabled: true
source:
  path: /mnt/staging/media
  sleep_triggers:
    "Failed to copy":
      count: 10
      timeout: 7200
      sleep: 3600
dest:
  path: "gdrive:media/{{date}}"
  sleep_triggers:
    "userRateLimitExceeded":
      count: 5
      timeout: 3600
      sleep: 90000
trigger:
  type: scheduled
  run_every: 6h
rclone:
  extras:
    "--transfers": "8"
    "--no-traverse": null
  excludes:
    - "**partial~"
on_failure:
  retry: true
  retry_attempts: 2
  retry_delay_seconds: 60
`
	if err := os.WriteFile(remotePath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	remote, err := LoadRemote(remotePath)
	if err != nil {
		t.Fatalf("LoadRemote failed: %v", err)
	}

	if remote.Name != "media-offload" {
		t.Errorf("expected name media-offload, got %s", remote.Name)
	}
	if !remote.Enabled {
		t.Error("expected remote to be enabled")
	}
	if remote.Source.Path != "/mnt/staging/media" {
		t.Errorf("unexpected source path: %s", remote.Source.Path)
	}
	if remote.Dest.Path != "gdrive:media/{{date}}" {
		t.Errorf("unexpected dest path: %s", remote.Dest.Path)
	}
	if remote.Trigger.Type != "scheduled" || remote.Trigger.RunEvery != "6h" {
		t.Errorf("unexpected trigger: %+v", remote.Trigger)
	}

	if v, ok := remote.Rclone.Extras["--transfers"]; !ok || v == nil || *v != "8" {
		t.Errorf("expected --transfers=8 extra, got %v", remote.Rclone.Extras)
	}
	if v, ok := remote.Rclone.Extras["--no-traverse"]; !ok || v != nil {
		t.Error("expected --no-traverse to be a bare (null-valued) flag")
	}

	if rule := remote.Dest.SleepTriggers["userRateLimitExceeded"]; rule.Count != 5 {
		t.Errorf("unexpected dest sleep trigger: %+v", rule)
	}
}

func TestLoadRemotesDir_SkipsNonYAML(t *testing.T) {
	dir := t.TempDir()

	remote := `
name: a
enabled: true
source: {path: /data/a}
dest: {path: "s3:bucket/a"}
trigger: {type: manual}
`
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(remote), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	remotes, err := LoadRemotesDir(dir)
	if err != nil {
		t.Fatalf("LoadRemotesDir failed: %v", err)
	}
	if len(remotes) != 1 {
		t.Fatalf("expected 1 remote, got %d", len(remotes))
	}
}

func TestMergeRclone(t *testing.T) {
	bw := "10M"
	defaults := RcloneConfig{
		Binary:   "/opt/rclone",
		Extras:   map[string]*string{"--bwlimit": &bw},
		Excludes: []string{"**partial~"},
	}

	merged := MergeRclone(defaults, RcloneConfig{})
	if merged.Binary != "/opt/rclone" {
		t.Errorf("expected inherited binary, got %s", merged.Binary)
	}
	if len(merged.Extras) != 1 || len(merged.Excludes) != 1 {
		t.Error("expected extras and excludes inherited from defaults")
	}

	tr := "4"
	override := RcloneConfig{Extras: map[string]*string{"--transfers": &tr}}
	merged = MergeRclone(defaults, override)
	if _, ok := merged.Extras["--bwlimit"]; ok {
		t.Error("remote-level extras should replace defaults, not merge with them")
	}

	merged = MergeRclone(RcloneConfig{DryRun: true}, RcloneConfig{})
	if !merged.DryRun {
		t.Error("global dry_run should force dry_run on")
	}
}
