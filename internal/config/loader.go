// internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadGlobal loads the global configuration from a YAML file
func LoadGlobal(path string) (*Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Global
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyGlobalDefaults(&cfg)
	return &cfg, nil
}

// LoadRemote loads a remote configuration from a YAML file
func LoadRemote(path string) (*Remote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading remote file: %w", err)
	}

	var remote Remote
	if err := yaml.Unmarshal(data, &remote); err != nil {
		return nil, fmt.Errorf("parsing remote file: %w", err)
	}

	return &remote, nil
}

// LoadRemotesDir loads all remote definitions from a directory
func LoadRemotesDir(dir string) ([]*Remote, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading remotes directory: %w", err)
	}

	var remotes []*Remote
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		remote, err := LoadRemote(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading remote %s: %w", entry.Name(), err)
		}
		remotes = append(remotes, remote)
	}

	return remotes, nil
}

func applyGlobalDefaults(cfg *Global) {
	if cfg.Daemon.LogLevel == "" {
		cfg.Daemon.LogLevel = "info"
	}
	if cfg.Daemon.ListenPort == 0 {
		cfg.Daemon.ListenPort = 9811
	}
	if cfg.Daemon.ListenAddress == "" {
		cfg.Daemon.ListenAddress = "127.0.0.1"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Sync.MaxConcurrent <= 0 {
		cfg.Sync.MaxConcurrent = 2
	}
	if cfg.Sync.HistoryRetention <= 0 {
		cfg.Sync.HistoryRetention = 90
	}
	if cfg.RcloneDefaults.Binary == "" {
		cfg.RcloneDefaults.Binary = "rclone"
	}
}

// MergeRclone fills unset fields of a remote's rclone config from the global
// defaults. Extras and excludes are inherited wholesale when the remote
// defines none of its own.
func MergeRclone(defaults, override RcloneConfig) RcloneConfig {
	result := override
	if result.Binary == "" {
		result.Binary = defaults.Binary
	}
	if len(result.Extras) == 0 {
		result.Extras = defaults.Extras
	}
	if len(result.Excludes) == 0 {
		result.Excludes = defaults.Excludes
	}
	if defaults.DryRun {
		result.DryRun = true
	}
	return result
}
