// internal/config/types.go
package config

// Global configuration loaded from config.yaml
type Global struct {
	Daemon         DaemonConfig           `yaml:"daemon"`
	Logging        LoggingConfig          `yaml:"logging"`
	Sync           SyncConfig             `yaml:"sync"`
	RcloneDefaults RcloneConfig           `yaml:"rclone_defaults"`
	SleepTriggers  map[string]TriggerRule `yaml:"sleep_triggers"` // defaults applied under every remote's own triggers
}

type DaemonConfig struct {
	LogLevel      string `yaml:"log_level"`
	ListenPort    int    `yaml:"listen_port"`
	ListenAddress string `yaml:"listen_address"`
}

type LoggingConfig struct {
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug"`
}

type SyncConfig struct {
	MaxConcurrent    int `yaml:"max_concurrent"`
	HistoryRetention int `yaml:"history_retention_days"`
}

// RcloneConfig controls how the rclone command line is built. Extras map flag
// names to values; a null value emits the flag bare (no =value).
type RcloneConfig struct {
	Binary   string             `yaml:"binary"`
	Extras   map[string]*string `yaml:"extras"`
	Excludes []string           `yaml:"excludes"`
	DryRun   bool               `yaml:"dry_run"`
}

// TriggerRule configures abort tracking for one output phrase. Durations are
// given in seconds in the YAML.
type TriggerRule struct {
	Count          int `yaml:"count"`
	TimeoutSeconds int `yaml:"timeout"`
	SleepSeconds   int `yaml:"sleep"`
}

// Remote configuration loaded from individual YAML files in the remotes dir.
// A remote describes one source folder / destination pair plus when to sync it.
type Remote struct {
	Name              string       `yaml:"name"`
	Description       string       `yaml:"description"`
	Enabled           bool         `yaml:"enabled"`
	Source            Endpoint     `yaml:"source"`
	Dest              Endpoint     `yaml:"dest"`
	Trigger           Trigger      `yaml:"trigger"`
	Rclone            RcloneConfig `yaml:"rclone"`
	OnFailure         OnFailure    `yaml:"on_failure"`
	MaxTimeoutSeconds int          `yaml:"max_timeout_seconds"`
	DryRun            bool         `yaml:"dry_run"`
}

// Endpoint is one side of a transfer. Source paths are local folders; dest
// paths are rclone remote specs (may contain {{date}}-style placeholders).
// Each side may carry its own sleep_triggers; on collision the dest side wins.
type Endpoint struct {
	Path          string                 `yaml:"path"`
	SleepTriggers map[string]TriggerRule `yaml:"sleep_triggers"`
}

type Trigger struct {
	Type string `yaml:"type"`
	// Scheduled
	CronExpression string `yaml:"cron_expression"`
	RunEvery       string `yaml:"run_every"`
	RunAt          string `yaml:"run_at"`
	// Filesystem (watches the remote's source path unless watch_paths is set)
	WatchPaths      []string `yaml:"watch_paths"`
	OnEvents        []string `yaml:"on_events"`
	IgnorePatterns  []string `yaml:"ignore_patterns"`
	DebounceSeconds int      `yaml:"debounce_seconds"`
	// Webhook
	ListenPath     string   `yaml:"listen_path"`
	AllowedMethods []string `yaml:"allowed_methods"`
	RequireSecret  bool     `yaml:"require_secret"`
	SecretHeader   string   `yaml:"secret_header"`
	SecretEnvVar   string   `yaml:"secret_env_var"`
	// Lifecycle
	// (uses OnEvents)
}

type OnFailure struct {
	Retry             bool `yaml:"retry"`
	RetryAttempts     int  `yaml:"retry_attempts"`
	RetryDelaySeconds int  `yaml:"retry_delay_seconds"`
}
