// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

var validTriggerTypes = map[string]bool{
	"scheduled":  true,
	"filesystem": true,
	"webhook":    true,
	"lifecycle":  true,
	"manual":     true,
}

// ValidateRemote checks a remote definition and applies retry defaults.
// Malformed sleep-trigger rules are a load-time error, not something deferred
// to evaluation.
func ValidateRemote(remote *Remote) error {
	if remote.Name == "" {
		return fmt.Errorf("remote name is required")
	}
	if remote.Source.Path == "" {
		return fmt.Errorf("remote %s: source path is required", remote.Name)
	}
	if remote.Dest.Path == "" {
		return fmt.Errorf("remote %s: dest path is required", remote.Name)
	}

	if remote.Trigger.Type == "" {
		return fmt.Errorf("remote %s: trigger type is required", remote.Name)
	}
	if !validTriggerTypes[remote.Trigger.Type] {
		return fmt.Errorf("remote %s: invalid trigger type: %s", remote.Name, remote.Trigger.Type)
	}

	switch remote.Trigger.Type {
	case "scheduled":
		if remote.Trigger.CronExpression == "" && remote.Trigger.RunEvery == "" && remote.Trigger.RunAt == "" {
			return fmt.Errorf("remote %s: scheduled trigger requires cron_expression, run_every, or run_at", remote.Name)
		}
	case "webhook":
		if remote.Trigger.ListenPath == "" {
			return fmt.Errorf("remote %s: webhook trigger requires listen_path", remote.Name)
		}
		if !strings.HasPrefix(remote.Trigger.ListenPath, "/") {
			return fmt.Errorf("remote %s: webhook listen_path must start with /", remote.Name)
		}
	case "lifecycle":
		if len(remote.Trigger.OnEvents) == 0 {
			return fmt.Errorf("remote %s: lifecycle trigger requires on_events", remote.Name)
		}
	}

	if err := validateSleepTriggers(remote.Name, "source", remote.Source.SleepTriggers); err != nil {
		return err
	}
	if err := validateSleepTriggers(remote.Name, "dest", remote.Dest.SleepTriggers); err != nil {
		return err
	}

	if remote.OnFailure.Retry && remote.OnFailure.RetryAttempts <= 0 {
		remote.OnFailure.RetryAttempts = 3
	}

	return nil
}

func validateSleepTriggers(remoteName, side string, triggers map[string]TriggerRule) error {
	for phrase, rule := range triggers {
		if phrase == "" {
			return fmt.Errorf("remote %s: %s sleep trigger has an empty phrase", remoteName, side)
		}
		if rule.Count <= 0 {
			return fmt.Errorf("remote %s: %s sleep trigger %q: count must be positive, got %d",
				remoteName, side, phrase, rule.Count)
		}
		if rule.TimeoutSeconds <= 0 {
			return fmt.Errorf("remote %s: %s sleep trigger %q: timeout must be positive, got %d",
				remoteName, side, phrase, rule.TimeoutSeconds)
		}
		if rule.SleepSeconds < 0 {
			return fmt.Errorf("remote %s: %s sleep trigger %q: sleep must not be negative, got %d",
				remoteName, side, phrase, rule.SleepSeconds)
		}
	}
	return nil
}

// ValidateRemoteWithGlobal runs cross-remote checks that only warn: shared
// source folders and colliding webhook paths are usually mistakes but the
// daemon can still run.
func ValidateRemoteWithGlobal(remote *Remote, cfg *Global, all map[string]*Remote) []string {
	var warnings []string

	for name, other := range all {
		if name == remote.Name {
			continue
		}
		if other.Source.Path != "" && other.Source.Path == remote.Source.Path {
			warnings = append(warnings, fmt.Sprintf(
				"remote %s shares source path %s with remote %s; concurrent moves will race",
				remote.Name, remote.Source.Path, name))
		}
		if remote.Trigger.Type == "webhook" && other.Trigger.Type == "webhook" &&
			remote.Trigger.ListenPath == other.Trigger.ListenPath {
			warnings = append(warnings, fmt.Sprintf(
				"remote %s webhook path %s collides with remote %s",
				remote.Name, remote.Trigger.ListenPath, name))
		}
	}

	return warnings
}
