// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

func validRemote() Remote {
	return Remote{
		Name:    "media-offload",
		Source:  Endpoint{Path: "/mnt/staging/media"},
		Dest:    Endpoint{Path: "gdrive:media"},
		Trigger: Trigger{Type: "scheduled", RunEvery: "6h"},
	}
}

func TestValidateRemote_Valid(t *testing.T) {
	remote := validRemote()
	if err := ValidateRemote(&remote); err != nil {
		t.Fatalf("expected valid remote, got error: %v", err)
	}
}

func TestValidateRemote_MissingName(t *testing.T) {
	remote := validRemote()
	remote.Name = ""
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for missing name")
	}
	if !strings.Contains(err.Error(), "remote name is required") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_MissingSourcePath(t *testing.T) {
	remote := validRemote()
	remote.Source.Path = ""
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for missing source path")
	}
	if !strings.Contains(err.Error(), "source path") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_MissingDestPath(t *testing.T) {
	remote := validRemote()
	remote.Dest.Path = ""
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for missing dest path")
	}
	if !strings.Contains(err.Error(), "dest path") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_InvalidTriggerType(t *testing.T) {
	remote := validRemote()
	remote.Trigger.Type = "unknown"
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for invalid trigger type")
	}
	if !strings.Contains(err.Error(), "invalid trigger type") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_ScheduledNoExpression(t *testing.T) {
	remote := validRemote()
	remote.Trigger = Trigger{Type: "scheduled"}
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for scheduled trigger without any schedule")
	}
	if !strings.Contains(err.Error(), "cron_expression") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_WebhookBadPath(t *testing.T) {
	remote := validRemote()
	remote.Trigger = Trigger{Type: "webhook", ListenPath: "no-leading-slash"}
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for webhook path without leading slash")
	}
	if !strings.Contains(err.Error(), "must start with") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_LifecycleNoEvents(t *testing.T) {
	remote := validRemote()
	remote.Trigger = Trigger{Type: "lifecycle"}
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for lifecycle trigger without on_events")
	}
	if !strings.Contains(err.Error(), "on_events") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_BadSleepTriggerCount(t *testing.T) {
	remote := validRemote()
	remote.Dest.SleepTriggers = map[string]TriggerRule{
		"quota exceeded": {Count: 0, TimeoutSeconds: 60, SleepSeconds: 300},
	}
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for non-positive trigger count")
	}
	if !strings.Contains(err.Error(), "count must be positive") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_BadSleepTriggerTimeout(t *testing.T) {
	remote := validRemote()
	remote.Source.SleepTriggers = map[string]TriggerRule{
		"quota exceeded": {Count: 3, TimeoutSeconds: -1, SleepSeconds: 300},
	}
	err := ValidateRemote(&remote)
	if err == nil {
		t.Fatal("expected error for non-positive trigger timeout")
	}
	if !strings.Contains(err.Error(), "timeout must be positive") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRemote_RetryDefaultsAttempts(t *testing.T) {
	remote := validRemote()
	remote.OnFailure.Retry = true
	remote.OnFailure.RetryAttempts = 0
	if err := ValidateRemote(&remote); err != nil {
		t.Fatalf("expected valid remote, got error: %v", err)
	}
	if remote.OnFailure.RetryAttempts != 3 {
		t.Errorf("expected retry_attempts defaulted to 3, got %d", remote.OnFailure.RetryAttempts)
	}
}

func TestValidateRemoteWithGlobal_SharedSourceWarns(t *testing.T) {
	a := validRemote()
	b := validRemote()
	b.Name = "other-offload"

	all := map[string]*Remote{a.Name: &a, b.Name: &b}
	warnings := ValidateRemoteWithGlobal(&a, &Global{}, all)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "shares source path") {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}

func TestValidateRemoteWithGlobal_WebhookCollisionWarns(t *testing.T) {
	a := validRemote()
	a.Source.Path = "/data/a"
	a.Trigger = Trigger{Type: "webhook", ListenPath: "/hooks/sync"}
	b := validRemote()
	b.Name = "other-offload"
	b.Source.Path = "/data/b"
	b.Trigger = Trigger{Type: "webhook", ListenPath: "/hooks/sync"}

	all := map[string]*Remote{a.Name: &a, b.Name: &b}
	warnings := ValidateRemoteWithGlobal(&a, &Global{}, all)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "collides") {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}
