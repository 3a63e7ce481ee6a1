// internal/trigger/factory_test.go
package trigger

import (
	"testing"

	"github.com/upliftd/uplift/internal/config"
)

func TestNewTrigger(t *testing.T) {
	tests := []struct {
		name        string
		triggerType string
	}{
		{"filesystem", "filesystem"},
		{"scheduled", "scheduled"},
		{"webhook", "webhook"},
		{"lifecycle", "lifecycle"},
		{"manual", "manual"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Trigger{
				Type:           tt.triggerType,
				WatchPaths:     []string{"/tmp"},
				OnEvents:       []string{"file_created"},
				CronExpression: "0 0 * * * *",
				ListenPath:     "/hooks/test",
				AllowedMethods: []string{"POST"},
			}

			trigger, err := New("test-remote", cfg, "/mnt/staging")
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			if trigger.RemoteName() != "test-remote" {
				t.Errorf("expected remote name test-remote, got %s", trigger.RemoteName())
			}
		})
	}
}

func TestNewTriggerUnknownType(t *testing.T) {
	cfg := config.Trigger{Type: "unknown"}
	_, err := New("test", cfg, "")
	if err == nil {
		t.Error("expected error for unknown trigger type")
	}
}
