// internal/template/template_test.go
package template

import (
	"testing"
	"time"
)

func TestExpand_ReplacesKnownVariables(t *testing.T) {
	out := Expand("gdrive:backups/{{remote}}/{{date}}", map[string]any{
		"remote": "media-offload",
		"date":   "2026-08-24",
	})
	if out != "gdrive:backups/media-offload/2026-08-24" {
		t.Errorf("unexpected expansion: %s", out)
	}
}

func TestExpand_KeepsUnknownVariables(t *testing.T) {
	out := Expand("gdrive:{{unknown}}/x", map[string]any{})
	if out != "gdrive:{{unknown}}/x" {
		t.Errorf("unknown variables should be left intact, got %s", out)
	}
}

func TestExpand_NonStringValues(t *testing.T) {
	out := Expand("batch-{{n}}", map[string]any{"n": 7})
	if out != "batch-7" {
		t.Errorf("unexpected expansion: %s", out)
	}
}

func TestPathData(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	data := PathData("media-offload", now, nil)

	if data["remote"] != "media-offload" {
		t.Errorf("unexpected remote: %v", data["remote"])
	}
	if data["date"] != "2026-08-24" {
		t.Errorf("unexpected date: %v", data["date"])
	}
	if data["year"] != "2026" || data["month"] != "08" || data["day"] != "24" {
		t.Errorf("unexpected date parts: %v %v %v", data["year"], data["month"], data["day"])
	}
}

func TestPathData_EventDataOverrides(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	data := PathData("media-offload", now, map[string]any{"date": "override"})

	if data["date"] != "override" {
		t.Errorf("event data should override defaults, got %v", data["date"])
	}
}
