// internal/trigger/factory.go
package trigger

import (
	"fmt"

	"github.com/upliftd/uplift/internal/config"
)

// New creates a trigger based on the configuration type. sourcePath is the
// remote's source directory; filesystem triggers watch it when no explicit
// watch_paths are configured.
func New(remoteName string, cfg config.Trigger, sourcePath string) (Trigger, error) {
	switch cfg.Type {
	case "filesystem":
		return NewFilesystem(remoteName, cfg, sourcePath)
	case "scheduled":
		return NewScheduled(remoteName, cfg)
	case "webhook":
		return NewWebhook(remoteName, cfg)
	case "lifecycle":
		return NewLifecycle(remoteName, cfg)
	case "manual":
		return NewManual(remoteName, cfg)
	default:
		return nil, fmt.Errorf("unknown trigger type: %s", cfg.Type)
	}
}
