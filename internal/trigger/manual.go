// internal/trigger/manual.go
package trigger

import (
	"context"
	"time"

	"github.com/upliftd/uplift/internal/config"
)

// Manual is a trigger that only fires via the CLI or API
type Manual struct {
	remoteName string
}

// NewManual creates a new manual trigger
func NewManual(remoteName string, cfg config.Trigger) (*Manual, error) {
	return &Manual{remoteName: remoteName}, nil
}

func (m *Manual) RemoteName() string {
	return m.remoteName
}

// Start for manual trigger just blocks, it never fires automatically
func (m *Manual) Start(ctx context.Context, events chan<- Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *Manual) Stop() error {
	return nil
}

// Fire manually triggers this remote. Returns false if the channel is full.
func (m *Manual) Fire(events chan<- Event, data map[string]any) bool {
	select {
	case events <- Event{
		RemoteName: m.remoteName,
		Type:       "manual",
		Timestamp:  time.Now(),
		Data:       data,
	}:
		return true
	default:
		return false
	}
}
