// internal/trigger/trigger.go
package trigger

import (
	"context"
	"time"
)

// Event represents a trigger event
type Event struct {
	RemoteName string
	Type       string
	Timestamp  time.Time
	Data       map[string]any
}

// Trigger is the interface all triggers must implement
type Trigger interface {
	// Start begins watching for events, sending them to the channel
	Start(ctx context.Context, events chan<- Event) error
	// Stop stops the trigger
	Stop() error
	// RemoteName returns the name of the remote this trigger belongs to
	RemoteName() string
}
