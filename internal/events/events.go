// Package events publishes load lifecycle events.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	LoadCreated      = "load.created"
	InvoiceGenerated = "invoice.generated"
)

// Event is the JSON envelope written for every message.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func NewEvent(typ string, data any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
}

// Publisher is the interface used by services to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }
