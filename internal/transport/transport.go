// Package transport publishes trainer events (pitch detections, card
// prompts, attempt results, progression changes) to external UIs.
// Implementations must be safe for concurrent use and must never block
// the caller: a slow or absent consumer drops events, it does not
// stall practice.
package transport

import "time"

// Publisher is the generic event sink. Publish must not block.
type Publisher interface {
	Publish(event any) error
	Close() error
}

// Event is the envelope every publisher sends.
type Event struct {
	Type    string `json:"type"`
	TimeMs  int64  `json:"time_ms"`
	Payload any    `json:"payload,omitempty"`
}

// NewEvent stamps an event envelope with the current wall clock.
func NewEvent(eventType string, payload any) Event {
	return Event{
		Type:    eventType,
		TimeMs:  time.Now().UnixMilli(),
		Payload: payload,
	}
}

// Event types emitted by the trainer.
const (
	EventPitch    = "pitch"    // A pitch estimate left the analysis frame.
	EventCard     = "card"     // A new card was presented.
	EventResult   = "result"   // An attempt resolved.
	EventProgress = "progress" // The unlocked cursor moved.
	EventSession  = "session"  // Session started or ended.
)

// Fanout publishes every event to each member publisher. Errors are
// collected per member but never short-circuit delivery.
type Fanout struct {
	members []Publisher
}

// NewFanout builds a Fanout over the given publishers. Nil members are
// skipped.
func NewFanout(members ...Publisher) *Fanout {
	f := &Fanout{}
	for _, m := range members {
		if m != nil {
			f.members = append(f.members, m)
		}
	}
	return f
}

// Publish delivers event to every member, returning the first error
// after all deliveries complete.
func (f *Fanout) Publish(event any) error {
	var firstErr error
	for _, m := range f.members {
		if err := m.Publish(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every member, returning the first error.
func (f *Fanout) Close() error {
	var firstErr error
	for _, m := range f.members {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Publisher = (*Fanout)(nil)
