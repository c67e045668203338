package transport

import (
	"sightread/internal/log"
)

// LoggingPublisher implements Publisher by writing events to the
// application log at debug level. Used when no external UI is
// attached.
type LoggingPublisher struct{}

// NewLoggingPublisher creates a new LoggingPublisher instance.
func NewLoggingPublisher() *LoggingPublisher {
	log.Debugf("transport: using logging publisher")
	return &LoggingPublisher{}
}

// Publish logs the event. Never fails.
func (lp *LoggingPublisher) Publish(event any) error {
	log.Debugf("transport: event %+v", event)
	return nil
}

// Close is a no-op for LoggingPublisher.
func (lp *LoggingPublisher) Close() error {
	return nil
}

// Ensure LoggingPublisher satisfies the interface at compile time.
var _ Publisher = (*LoggingPublisher)(nil)
