package log

// Logger receives protocol trace events.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent
	// use and must not block for long; the join controller calls Log while
	// holding its lock.
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) { f(event) }
