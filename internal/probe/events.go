package probe

// Event represents a diagnostic session event.
// Minimal and stable: name plus optional fields via key/values.
type Event struct {
	Name   string
	Fields map[string]any
}

// EventPublisher receives events from the session. Implementations should
// be lightweight and non-blocking; Publish must not panic. Publish may be
// called with the session mutex held, so it must not call back into the
// session.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
