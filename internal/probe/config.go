package probe

// SessionConfig holds options for Attach. Zero value is usable: events are
// dropped and the standard logger is used.
type SessionConfig struct {
	// Publisher receives diagnostic session events. Nil means drop.
	Publisher EventPublisher
}

// applyDefaults centralizes option defaulting for Attach.
func (c SessionConfig) applyDefaults() SessionConfig {
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
