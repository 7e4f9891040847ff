// Package probe implements the event verifier: a session attached to a host
// VM that checks native method bind notifications are only delivered during
// the start or live lifecycle phases. It is structured into small files by
// concern:
//
//   - session.go: Session type, Attach, event callbacks, report/exit code.
//   - config.go: SessionConfig and defaults.
//   - events.go: diagnostic EventPublisher interface and noop default.
//   - eventpub_memory.go: in-memory publisher for tests.
//   - logging.go: optional zerolog logger with log.Printf fallback.
//   - metrics.go: Prometheus counters.
//
// A Session is created by Attach, which performs capability negotiation and
// callback registration against the host, and then lives until the host
// delivers the VM death event. The verdict and all counters are monotone:
// once a check fails the session stays failed.
//
// External packages should treat the Session as the verification authority
// and use public methods only (Attach, Report, Verdict, ExitCode, Done).
package probe
