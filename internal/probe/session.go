package probe

import (
	"fmt"
	"sync"
	"time"

	"bindprobe/internal/host"
	"bindprobe/pkg/types"
)

// Session is one verification session against a host VM. It implements
// host.EventSink. All shared state is guarded by mu; the check-phase-then-
// increment sequence runs entirely under the lock so concurrent bind
// deliveries cannot lose updates.
type Session struct {
	mu   sync.Mutex
	host host.Host
	pub  EventPublisher

	verdict          types.Verdict
	bindEvents       uint64
	outOfPhase       uint64
	phaseQueryErrors uint64
	metadataErrors   uint64
	lateEvents       uint64
	done             bool

	started time.Time
	doneCh  chan struct{}
}

// Report is a read-only projection of the session state.
type Report struct {
	Verdict          types.Verdict
	BindEvents       uint64
	OutOfPhase       uint64
	PhaseQueryErrors uint64
	MetadataErrors   uint64
	LateEvents       uint64
	Done             bool
	ExitCode         int
	Started          time.Time
}

// Attach negotiates capabilities with the host, registers the session as
// the event sink, and enables bind and death events. A missing bind-event
// capability is logged as a warning, not a failure; any registration error
// aborts the attach.
func Attach(h host.Host, cfg SessionConfig) (*Session, error) {
	if h == nil {
		return nil, fmt.Errorf("nil host")
	}
	cfg = cfg.applyDefaults()
	s := &Session{
		host:    h,
		pub:     cfg.Publisher,
		verdict: types.VerdictPassed,
		started: time.Now(),
		doneCh:  make(chan struct{}),
	}

	if err := h.AddCapabilities(types.Capabilities{CanGenerateNativeMethodBindEvents: true}); err != nil {
		return nil, fmt.Errorf("add capabilities: %w", err)
	}
	caps, err := h.Capabilities()
	if err != nil {
		return nil, fmt.Errorf("query capabilities: %w", err)
	}
	if !caps.CanGenerateNativeMethodBindEvents {
		warnf("generation of native method bind events is not available")
	}

	if err := h.SetEventSink(s); err != nil {
		return nil, fmt.Errorf("register event sink: %w", err)
	}
	if err := h.EnableEvents(types.EventNativeMethodBind, types.EventVMDeath); err != nil {
		return nil, fmt.Errorf("enable events: %w", err)
	}
	return s, nil
}

// OnNativeMethodBind implements host.EventSink. It queries the current VM
// phase and counts the delivery as out-of-phase when the phase is neither
// start nor live. Host API failures are recorded in the verdict but never
// abort the callback. Never blocks beyond acquiring the session mutex.
func (s *Session) OnNativeMethodBind(thread string, method types.MethodID, addr uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		// The host promised no deliveries after VM death.
		s.lateEvents++
		s.verdict = types.VerdictFailed
		complainf("bind event delivered after VM death (thread %s)", thread)
		hostErrorsTotal.WithLabelValues("late_bind").Inc()
		s.pub.Publish(Event{Name: "late_bind", Fields: map[string]any{"thread": thread}})
		return
	}

	s.bindEvents++
	bindEventsTotal.Inc()

	phase, err := s.host.Phase()
	if err != nil {
		// Recorded as its own error class, not as an out-of-phase event.
		s.phaseQueryErrors++
		s.verdict = types.VerdictFailed
		complainf("unable to obtain VM phase during bind callback: %v", err)
		hostErrorsTotal.WithLabelValues("phase_query").Inc()
		s.pub.Publish(Event{Name: "phase_query_failed", Fields: map[string]any{"thread": thread}})
		return
	}

	if !phase.BindAllowed() {
		// The condition under test: binds must not occur outside start/live.
		s.outOfPhase++
		outOfPhaseTotal.Inc()
		s.pub.Publish(Event{Name: "bind_out_of_phase", Fields: map[string]any{
			"phase":  string(phase),
			"thread": thread,
		}})
		return
	}

	info, err := s.host.ResolveMethod(method)
	if err != nil {
		s.metadataErrors++
		s.verdict = types.VerdictFailed
		complainf("unable to resolve method name during bind callback: %v", err)
		hostErrorsTotal.WithLabelValues("resolve").Inc()
		s.pub.Publish(Event{Name: "resolve_failed", Fields: map[string]any{"thread": thread}})
		return
	}

	displayf("bind received for %q %q at 0x%x (phase %s, thread %s)",
		info.Name, info.Signature, addr, phase, thread)
	s.pub.Publish(Event{Name: "bind_in_phase", Fields: map[string]any{
		"method": info.Name,
		"phase":  string(phase),
		"thread": thread,
	}})
}

// OnVMDeath implements host.EventSink. Terminal: it folds the out-of-phase
// counter into the verdict and finalizes the session. The host guarantees
// all bind deliveries have returned before death, so the lock is held only
// to keep the snapshot coherent for concurrent diagnostics readers; nothing
// contends for it on the event path anymore.
func (s *Session) OnVMDeath() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	if s.outOfPhase > 0 {
		s.verdict = types.VerdictFailed
	}
	outOfPhase := s.outOfPhase
	phaseQueryErrors := s.phaseQueryErrors
	metadataErrors := s.metadataErrors
	verdict := s.verdict
	s.mu.Unlock()

	displayf("VM death received")
	if outOfPhase > 0 {
		complainf("%d bind events delivered outside the start/live phases", outOfPhase)
	}
	if phaseQueryErrors > 0 {
		complainf("%d phase queries failed during bind callbacks", phaseQueryErrors)
	}
	if metadataErrors > 0 {
		complainf("%d method resolutions failed during bind callbacks", metadataErrors)
	}

	s.pub.Publish(Event{Name: "vm_death", Fields: map[string]any{
		"verdict":      string(verdict),
		"out_of_phase": outOfPhase,
	}})
	sessionsTotal.WithLabelValues(string(verdict)).Inc()
	close(s.doneCh)
}

// Verdict returns the current verdict. Before VM death it reflects errors
// recorded so far; after death it is final.
func (s *Session) Verdict() types.Verdict {
	return s.Report().Verdict
}

// ExitCode returns the process exit status encoding the verdict.
func (s *Session) ExitCode() int {
	return s.Report().ExitCode
}

// Done returns a channel closed when the VM death event has been processed.
func (s *Session) Done() <-chan struct{} { return s.doneCh }

// Report returns a snapshot of the session counters and verdict. Safe to
// call at any point in the session lifetime.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Report{
		Verdict:          s.verdict,
		BindEvents:       s.bindEvents,
		OutOfPhase:       s.outOfPhase,
		PhaseQueryErrors: s.phaseQueryErrors,
		MetadataErrors:   s.metadataErrors,
		LateEvents:       s.lateEvents,
		Done:             s.done,
		Started:          s.started,
	}
	if r.OutOfPhase > 0 {
		r.Verdict = types.VerdictFailed
	}
	r.ExitCode = r.Verdict.ExitCode()
	return r
}
