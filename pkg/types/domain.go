package types

// Phase is the lifecycle stage of the host VM at the moment an event is
// delivered. It is owned by the host and queried synchronously per event;
// the verifier never caches it.
type Phase string

const (
	// PhaseOnLoad covers agent loading, before VM initialization begins.
	PhaseOnLoad Phase = "onload"
	// PhasePrimordial covers early VM initialization, before the start event.
	PhasePrimordial Phase = "primordial"
	// PhaseStart covers the window between the VM start and init events.
	PhaseStart Phase = "start"
	// PhaseLive covers normal execution, from VM init until VM death.
	PhaseLive Phase = "live"
	// PhaseDead covers everything after the VM death event.
	PhaseDead Phase = "dead"
)

// BindAllowed reports whether native method bind notifications may legally
// be delivered while the VM is in p.
func (p Phase) BindAllowed() bool {
	return p == PhaseStart || p == PhaseLive
}

// KnownPhase reports whether s names one of the defined lifecycle phases.
func KnownPhase(s string) bool {
	switch Phase(s) {
	case PhaseOnLoad, PhasePrimordial, PhaseStart, PhaseLive, PhaseDead:
		return true
	}
	return false
}

// Verdict is the pass/fail outcome of a verification session. It only ever
// moves from passed to failed, never back.
type Verdict string

const (
	VerdictPassed Verdict = "passed"
	VerdictFailed Verdict = "failed"
)

// Exit status encoding read by the external test runner. A failing run
// exits with ExitBase+StatusFailed (97); a passing run exits 0.
const (
	StatusPassed = 0
	StatusFailed = 2
	ExitBase     = 95
)

// ExitCode maps the verdict to the process exit status.
func (v Verdict) ExitCode() int {
	if v == VerdictFailed {
		return ExitBase + StatusFailed
	}
	return StatusPassed
}

// MethodID is an opaque host-assigned handle for a native method.
type MethodID uint64

// MethodInfo is the resolved identity of a native method, used for
// diagnostic output only.
type MethodInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// EventKind identifies an instrumentation event class that a sink can
// subscribe to.
type EventKind string

const (
	EventNativeMethodBind EventKind = "native_method_bind"
	EventVMDeath          EventKind = "vm_death"
)

// Capabilities is the negotiated capability set of an instrumentation
// session. Requesting a capability the host cannot grant is not an error;
// the granted set simply omits it.
type Capabilities struct {
	// CanGenerateNativeMethodBindEvents permits delivery of bind events.
	CanGenerateNativeMethodBindEvents bool `json:"can_generate_native_method_bind_events"`
}
