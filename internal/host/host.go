// Package host models the instrumentation boundary of the virtual machine
// under test. The Host interface is the capability-negotiated session the
// probe attaches to; SimVM is the in-process implementation used to drive
// conformance scenarios.
package host

import (
	"bindprobe/pkg/types"
)

// EventSink receives instrumentation events from a Host. The host may call
// OnNativeMethodBind concurrently from multiple goroutines; OnVMDeath is
// delivered exactly once, after all bind deliveries have returned.
type EventSink interface {
	OnNativeMethodBind(thread string, method types.MethodID, addr uintptr)
	OnVMDeath()
}

// Host is the instrumentation session exposed by the VM. Events are only
// delivered to a registered sink, and only for kinds that have been enabled.
type Host interface {
	// Phase returns the current lifecycle phase of the VM.
	Phase() (types.Phase, error)
	// ResolveMethod returns name and signature for a method handle.
	ResolveMethod(id types.MethodID) (types.MethodInfo, error)
	// AddCapabilities requests capabilities for this session. Capabilities
	// the host cannot grant are silently omitted from the granted set.
	AddCapabilities(c types.Capabilities) error
	// Capabilities returns the currently granted capability set.
	Capabilities() (types.Capabilities, error)
	// SetEventSink registers the sink that receives events.
	SetEventSink(s EventSink) error
	// EnableEvents turns on delivery of the given event kinds.
	EnableEvents(kinds ...types.EventKind) error
}
