package host

import (
	"fmt"
	"sync"

	"bindprobe/pkg/types"
)

// SimConfig controls SimVM behavior. Zero value gives a healthy VM starting
// in the onload phase. The Fail* switches inject host-side API failures so
// the verifier's error classes can be exercised.
type SimConfig struct {
	// InitialPhase is the phase the VM starts in (default onload).
	InitialPhase types.Phase
	// DenyBindCapability withholds the bind-event capability during
	// negotiation. Events are still deliverable; only the granted set lies.
	DenyBindCapability bool
	// FailPhaseQuery makes Phase() return an error.
	FailPhaseQuery bool
	// FailResolve makes ResolveMethod() return an error.
	FailResolve bool
}

// SimVM is an in-process stand-in for the host VM. It owns the lifecycle
// phase, a synthetic native method table, and the event dispatch rules of
// the real instrumentation interface: bind events may be fired from many
// goroutines, and VM death is delivered only after all bind deliveries
// have quiesced.
type SimVM struct {
	mu      sync.Mutex
	cfg     SimConfig
	phase   types.Phase
	caps    types.Capabilities
	sink    EventSink
	enabled map[types.EventKind]bool
	methods map[types.MethodID]types.MethodInfo
	nextID  types.MethodID

	inflight sync.WaitGroup
	dying    bool
	dead     bool
}

// NewSimVM creates a simulated VM. The method table starts empty; register
// methods with RegisterMethod before firing bind events for them.
func NewSimVM(cfg SimConfig) *SimVM {
	if cfg.InitialPhase == "" {
		cfg.InitialPhase = types.PhaseOnLoad
	}
	return &SimVM{
		cfg:     cfg,
		phase:   cfg.InitialPhase,
		enabled: make(map[types.EventKind]bool),
		methods: make(map[types.MethodID]types.MethodInfo),
		nextID:  1,
	}
}

// Phase implements Host.
func (vm *SimVM) Phase() (types.Phase, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.cfg.FailPhaseQuery {
		return "", fmt.Errorf("phase query unavailable")
	}
	return vm.phase, nil
}

// SetPhase moves the VM to a new lifecycle phase. Host-side control used by
// the scenario runner; phases are not validated against a legal ordering so
// that out-of-order deliveries can be simulated.
func (vm *SimVM) SetPhase(p types.Phase) {
	vm.mu.Lock()
	vm.phase = p
	vm.mu.Unlock()
}

// ResolveMethod implements Host.
func (vm *SimVM) ResolveMethod(id types.MethodID) (types.MethodInfo, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.cfg.FailResolve {
		return types.MethodInfo{}, fmt.Errorf("method metadata unavailable")
	}
	info, ok := vm.methods[id]
	if !ok {
		return types.MethodInfo{}, fmt.Errorf("unknown method id %d", id)
	}
	return info, nil
}

// AddCapabilities implements Host. Grants are cumulative.
func (vm *SimVM) AddCapabilities(c types.Capabilities) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if c.CanGenerateNativeMethodBindEvents && !vm.cfg.DenyBindCapability {
		vm.caps.CanGenerateNativeMethodBindEvents = true
	}
	return nil
}

// Capabilities implements Host.
func (vm *SimVM) Capabilities() (types.Capabilities, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.caps, nil
}

// SetEventSink implements Host.
func (vm *SimVM) SetEventSink(s EventSink) error {
	if s == nil {
		return fmt.Errorf("nil event sink")
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.dying || vm.dead {
		return fmt.Errorf("vm is shutting down")
	}
	vm.sink = s
	return nil
}

// EnableEvents implements Host.
func (vm *SimVM) EnableEvents(kinds ...types.EventKind) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for _, k := range kinds {
		switch k {
		case types.EventNativeMethodBind, types.EventVMDeath:
			vm.enabled[k] = true
		default:
			return fmt.Errorf("unknown event kind %q", k)
		}
	}
	return nil
}

// RegisterMethod adds a synthetic native method to the VM's method table
// and returns its handle.
func (vm *SimVM) RegisterMethod(name, signature string) types.MethodID {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	id := vm.nextID
	vm.nextID++
	vm.methods[id] = types.MethodInfo{Name: name, Signature: signature}
	return id
}

// FireBind delivers one native method bind notification to the registered
// sink. Safe to call from multiple goroutines. The delivery is synchronous:
// FireBind returns after the sink callback returns. Binds fired after Die
// has begun are dropped with an error.
func (vm *SimVM) FireBind(thread string, id types.MethodID) error {
	vm.mu.Lock()
	if vm.dying || vm.dead {
		vm.mu.Unlock()
		return fmt.Errorf("vm is shutting down")
	}
	sink := vm.sink
	if sink == nil || !vm.enabled[types.EventNativeMethodBind] {
		vm.mu.Unlock()
		return nil
	}
	// synthetic implementation address, stable per method handle
	addr := uintptr(0x7f0000000000) | uintptr(id)<<4
	vm.inflight.Add(1)
	vm.mu.Unlock()

	defer vm.inflight.Done()
	sink.OnNativeMethodBind(thread, id, addr)
	return nil
}

// Die ends the VM session: it stops accepting bind events, waits for all
// in-flight deliveries to return, moves the phase to dead, and delivers the
// VM death event. Idempotent; only the first call delivers the event.
func (vm *SimVM) Die() {
	vm.mu.Lock()
	if vm.dying || vm.dead {
		vm.mu.Unlock()
		return
	}
	vm.dying = true
	sink := vm.sink
	deliver := sink != nil && vm.enabled[types.EventVMDeath]
	vm.mu.Unlock()

	vm.inflight.Wait()

	vm.mu.Lock()
	vm.phase = types.PhaseDead
	vm.dead = true
	vm.mu.Unlock()

	if deliver {
		sink.OnVMDeath()
	}
}
