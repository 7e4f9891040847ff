package probe

import (
	"sync"
	"testing"

	"bindprobe/internal/host"
	"bindprobe/pkg/types"
)

// newAttached builds a SimVM with one registered method and a session
// attached to it.
func newAttached(t *testing.T, cfg host.SimConfig, scfg SessionConfig) (*host.SimVM, *Session, types.MethodID) {
	t.Helper()
	vm := host.NewSimVM(cfg)
	id := vm.RegisterMethod("nativeMethod", "()I")
	s, err := Attach(vm, scfg)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return vm, s, id
}

func fire(t *testing.T, vm *host.SimVM, id types.MethodID, thread string) {
	t.Helper()
	if err := vm.FireBind(thread, id); err != nil {
		t.Fatalf("FireBind: %v", err)
	}
}

func TestZeroBindsPasses(t *testing.T) {
	vm, s, _ := newAttached(t, host.SimConfig{}, SessionConfig{})
	vm.Die()
	r := s.Report()
	if !r.Done {
		t.Fatalf("expected session to be done after VM death")
	}
	if r.OutOfPhase != 0 {
		t.Fatalf("expected out-of-phase count 0, got %d", r.OutOfPhase)
	}
	if r.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", r.ExitCode)
	}
}

func TestBindDuringLivePasses(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseLive}, SessionConfig{})
	fire(t, vm, id, "main")
	vm.Die()
	r := s.Report()
	if r.BindEvents != 1 || r.OutOfPhase != 0 {
		t.Fatalf("expected 1 bind / 0 out-of-phase, got %d / %d", r.BindEvents, r.OutOfPhase)
	}
	if r.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", r.ExitCode)
	}
}

func TestBindDuringStartPasses(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseStart}, SessionConfig{})
	fire(t, vm, id, "main")
	vm.Die()
	if code := s.ExitCode(); code != 0 {
		t.Fatalf("expected exit 0 for bind during start, got %d", code)
	}
}

func TestBindBeforeStartFails(t *testing.T) {
	pub := NewMemoryPublisher()
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhasePrimordial}, SessionConfig{Publisher: pub})
	fire(t, vm, id, "main")
	vm.Die()
	r := s.Report()
	if r.OutOfPhase != 1 {
		t.Fatalf("expected out-of-phase count 1, got %d", r.OutOfPhase)
	}
	if r.Verdict != types.VerdictFailed {
		t.Fatalf("expected failed verdict, got %s", r.Verdict)
	}
	// 95 + 2: the status offset the external runner decodes
	if r.ExitCode != 97 {
		t.Fatalf("expected exit 97, got %d", r.ExitCode)
	}
	var sawOutOfPhase bool
	for _, e := range pub.Events() {
		if e.Name == "bind_out_of_phase" {
			sawOutOfPhase = true
		}
	}
	if !sawOutOfPhase {
		t.Fatalf("expected bind_out_of_phase event; got %+v", pub.Events())
	}
}

func TestEachOutOfPhaseBindCountsOnce(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseOnLoad}, SessionConfig{})
	for i := 0; i < 5; i++ {
		fire(t, vm, id, "main")
	}
	if got := s.Report().OutOfPhase; got != 5 {
		t.Fatalf("expected out-of-phase count 5, got %d", got)
	}
}

func TestCounterMonotoneAcrossPhases(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseOnLoad}, SessionConfig{})
	fire(t, vm, id, "main")
	if got := s.Report().OutOfPhase; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	// moving into an allowed phase must not reset the counter
	vm.SetPhase(types.PhaseLive)
	fire(t, vm, id, "main")
	if got := s.Report().OutOfPhase; got != 1 {
		t.Fatalf("counter changed on in-phase bind: got %d", got)
	}
}

func TestConcurrentOutOfPhaseBindsNoLostUpdates(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhasePrimordial}, SessionConfig{})
	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = vm.FireBind("worker", id)
		}()
	}
	wg.Wait()
	vm.Die()
	r := s.Report()
	if r.OutOfPhase != n {
		t.Fatalf("expected out-of-phase count %d, got %d", n, r.OutOfPhase)
	}
	if r.ExitCode != 97 {
		t.Fatalf("expected exit 97, got %d", r.ExitCode)
	}
}

func TestPhaseQueryFailureDoesNotCount(t *testing.T) {
	pub := NewMemoryPublisher()
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseLive, FailPhaseQuery: true}, SessionConfig{Publisher: pub})
	fire(t, vm, id, "main")
	r := s.Report()
	if r.OutOfPhase != 0 {
		t.Fatalf("phase query failure must not touch the out-of-phase counter, got %d", r.OutOfPhase)
	}
	if r.PhaseQueryErrors != 1 {
		t.Fatalf("expected 1 phase query error, got %d", r.PhaseQueryErrors)
	}
	if r.Verdict != types.VerdictFailed {
		t.Fatalf("expected failed verdict on phase query failure")
	}
	vm.Die()
	if code := s.ExitCode(); code != 97 {
		t.Fatalf("expected exit 97, got %d", code)
	}
}

func TestResolveFailureIsNonFatalButFails(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseLive, FailResolve: true}, SessionConfig{})
	fire(t, vm, id, "main")
	r := s.Report()
	if r.MetadataErrors != 1 {
		t.Fatalf("expected 1 metadata error, got %d", r.MetadataErrors)
	}
	if r.OutOfPhase != 0 {
		t.Fatalf("metadata failure must not touch the out-of-phase counter")
	}
	// callback returned normally; more binds are still processed
	fire(t, vm, id, "main")
	if got := s.Report().BindEvents; got != 2 {
		t.Fatalf("expected 2 bind events, got %d", got)
	}
	vm.Die()
	if code := s.ExitCode(); code != 97 {
		t.Fatalf("expected exit 97, got %d", code)
	}
}

func TestVerdictNeverResets(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseOnLoad}, SessionConfig{})
	fire(t, vm, id, "main")
	vm.SetPhase(types.PhaseLive)
	for i := 0; i < 10; i++ {
		fire(t, vm, id, "main")
	}
	vm.Die()
	if s.Verdict() != types.VerdictFailed {
		t.Fatalf("verdict reset by later in-phase binds")
	}
}

func TestDoneChannelClosesOnDeath(t *testing.T) {
	vm, s, _ := newAttached(t, host.SimConfig{}, SessionConfig{})
	select {
	case <-s.Done():
		t.Fatalf("done channel closed before VM death")
	default:
	}
	vm.Die()
	select {
	case <-s.Done():
	default:
		t.Fatalf("done channel not closed after VM death")
	}
}

func TestAttachWithDeniedCapabilitySucceeds(t *testing.T) {
	// absence of the bind capability is a warning, not a hard failure
	vm := host.NewSimVM(host.SimConfig{DenyBindCapability: true})
	if _, err := Attach(vm, SessionConfig{}); err != nil {
		t.Fatalf("Attach with denied capability: %v", err)
	}
}

func TestAttachNilHost(t *testing.T) {
	if _, err := Attach(nil, SessionConfig{}); err == nil {
		t.Fatalf("expected error attaching to nil host")
	}
}

func TestLateBindAfterDeathIsRecorded(t *testing.T) {
	vm, s, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseLive}, SessionConfig{})
	vm.Die()
	// deliver directly, bypassing the SimVM ordering guarantee
	s.OnNativeMethodBind("rogue", id, 0)
	r := s.Report()
	if r.LateEvents != 1 {
		t.Fatalf("expected 1 late event, got %d", r.LateEvents)
	}
	if r.Verdict != types.VerdictFailed {
		t.Fatalf("expected failed verdict after late delivery")
	}
	if r.BindEvents != 0 {
		t.Fatalf("late delivery must not be processed as a bind event")
	}
}

func TestInPhaseBindPublishesDiagnostics(t *testing.T) {
	pub := NewMemoryPublisher()
	vm, _, id := newAttached(t, host.SimConfig{InitialPhase: types.PhaseLive}, SessionConfig{Publisher: pub})
	fire(t, vm, id, "main")
	vm.Die()
	want := map[string]bool{"bind_in_phase": false, "vm_death": false}
	for _, e := range pub.Events() {
		if _, ok := want[e.Name]; ok {
			want[e.Name] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Fatalf("expected event %q to be published; got %+v", k, pub.Events())
		}
	}
}
