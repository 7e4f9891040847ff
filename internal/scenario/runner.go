package scenario

import (
	"context"
	"fmt"
	"sync"

	"bindprobe/internal/host"
	"bindprobe/internal/probe"
	"bindprobe/pkg/types"
)

// RunnerConfig holds options for NewRunner.
type RunnerConfig struct {
	// Publisher receives diagnostic events from the verification session.
	Publisher probe.EventPublisher
	// Sim is the base VM configuration (fault injection switches included).
	Sim host.SimConfig
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	Report   probe.Report
	ExitCode int
}

// Runner replays one scenario against a fresh simulated VM with an
// attached verification session. One runner serves one VM session: after
// Run returns the VM is dead and the runner is spent.
type Runner struct {
	vm     *host.SimVM
	sess   *probe.Session
	method types.MethodID

	mu  sync.Mutex
	ran bool
}

// NewRunner creates the VM, registers a synthetic native method, and
// attaches a verification session.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	vm := host.NewSimVM(cfg.Sim)
	method := vm.RegisterMethod("nativeMethod", "()I")
	sess, err := probe.Attach(vm, probe.SessionConfig{Publisher: cfg.Publisher})
	if err != nil {
		return nil, fmt.Errorf("attach session: %w", err)
	}
	return &Runner{vm: vm, sess: sess, method: method}, nil
}

// Session exposes the live verification session, e.g. for a status surface
// polled while the scenario is running.
func (r *Runner) Session() *probe.Session { return r.sess }

// Phase returns the VM's current lifecycle phase; empty when the query
// fails (fault-injected hosts).
func (r *Runner) Phase() types.Phase {
	p, err := r.vm.Phase()
	if err != nil {
		return ""
	}
	return p
}

// Run replays the scenario steps in order and then lets the VM die, which
// finalizes the session. The context is only consulted between steps; a
// step in flight always completes. If the scenario carries an expectation
// block, a differing outcome returns a mismatch error (IsMismatch) along
// with the result.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (Result, error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}
	r.mu.Lock()
	if r.ran {
		r.mu.Unlock()
		return Result{}, fmt.Errorf("runner already used for scenario %s", sc.ID)
	}
	r.ran = true
	r.mu.Unlock()

	for i, st := range sc.Steps {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("scenario %s step %d: %w", sc.ID, i, ctx.Err())
		default:
		}
		if st.Phase != "" {
			r.vm.SetPhase(types.Phase(st.Phase))
			continue
		}
		r.deliver(st.Bind)
	}
	r.vm.Die()

	res := Result{
		Scenario: sc.ID,
		Report:   r.sess.Report(),
		ExitCode: r.sess.ExitCode(),
	}
	if sc.Expect != nil {
		if res.ExitCode != sc.Expect.ExitCode {
			return res, mismatchError{scenario: sc.ID, field: "exit code", want: sc.Expect.ExitCode, got: res.ExitCode}
		}
		if res.Report.OutOfPhase != sc.Expect.OutOfPhase {
			return res, mismatchError{scenario: sc.ID, field: "out-of-phase count", want: sc.Expect.OutOfPhase, got: res.Report.OutOfPhase}
		}
	}
	return res, nil
}

// deliver spreads count bind deliveries over the configured workers and
// waits for all of them to return.
func (r *Runner) deliver(b *BindStep) {
	workers := b.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > b.Count {
		workers = b.Count
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		share := b.Count / workers
		if w < b.Count%workers {
			share++
		}
		thread := b.Thread
		if thread == "" || workers > 1 {
			thread = fmt.Sprintf("worker-%d", w)
		}
		go func(share int, thread string) {
			defer wg.Done()
			for i := 0; i < share; i++ {
				_ = r.vm.FireBind(thread, r.method)
			}
		}(share, thread)
	}
	wg.Wait()
}
