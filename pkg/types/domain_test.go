package types

import "testing"

func TestBindAllowed(t *testing.T) {
	cases := []struct {
		phase Phase
		want  bool
	}{
		{PhaseOnLoad, false},
		{PhasePrimordial, false},
		{PhaseStart, true},
		{PhaseLive, true},
		{PhaseDead, false},
	}
	for _, c := range cases {
		if got := c.phase.BindAllowed(); got != c.want {
			t.Fatalf("BindAllowed(%s) = %v, want %v", c.phase, got, c.want)
		}
	}
}

func TestKnownPhase(t *testing.T) {
	for _, s := range []string{"onload", "primordial", "start", "live", "dead"} {
		if !KnownPhase(s) {
			t.Fatalf("expected %q to be a known phase", s)
		}
	}
	if KnownPhase("warmup") {
		t.Fatalf("expected unknown phase to be rejected")
	}
}

func TestVerdictExitCode(t *testing.T) {
	if got := VerdictPassed.ExitCode(); got != 0 {
		t.Fatalf("passed exit code = %d, want 0", got)
	}
	// 95 + 2, the status offset the external runner decodes
	if got := VerdictFailed.ExitCode(); got != 97 {
		t.Fatalf("failed exit code = %d, want 97", got)
	}
}
