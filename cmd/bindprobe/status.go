package main

import (
	"time"

	"bindprobe/internal/scenario"
	"bindprobe/pkg/types"
)

// statusService adapts a live runner to the diagnostics API.
type statusService struct {
	runner   *scenario.Runner
	scenario string
}

func (s *statusService) Status() types.StatusResponse {
	r := s.runner.Session().Report()
	now := time.Now()
	return types.StatusResponse{
		Scenario:         s.scenario,
		Phase:            string(s.runner.Phase()),
		Verdict:          string(r.Verdict),
		BindEvents:       r.BindEvents,
		OutOfPhase:       r.OutOfPhase,
		PhaseQueryErrors: r.PhaseQueryErrors,
		MetadataErrors:   r.MetadataErrors,
		LateEvents:       r.LateEvents,
		Done:             r.Done,
		ExitCode:         r.ExitCode,
		UptimeSeconds:    int64(now.Sub(r.Started).Seconds()),
		ServerTimeUnix:   now.Unix(),
	}
}

// Ready reports whether the verification session is attached. The runner
// only exists once Attach has succeeded, so this is always true by the
// time the server is up.
func (s *statusService) Ready() bool { return s.runner != nil }
