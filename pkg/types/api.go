package types

// StatusResponse is returned by GET /status on the diagnostics API.
type StatusResponse struct {
	// Identifier of the scenario being replayed (empty outside scenario runs).
	// example: onload-bind
	Scenario string `json:"scenario,omitempty" example:"onload-bind"`
	// Current lifecycle phase of the host VM.
	// example: live
	Phase string `json:"phase" example:"live"`
	// Current session verdict (passed until a check fails).
	// example: passed
	Verdict string `json:"verdict" example:"passed"`
	// Total bind notifications delivered to the session so far.
	// example: 12
	BindEvents uint64 `json:"bind_events" example:"12"`
	// Bind notifications that arrived outside the start/live phases.
	// example: 0
	OutOfPhase uint64 `json:"out_of_phase" example:"0"`
	// Failed phase queries observed during bind callbacks.
	// example: 0
	PhaseQueryErrors uint64 `json:"phase_query_errors" example:"0"`
	// Failed method metadata resolutions observed during bind callbacks.
	// example: 0
	MetadataErrors uint64 `json:"metadata_errors" example:"0"`
	// Bind notifications delivered after VM death (host ordering violation).
	// example: 0
	LateEvents uint64 `json:"late_events" example:"0"`
	// True once the VM death event has been processed.
	// example: false
	Done bool `json:"done" example:"false"`
	// Exit status the process will report (meaningful once done).
	// example: 0
	ExitCode int `json:"exit_code" example:"0"`
	// Uptime of the probe in seconds.
	// example: 3
	UptimeSeconds int64 `json:"uptime_seconds" example:"3"`
	// Probe time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: failed to encode response
	Error string `json:"error" example:"failed to encode response"`
	// HTTP status code.
	// example: 500
	Code int `json:"code" example:"500"`
}
