package probe

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	bindEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bindprobe",
			Subsystem: "probe",
			Name:      "bind_events_total",
			Help:      "Total native method bind notifications delivered",
		},
	)

	outOfPhaseTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bindprobe",
			Subsystem: "probe",
			Name:      "out_of_phase_total",
			Help:      "Bind notifications delivered outside the start/live phases",
		},
	)

	hostErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bindprobe",
			Subsystem: "probe",
			Name:      "host_errors_total",
			Help:      "Host API failures observed during callbacks",
		},
		[]string{"class"},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bindprobe",
			Subsystem: "probe",
			Name:      "sessions_total",
			Help:      "Completed verification sessions by verdict",
		},
		[]string{"verdict"},
	)
)

func init() {
	prometheus.MustRegister(bindEventsTotal, outOfPhaseTotal, hostErrorsTotal, sessionsTotal)
}
