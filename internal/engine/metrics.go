package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var ActionsCommitted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loginflow",
	Subsystem: "store",
	Name:      "actions_committed",
	Help:      "Committed actions by kind.",
}, []string{"kind"})

var ListenerNotifications = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "loginflow",
	Subsystem: "store",
	Name:      "listener_notifications",
	Help:      "Listener invocations after commits.",
})

var ListenerPanics = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "loginflow",
	Subsystem: "store",
	Name:      "listener_panics",
	Help:      "Listener panics recovered by the store.",
})

var ThunksSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loginflow",
	Subsystem: "store",
	Name:      "thunks_settled",
	Help:      "Thunks settled by outcome.",
}, []string{"outcome"})

var ThunkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "loginflow",
	Subsystem: "store",
	Name:      "thunk_duration_seconds",
	Help:      "Time from thunk start to settle.",
	Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
})

// Thunk outcomes for ThunksSettled.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Collectors returns every store metric.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ActionsCommitted,
		ListenerNotifications,
		ListenerPanics,
		ThunksSettled,
		ThunkDuration,
	}
}

// RegisterMetrics registers the store metrics with reg. Registering the
// same collectors twice is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
