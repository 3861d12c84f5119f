package effects

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var EffectOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loginflow",
	Subsystem: "effects",
	Name:      "outcomes",
	Help:      "Terminal outcomes of request lifecycles.",
}, []string{"effect", "outcome"})

var EffectLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "loginflow",
	Subsystem: "effects",
	Name:      "request_seconds",
	Help:      "Remote request latency.",
	Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
}, []string{"effect"})

// Effect names.
const (
	EffectLogin   = "login"
	EffectFriends = "friends"
)

// Outcomes for EffectOutcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeUnauthorized = "unauthorized"
	OutcomeTransport    = "transport_error"
)

// RegisterMetrics registers the effect metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{EffectOutcomes, EffectLatency} {
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
