package bridge

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts bridge traffic. Register with a prometheus.Registerer once
// per process; tests pass their own registry.
type Metrics struct {
	RequestsAccepted prometheus.Counter
	RequestsRejected *prometheus.CounterVec
	DecodeFailures   prometheus.Counter
	StatesPublished  prometheus.Counter
}

// NewMetrics creates and registers the bridge counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doord_requests_accepted_total",
			Help: "Door requests accepted by the state machine",
		}),
		RequestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "doord_requests_rejected_total",
			Help: "Door requests rejected by the state machine",
		}, []string{"reason"}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doord_decode_failures_total",
			Help: "Inbound payloads dropped because they failed to decode",
		}),
		StatesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doord_states_published_total",
			Help: "State snapshots published to the bus",
		}),
	}
	reg.MustRegister(m.RequestsAccepted, m.RequestsRejected, m.DecodeFailures, m.StatesPublished)
	return m
}
