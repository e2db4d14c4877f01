package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the resolution counters. A nil *Metrics records nothing.
type Metrics struct {
	fetches  *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admindb",
			Subsystem: "resolve",
			Name:      "store_fetches_total",
			Help:      "Store round trips issued by reference resolution.",
		}, []string{"table", "op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admindb",
			Subsystem: "resolve",
			Name:      "requests_total",
			Help:      "Resolution calls by kind.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{m.fetches, m.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Fetch(table, op string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(table, op).Inc()
}

func (m *Metrics) Request(kind string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind).Inc()
}
