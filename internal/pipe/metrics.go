package pipe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the simulator's Prometheus series.
type metrics struct {
	deliveries   *prometheus.CounterVec // By outcome (started/failed)
	deadLettered prometheus.Counter
	dlqDepth     prometheus.Gauge
	alarms       prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, pipeName string) (*metrics, error) {
	labels := prometheus.Labels{"pipe": pipeName}
	m := &metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "bclconvert",
			Subsystem:   "pipe",
			Name:        "deliveries_total",
			Help:        "Delivery attempts to the target state machine",
			ConstLabels: labels,
		}, []string{"outcome"}),

		deadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bclconvert",
			Subsystem:   "pipe",
			Name:        "dead_lettered_total",
			Help:        "Messages moved to the dead-letter queue",
			ConstLabels: labels,
		}),

		dlqDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bclconvert",
			Subsystem:   "pipe",
			Name:        "dlq_depth",
			Help:        "Messages currently in the dead-letter queue",
			ConstLabels: labels,
		}),

		alarms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bclconvert",
			Subsystem:   "pipe",
			Name:        "alarms_total",
			Help:        "Dead-letter alarm transitions into ALARM",
			ConstLabels: labels,
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.deliveries, m.deadLettered, m.dlqDepth, m.alarms} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
