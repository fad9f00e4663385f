package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the webhook → dialogue flow.
type IntakeMetrics struct {
	inboundTotal     *prometheus.CounterVec
	dedupTotal       prometheus.Counter
	transitionsTotal *prometheus.CounterVec
	handoffsTotal    *prometheus.CounterVec
	webhookLatency   *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound webhook deliveries",
		}, []string{"event_type", "status"}),
		dedupTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "webhook",
			Name:      "dedup_hits_total",
			Help:      "Total redelivered messages skipped by the dedup index",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "dialogue",
			Name:      "stage_transitions_total",
			Help:      "Total dialogue stage transitions",
		}, []string{"from", "to"}),
		handoffsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "dialogue",
			Name:      "handoffs_total",
			Help:      "Total case backend handoffs",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook delivery processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.dedupTotal, m.transitionsTotal, m.handoffsTotal, m.webhookLatency)
	return m
}

func (m *IntakeMetrics) ObserveInbound(eventType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(eventType, status).Inc()
}

func (m *IntakeMetrics) ObserveDedupHit() {
	if m == nil {
		return
	}
	m.dedupTotal.Inc()
}

func (m *IntakeMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *IntakeMetrics) ObserveHandoff(status string) {
	if m == nil {
		return
	}
	m.handoffsTotal.WithLabelValues(status).Inc()
}

func (m *IntakeMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}
