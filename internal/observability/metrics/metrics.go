package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat and booking flows.
type ChatMetrics struct {
	classifications *prometheus.CounterVec
	bookingOutcomes *prometheus.CounterVec
	checkoutLatency *prometheus.HistogramVec
	llmRequests     *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "danielcluckins",
			Subsystem: "chat",
			Name:      "classifications_total",
			Help:      "Messages classified, by detected intent kind",
		}, []string{"kind"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "danielcluckins",
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Booking executions, by kind and final status",
		}, []string{"kind", "status"}),
		checkoutLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "danielcluckins",
			Subsystem: "booking",
			Name:      "checkout_latency_seconds",
			Help:      "Latency of Stripe checkout session creation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "danielcluckins",
			Subsystem: "chat",
			Name:      "llm_requests_total",
			Help:      "LLM completions, by provider and status",
		}, []string{"provider", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.classifications, m.bookingOutcomes, m.checkoutLatency, m.llmRequests)
	return m
}

func (m *ChatMetrics) ObserveClassification(kind string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(kind).Inc()
}

func (m *ChatMetrics) ObserveBooking(kind, status string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(kind, status).Inc()
}

func (m *ChatMetrics) ObserveCheckoutLatency(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.checkoutLatency.WithLabelValues(mode).Observe(seconds)
}

func (m *ChatMetrics) ObserveLLMRequest(provider, status string) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, status).Inc()
}
