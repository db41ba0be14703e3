package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Quote outcomes.
const (
	QuoteOutcomeOK         = "ok"
	QuoteOutcomeNoCoverage = "no_coverage"
	QuoteOutcomeError      = "error"
)

// ShippingMetrics tracks delivery quotes.
type ShippingMetrics struct {
	quotes   *prometheus.CounterVec
	distance prometheus.Histogram
	fee      prometheus.Histogram
}

func NewShippingMetrics(reg prometheus.Registerer) *ShippingMetrics {
	if reg == nil {
		return &ShippingMetrics{}
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "shipping",
		Name:      "quotes_total",
		Help:      "Shipping quotes by outcome and lookup mode.",
	}, []string{"outcome", "mode"})
	distance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "shipping",
		Name:      "quote_distance_km",
		Help:      "Straight line distance from the chosen store.",
		Buckets:   []float64{0.5, 1, 2, 3, 5, 7.5, 10},
	})
	fee := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "shipping",
		Name:      "quote_fee",
		Help:      "Quoted delivery fee in minor currency units.",
		Buckets:   prometheus.ExponentialBuckets(15000, 1.5, 8),
	})
	reg.MustRegister(quotes, distance, fee)
	return &ShippingMetrics{quotes: quotes, distance: distance, fee: fee}
}

// ObserveQuote records a successful quote.
func (m *ShippingMetrics) ObserveQuote(mode string, distanceKm float64, fee int64) {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.WithLabelValues(QuoteOutcomeOK, normalizeLabel(mode)).Inc()
	m.distance.Observe(distanceKm)
	m.fee.Observe(float64(fee))
}

// IncOutcome records a quote that did not produce a price.
func (m *ShippingMetrics) IncOutcome(outcome, mode string) {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.WithLabelValues(normalizeLabel(outcome), normalizeLabel(mode)).Inc()
}
