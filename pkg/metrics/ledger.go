package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records stock ledger and fulfillment activity.
type LedgerMetrics struct {
	movementsApplied *prometheus.CounterVec
	applyDuration    *prometheus.HistogramVec
	stockRefusals    prometheus.Counter
	orderTransitions *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
// A nil registerer returns a no-op instance, which keeps tests and workers
// that do not export metrics free of registration plumbing.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	movementsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_applied_total",
		Help: "Stock movements committed to the ledger, by movement type.",
	}, []string{"type"})
	applyDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_movement_apply_seconds",
		Help:    "Duration of movement apply transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	stockRefusals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_insufficient_refusals_total",
		Help: "Movement batches refused because stock would have gone negative.",
	})
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Customer order status transitions, by from and to status.",
	}, []string{"from", "to"})
	reg.MustRegister(movementsApplied, applyDuration, stockRefusals, orderTransitions)
	return &LedgerMetrics{
		movementsApplied: movementsApplied,
		applyDuration:    applyDuration,
		stockRefusals:    stockRefusals,
		orderTransitions: orderTransitions,
	}
}

// IncMovementApplied counts a committed movement of the given type.
func (m *LedgerMetrics) IncMovementApplied(movementType string) {
	if m == nil || m.movementsApplied == nil {
		return
	}
	m.movementsApplied.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// ObserveApplyDuration records how long a movement apply transaction took.
func (m *LedgerMetrics) ObserveApplyDuration(movementType string, d time.Duration) {
	if m == nil || m.applyDuration == nil {
		return
	}
	m.applyDuration.WithLabelValues(normalizeLabel(movementType)).Observe(d.Seconds())
}

// IncStockRefusal counts a batch rejected for insufficient stock.
func (m *LedgerMetrics) IncStockRefusal() {
	if m == nil || m.stockRefusals == nil {
		return
	}
	m.stockRefusals.Inc()
}

// IncOrderTransition counts a committed order status transition.
func (m *LedgerMetrics) IncOrderTransition(from, to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
