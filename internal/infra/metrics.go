package infra

import (
	"sync/atomic"
	"time"

	"stock_ledger/internal/domain"
)

// Metrics provides lightweight order and quote counters.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Orders
	ordersSubmitted atomic.Uint64
	ordersFilled    atomic.Uint64

	rejectedInvalid            atomic.Uint64
	rejectedUnknownSymbol      atomic.Uint64
	rejectedInsufficientFunds  atomic.Uint64
	rejectedInsufficientShares atomic.Uint64
	rejectedNotFound           atomic.Uint64
	failedStore                atomic.Uint64
	failedQuote                atomic.Uint64
	failedOther                atomic.Uint64

	// Quote source
	quoteLookups  atomic.Uint64
	quoteFailures atomic.Uint64

	// Order latency
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordOrder records one submitted order, its outcome and latency.
func (m *Metrics) RecordOrder(latency time.Duration, err error) {
	if m == nil {
		return
	}
	m.ordersSubmitted.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)

	switch domain.KindOf(err) {
	case "":
		m.ordersFilled.Add(1)
	case domain.KindInvalidOrder:
		m.rejectedInvalid.Add(1)
	case domain.KindUnknownSymbol:
		m.rejectedUnknownSymbol.Add(1)
	case domain.KindInsufficientFunds:
		m.rejectedInsufficientFunds.Add(1)
	case domain.KindInsufficientShares:
		m.rejectedInsufficientShares.Add(1)
	case domain.KindNotFound:
		m.rejectedNotFound.Add(1)
	case domain.KindStoreUnavailable:
		m.failedStore.Add(1)
	case domain.KindQuoteUnavailable:
		m.failedQuote.Add(1)
	default:
		m.failedOther.Add(1)
	}
}

// RecordQuote records one quote lookup. Unknown symbols are not failures.
func (m *Metrics) RecordQuote(err error) {
	if m == nil {
		return
	}
	m.quoteLookups.Add(1)
	if err != nil && domain.KindOf(err) != domain.KindUnknownSymbol {
		m.quoteFailures.Add(1)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	OrdersSubmitted uint64            `json:"orders_submitted"`
	OrdersFilled    uint64            `json:"orders_filled"`
	OrdersRejected  map[string]uint64 `json:"orders_rejected"`
	QuoteLookups    uint64            `json:"quote_lookups"`
	QuoteFailures   uint64            `json:"quote_failures"`
	AvgLatencyNs    int64             `json:"avg_latency_ns"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		OrdersSubmitted: m.ordersSubmitted.Load(),
		OrdersFilled:    m.ordersFilled.Load(),
		OrdersRejected: map[string]uint64{
			domain.KindInvalidOrder:       m.rejectedInvalid.Load(),
			domain.KindUnknownSymbol:      m.rejectedUnknownSymbol.Load(),
			domain.KindInsufficientFunds:  m.rejectedInsufficientFunds.Load(),
			domain.KindInsufficientShares: m.rejectedInsufficientShares.Load(),
			domain.KindNotFound:           m.rejectedNotFound.Load(),
			domain.KindStoreUnavailable:   m.failedStore.Load(),
			domain.KindQuoteUnavailable:   m.failedQuote.Load(),
			domain.KindInternal:           m.failedOther.Load(),
		},
		QuoteLookups:  m.quoteLookups.Load(),
		QuoteFailures: m.quoteFailures.Load(),
		AvgLatencyNs:  avgLatency,
		Timestamp:     time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ordersSubmitted.Store(0)
	m.ordersFilled.Store(0)
	m.rejectedInvalid.Store(0)
	m.rejectedUnknownSymbol.Store(0)
	m.rejectedInsufficientFunds.Store(0)
	m.rejectedInsufficientShares.Store(0)
	m.rejectedNotFound.Store(0)
	m.failedStore.Store(0)
	m.failedQuote.Store(0)
	m.failedOther.Store(0)
	m.quoteLookups.Store(0)
	m.quoteFailures.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
}
