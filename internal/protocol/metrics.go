package protocol

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var detectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gateway_protocol_detect_total",
	Help: "Requests classified by the protocol detector, labeled by protocol",
}, []string{"protocol"})

// Metrics holds the detector's classification counters. It is an explicitly
// owned struct passed by reference to the detector rather than package-level
// state, so tests and multiple gateway instances never share counters. All
// methods are safe for concurrent use.
type Metrics struct {
	ap2     atomic.Int64
	acp     atomic.Int64
	unknown atomic.Int64
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) record(t Type) {
	switch t {
	case AP2:
		m.ap2.Add(1)
	case ACP:
		m.acp.Add(1)
	case Unknown:
		m.unknown.Add(1)
	}
	detectTotal.WithLabelValues(t.String()).Inc()
}

// AP2Count reports how many requests classified as AP2.
func (m *Metrics) AP2Count() int64 { return m.ap2.Load() }

// ACPCount reports how many requests classified as ACP.
func (m *Metrics) ACPCount() int64 { return m.acp.Load() }

// UnknownCount reports how many requests matched no classification signal.
func (m *Metrics) UnknownCount() int64 { return m.unknown.Load() }

// TotalCount reports all classified requests.
func (m *Metrics) TotalCount() int64 {
	return m.ap2.Load() + m.acp.Load() + m.unknown.Load()
}

// AP2Ratio returns the AP2 share of all classifications, 0 when empty.
func (m *Metrics) AP2Ratio() float64 { return ratio(m.ap2.Load(), m.TotalCount()) }

// ACPRatio returns the ACP share of all classifications, 0 when empty.
func (m *Metrics) ACPRatio() float64 { return ratio(m.acp.Load(), m.TotalCount()) }

func ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// Reset zeroes all counters. The prometheus series are cumulative by contract
// and are left untouched.
func (m *Metrics) Reset() {
	m.ap2.Store(0)
	m.acp.Store(0)
	m.unknown.Store(0)
}
