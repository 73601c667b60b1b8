// Package metrics holds the prometheus collectors shared by the dusk components.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dusk"

// Rejection reasons.
const (
	ReasonEmpty   = "empty"
	ReasonTooLong = "too_long"
	ReasonClosed  = "closed"
)

// Metrics groups the counters of one dusk instance.
type Metrics struct {
	appended      *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	storageFaults *prometheus.CounterVec
	resonances    *prometheus.CounterVec
	pruned        prometheus.Counter
}

// New creates the collectors and registers them on reg.
// A nil registerer leaves them unregistered, which is handy in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		appended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_appended_total",
			Help:      "Records appended, by collection.",
		}, []string{"collection"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Submissions refused before reaching storage, by reason.",
		}, []string{"reason"}),
		storageFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_faults_total",
			Help:      "Storage reads or writes that failed, by operation.",
		}, []string{"op"}),
		resonances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resonances_total",
			Help:      "Resonances applied, by message origin.",
		}, []string{"origin"}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_pruned_total",
			Help:      "Board messages dropped by the retention horizon.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.appended, m.rejected, m.storageFaults, m.resonances, m.pruned)
	}
	return m
}

func (m *Metrics) Appended(collection string) {
	if m == nil {
		return
	}
	m.appended.WithLabelValues(collection).Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) StorageFault(op string) {
	if m == nil {
		return
	}
	m.storageFaults.WithLabelValues(op).Inc()
}

func (m *Metrics) Resonated(origin string) {
	if m == nil {
		return
	}
	m.resonances.WithLabelValues(origin).Inc()
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pruned.Add(float64(n))
}

// AppendedCounter and the other accessors expose the raw collectors to tests.
func (m *Metrics) AppendedCounter(collection string) prometheus.Counter {
	return m.appended.WithLabelValues(collection)
}

func (m *Metrics) RejectedCounter(reason string) prometheus.Counter {
	return m.rejected.WithLabelValues(reason)
}

func (m *Metrics) StorageFaultCounter(op string) prometheus.Counter {
	return m.storageFaults.WithLabelValues(op)
}

func (m *Metrics) ResonanceCounter(origin string) prometheus.Counter {
	return m.resonances.WithLabelValues(origin)
}

func (m *Metrics) PrunedCounter() prometheus.Counter {
	return m.pruned
}
