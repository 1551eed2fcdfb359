package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/creamcroissant/ordersync/internal/repository"
)

// SyncMetrics counts status writes and legacy mirror outcomes. A nil
// *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	writes         *prometheus.CounterVec
	mirrored       prometheus.Counter
	mirrorFailures prometheus.Counter
	corruptReads   prometheus.Counter
}

// NewSyncMetrics registers the collectors on reg (prometheus.DefaultRegisterer when nil).
func NewSyncMetrics(reg prometheus.Registerer, namespace string) *SyncMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "ordersync"
	}
	factory := promauto.With(reg)
	return &SyncMetrics{
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "status_writes_total",
			Help:      "Synced order status writes by status key and outcome.",
		}, []string{"status", "outcome"}),
		mirrored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "legacy_records_mirrored_total",
			Help:      "Legacy order records patched by status mirroring.",
		}),
		mirrorFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "legacy_mirror_failures_total",
			Help:      "Legacy mirror attempts that failed and were swallowed.",
		}),
		corruptReads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "corrupt_reads_total",
			Help:      "Reads of the synced status map that were treated as empty.",
		}),
	}
}

func (m *SyncMetrics) write(key repository.StatusKey, err error) {
	if m == nil {
		return
	}
	label := string(key)
	if !IsKnownStatus(key) {
		label = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.writes.WithLabelValues(label, outcome).Inc()
}

func (m *SyncMetrics) mirror(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.mirrorFailures.Inc()
		return
	}
	m.mirrored.Add(float64(n))
}

func (m *SyncMetrics) corrupt() {
	if m == nil {
		return
	}
	m.corruptReads.Inc()
}
