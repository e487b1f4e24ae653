// Package metrics exposes the ledger state as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/material-ledger/internal/model"
)

const namespace = "ledger"

// Status label values. Materials whose token is not recognized are counted
// under "other".
const (
	labelGood    = "good"
	labelBad     = "bad"
	labelDamaged = "damaged"
	labelOther   = "other"
)

// SnapshotSource provides the ledger state on each scrape.
type SnapshotSource interface {
	Snapshot() model.Snapshot
}

// LedgerCollector computes ledger gauges at scrape time, so the values can
// never drift from the ledger.
type LedgerCollector struct {
	source    SnapshotSource
	quantity  *prometheus.Desc
	materials *prometheus.Desc
	total     *prometheus.Desc
	lastID    *prometheus.Desc
}

// NewLedgerCollector creates a collector reading from source.
func NewLedgerCollector(source SnapshotSource) *LedgerCollector {
	return &LedgerCollector{
		source: source,
		quantity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "quantity"),
			"Summed material quantity by status",
			[]string{"status"}, nil,
		),
		materials: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "materials"),
			"Number of material records by status",
			[]string{"status"}, nil,
		),
		total: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "quantity_total"),
			"Summed quantity of all materials",
			nil, nil,
		),
		lastID: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "last_id"),
			"Highest material id ever assigned",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *LedgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.quantity
	ch <- c.materials
	ch <- c.total
	ch <- c.lastID
}

// Collect implements prometheus.Collector.
func (c *LedgerCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.Snapshot()
	summary := model.Summarize(snap.Materials)

	counts := map[string]int{labelGood: 0, labelBad: 0, labelDamaged: 0, labelOther: 0}
	for _, m := range snap.Materials {
		counts[statusLabel(m.Status)]++
	}

	quantities := map[string]int{
		labelGood:    summary.Good,
		labelBad:     summary.Bad,
		labelDamaged: summary.Damaged,
		labelOther:   summary.Total - summary.Good - summary.Bad - summary.Damaged,
	}

	for label, q := range quantities {
		ch <- prometheus.MustNewConstMetric(c.quantity, prometheus.GaugeValue, float64(q), label)
	}
	for label, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.materials, prometheus.GaugeValue, float64(n), label)
	}
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(summary.Total))
	ch <- prometheus.MustNewConstMetric(c.lastID, prometheus.GaugeValue, float64(snap.LastID))
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusGood:
		return labelGood
	case model.StatusBad:
		return labelBad
	case model.StatusDamaged:
		return labelDamaged
	default:
		return labelOther
	}
}
