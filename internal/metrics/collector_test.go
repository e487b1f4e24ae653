package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/material-ledger/internal/model"
	"github.com/vyrodovalexey/material-ledger/internal/store"
)

type staticSource model.Snapshot

func (s staticSource) Snapshot() model.Snapshot {
	return model.Snapshot(s)
}

// gather returns metric values keyed by "name" or "name{status}".
func gather(t *testing.T, source SnapshotSource) map[string]float64 {
	t.Helper()

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewLedgerCollector(source)))

	families, err := registry.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			key := family.GetName()
			for _, label := range metric.GetLabel() {
				key += "{" + label.GetValue() + "}"
			}
			values[key] = metric.GetGauge().GetValue()
		}
	}
	return values
}

func TestLedgerCollector_SeedState(t *testing.T) {
	ledger := store.NewLedger()
	ledger.Restore(store.SeedSnapshot())

	values := gather(t, ledger)

	assert.Equal(t, 315.0, values["ledger_quantity_total"])
	assert.Equal(t, 256.0, values["ledger_quantity{good}"])
	assert.Equal(t, 12.0, values["ledger_quantity{bad}"])
	assert.Equal(t, 47.0, values["ledger_quantity{damaged}"])
	assert.Equal(t, 0.0, values["ledger_quantity{other}"])
	assert.Equal(t, 15.0, values["ledger_last_id"])
	assert.Equal(t, 9.0, values["ledger_materials{good}"])
	assert.Equal(t, 2.0, values["ledger_materials{bad}"])
	assert.Equal(t, 4.0, values["ledger_materials{damaged}"])
}

func TestLedgerCollector_TracksMutations(t *testing.T) {
	ledger := store.NewLedger()
	ledger.Restore(store.SeedSnapshot())

	ledger.Delete(1)
	ledger.Create(model.NewMaterialInput("Craies", model.Status("cassé"), 6))
	values := gather(t, ledger)

	assert.Equal(t, 271.0, values["ledger_quantity_total"])
	assert.Equal(t, 206.0, values["ledger_quantity{good}"])
	assert.Equal(t, 6.0, values["ledger_quantity{other}"])
	assert.Equal(t, 1.0, values["ledger_materials{other}"])
	assert.Equal(t, 16.0, values["ledger_last_id"])
}

func TestLedgerCollector_Empty(t *testing.T) {
	values := gather(t, staticSource(model.Snapshot{}))

	assert.Equal(t, 0.0, values["ledger_quantity_total"])
	assert.Equal(t, 0.0, values["ledger_last_id"])
	assert.Len(t, values, 10)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "good", statusLabel(model.StatusGood))
	assert.Equal(t, "bad", statusLabel(model.StatusBad))
	assert.Equal(t, "damaged", statusLabel(model.StatusDamaged))
	assert.Equal(t, "other", statusLabel("GOOD"))
}
