package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/model"
)

// SeedLastID is the counter value after seeding.
const SeedLastID = 15

// SeedMaterials returns the fixed records loaded on first use.
func SeedMaterials() []model.Material {
	return []model.Material{
		{ID: 1, Name: "Stylo", Status: model.StatusGood, Quantity: 50},
		{ID: 2, Name: "Cahiers", Status: model.StatusGood, Quantity: 20},
		{ID: 3, Name: "Crayon", Status: model.StatusDamaged, Quantity: 10},
		{ID: 4, Name: "Ruban adhésif", Status: model.StatusBad, Quantity: 5},
		{ID: 5, Name: "Marqueur", Status: model.StatusGood, Quantity: 15},
		{ID: 6, Name: "Ciseaux", Status: model.StatusDamaged, Quantity: 12},
		{ID: 7, Name: "Trombone", Status: model.StatusGood, Quantity: 30},
		{ID: 8, Name: "Classeur", Status: model.StatusGood, Quantity: 8},
		{ID: 9, Name: "Calculatrice", Status: model.StatusGood, Quantity: 25},
		{ID: 10, Name: "Feutre", Status: model.StatusDamaged, Quantity: 3},
		{ID: 11, Name: "Correcteur", Status: model.StatusGood, Quantity: 18},
		{ID: 12, Name: "Stapler", Status: model.StatusBad, Quantity: 7},
		{ID: 13, Name: "Post-it", Status: model.StatusGood, Quantity: 40},
		{ID: 14, Name: "Élastiques", Status: model.StatusGood, Quantity: 50},
		{ID: 15, Name: "Chemises", Status: model.StatusDamaged, Quantity: 22},
	}
}

// SeedSnapshot returns the ledger state produced by seeding.
func SeedSnapshot() model.Snapshot {
	return model.Snapshot{Materials: SeedMaterials(), LastID: SeedLastID}
}

// Bootstrap restores the ledger from durable storage and seeds it on first
// use. It must run once, before the ledger is served and before any change
// subscriber is attached. It reports whether seeding happened.
//
// The seeded flag is written before the seeded snapshot, so a restart after a
// failed snapshot write keeps the flag and never reseeds over real data.
func Bootstrap(ctx context.Context, l *Ledger, d Durable, logger *zap.Logger) (bool, error) {
	snap, found, err := d.LoadSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("bootstrap ledger: %w", err)
	}
	if found {
		l.Restore(snap)
		logger.Info("ledger restored",
			zap.Int("materials", len(snap.Materials)),
			zap.Int("last_id", snap.LastID),
		)
	}

	seeded, err := d.Seeded(ctx)
	if err != nil {
		return false, fmt.Errorf("bootstrap ledger: %w", err)
	}
	if seeded {
		return false, nil
	}

	seed := SeedSnapshot()
	l.Restore(seed)

	if err := d.MarkSeeded(ctx); err != nil {
		return false, fmt.Errorf("bootstrap ledger: mark seeded: %w", err)
	}

	if err := d.SaveSnapshot(ctx, seed); err != nil {
		return true, fmt.Errorf("bootstrap ledger: persist seed: %w", err)
	}

	logger.Info("ledger seeded with default materials",
		zap.Int("materials", len(seed.Materials)),
		zap.Int("last_id", seed.LastID),
	)

	return true, nil
}
