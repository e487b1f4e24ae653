// Package store provides the material ledger and its startup seeding.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/material-ledger/internal/model"
)

// Store errors.
var (
	ErrNotFound  = errors.New("material not found")
	ErrInvalidID = errors.New("invalid material ID")
)

// Store defines the ledger operations consumed by the HTTP layer.
// Lookups and mutators on a missing id are silent: they report
// false instead of failing.
type Store interface {
	// List returns all materials in insertion order.
	List() []model.Material

	// Get retrieves a material by its ID.
	Get(id int) (model.Material, bool)

	// Create appends a new material and returns it with its assigned ID.
	Create(in model.MaterialInput) model.Material

	// Update overwrites the present fields of in onto the material.
	Update(id int, in model.MaterialInput) (model.Material, bool)

	// Delete removes a material by its ID.
	Delete(id int) bool

	// Summary returns the quantity aggregates.
	Summary() model.Summary

	// Snapshot returns a copy of the full ledger state.
	Snapshot() model.Snapshot
}

// Watcher streams ledger states: the current one first, then one per
// mutation.
type Watcher interface {
	Watch(initial, changed ChangeFunc) (cancel func())
}

// Durable is the persistent side of the ledger: a state snapshot and the
// flag recording that seeding already happened.
type Durable interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	Seeded(ctx context.Context) (bool, error)
	MarkSeeded(ctx context.Context) error
}

// ChangeFunc receives the ledger state after every mutation.
type ChangeFunc func(snap model.Snapshot)
