package store

import (
	"sync"

	"github.com/vyrodovalexey/material-ledger/internal/model"
)

// Ledger holds the material records and the id counter.
// It is safe for concurrent use.
type Ledger struct {
	mu          sync.RWMutex
	materials   []model.Material
	lastID      int
	subscribers map[int]ChangeFunc
	nextSubID   int
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		materials:   make([]model.Material, 0),
		subscribers: make(map[int]ChangeFunc),
	}
}

// List returns a copy of all materials in insertion order.
func (l *Ledger) List() []model.Material {
	l.mu.RLock()
	defer l.mu.RUnlock()

	materials := make([]model.Material, len(l.materials))
	copy(materials, l.materials)
	return materials
}

// LastID returns the highest id ever issued.
func (l *Ledger) LastID() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastID
}

// TotalCount returns the sum of quantity over all materials.
func (l *Ledger) TotalCount() int {
	return l.Summary().Total
}

// GoodCount returns the quantity of materials in good condition.
func (l *Ledger) GoodCount() int {
	return l.Summary().Good
}

// BadCount returns the quantity of materials in bad condition.
func (l *Ledger) BadCount() int {
	return l.Summary().Bad
}

// DamagedCount returns the quantity of damaged materials.
func (l *Ledger) DamagedCount() int {
	return l.Summary().Damaged
}

// Summary computes all quantity aggregates from a single read of the state.
func (l *Ledger) Summary() model.Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return model.Summarize(l.materials)
}

// Get retrieves a material by its ID.
func (l *Ledger) Get(id int) (model.Material, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if idx := l.findIndex(id); idx >= 0 {
		return l.materials[idx], true
	}
	return model.Material{}, false
}

// FindIndex returns the position of the material with the given id, or -1.
func (l *Ledger) FindIndex(id int) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.findIndex(id)
}

func (l *Ledger) findIndex(id int) int {
	for i := range l.materials {
		if l.materials[i].ID == id {
			return i
		}
	}
	return -1
}

// Create appends a material built from the present fields of in.
// The id is always assigned from the counter; absent fields keep their
// zero value.
func (l *Ledger) Create(in model.MaterialInput) model.Material {
	l.mu.Lock()
	defer l.mu.Unlock()

	var material model.Material
	in.ApplyTo(&material)

	l.lastID++
	material.ID = l.lastID
	l.materials = append(l.materials, material)

	l.notify()
	return material
}

// Update overwrites the present fields of in onto the material with the
// given id. It is a no-op when the id is unknown.
func (l *Ledger) Update(id int, in model.MaterialInput) (model.Material, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findIndex(id)
	if idx < 0 {
		return model.Material{}, false
	}

	in.ApplyTo(&l.materials[idx])

	l.notify()
	return l.materials[idx], true
}

// Delete removes the material with the given id, keeping the order of the
// remaining entries. It is a no-op when the id is unknown.
func (l *Ledger) Delete(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findIndex(id)
	if idx < 0 {
		return false
	}

	l.materials = append(l.materials[:idx], l.materials[idx+1:]...)

	l.notify()
	return true
}

// Snapshot returns a copy of the ledger state.
func (l *Ledger) Snapshot() model.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

func (l *Ledger) snapshot() model.Snapshot {
	return model.Snapshot{Materials: l.materials, LastID: l.lastID}.Clone()
}

// Restore replaces the ledger state verbatim. Subscribers are not notified.
func (l *Ledger) Restore(snap model.Snapshot) {
	restored := snap.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.materials = restored.Materials
	l.lastID = restored.LastID
}

// Subscribe registers fn to receive the state after every mutation and
// returns a function that removes it. fn runs under the ledger write lock,
// in mutation order, and must not call back into the Ledger.
func (l *Ledger) Subscribe(fn ChangeFunc) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

// Watch is Subscribe with a replay: initial receives the current state under
// the same lock that registers changed, so a watcher sees no gap and no
// change twice.
func (l *Ledger) Watch(initial, changed ChangeFunc) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	initial(l.snapshot())

	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = changed

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

// notify must be called with the write lock held.
func (l *Ledger) notify() {
	if len(l.subscribers) == 0 {
		return
	}

	snap := l.snapshot()
	for _, fn := range l.subscribers {
		fn(snap.Clone())
	}
}
