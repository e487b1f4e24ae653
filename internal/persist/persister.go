package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/model"
	"github.com/vyrodovalexey/material-ledger/internal/store"
)

// Persisted keys and the flag value.
const (
	FlagKey   = "hasBeenUsed"
	StateKey  = "material"
	FlagValue = "true"
)

// DefaultWriteTimeout bounds a single snapshot write made by Subscriber.
const DefaultWriteTimeout = 5 * time.Second

// Persister maps the ledger state and the seeded flag onto a KV.
type Persister struct {
	kv     KV
	prefix string
}

// NewPersister creates a Persister. prefix is prepended to both keys.
func NewPersister(kv KV, prefix string) *Persister {
	return &Persister{kv: kv, prefix: prefix}
}

func (p *Persister) flagKey() string  { return p.prefix + FlagKey }
func (p *Persister) stateKey() string { return p.prefix + StateKey }

// LoadSnapshot reads the persisted ledger state. found is false when no
// snapshot has been written yet.
func (p *Persister) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	raw, err := p.kv.Get(ctx, p.stateKey())
	if errors.Is(err, ErrKeyNotFound) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Materials == nil {
		snap.Materials = []model.Material{}
	}

	return snap, true, nil
}

// SaveSnapshot replaces the persisted ledger state.
func (p *Persister) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if snap.Materials == nil {
		snap.Materials = []model.Material{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := p.kv.Set(ctx, p.stateKey(), string(data)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Seeded reports whether the flag holds exactly "true".
func (p *Persister) Seeded(ctx context.Context) (bool, error) {
	value, err := p.kv.Get(ctx, p.flagKey())
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read seeded flag: %w", err)
	}
	return value == FlagValue, nil
}

// MarkSeeded sets the flag.
func (p *Persister) MarkSeeded(ctx context.Context) error {
	if err := p.kv.Set(ctx, p.flagKey(), FlagValue); err != nil {
		return fmt.Errorf("write seeded flag: %w", err)
	}
	return nil
}

// Reset erases the flag so the next start seeds again. The snapshot is kept.
func (p *Persister) Reset(ctx context.Context) error {
	if err := p.kv.Delete(ctx, p.flagKey()); err != nil {
		return fmt.Errorf("reset seeded flag: %w", err)
	}
	return nil
}

// Subscriber returns a ledger change function that writes every new state to
// p. Write failures are logged: the mutation already happened in memory.
// The write runs under the ledger write lock, so a slow backend blocks every
// ledger reader and writer for up to DefaultWriteTimeout per mutation.
func Subscriber(p *Persister, logger *zap.Logger) store.ChangeFunc {
	return func(snap model.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultWriteTimeout)
		defer cancel()

		if err := p.SaveSnapshot(ctx, snap); err != nil {
			logger.Error("failed to persist ledger snapshot",
				zap.Int("last_id", snap.LastID),
				zap.Error(err),
			)
			return
		}

		logger.Debug("ledger snapshot persisted",
			zap.Int("materials", len(snap.Materials)),
			zap.Int("last_id", snap.LastID),
		)
	}
}
