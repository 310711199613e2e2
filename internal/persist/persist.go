// Package persist applies normalized records to a document store with
// find-by-model, diff, then insert-or-patch semantics. Re-running a crawl
// over unchanged pages writes nothing.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sailscout/sailscout/internal/vessel"
)

// ErrNotFound is returned by stores when no document matches the model.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the storage contract for vessel records.
type DocumentStore interface {
	// FindByModel returns the stored record whose model matches, or
	// ErrNotFound. Matching is case-insensitive on the trimmed model.
	FindByModel(ctx context.Context, model string) (string, *vessel.Record, error)
	// Insert stores a new record and returns its id.
	Insert(ctx context.Context, rec *vessel.Record) (string, error)
	// UpdateFields patches the stored document: set merges field values,
	// unset removes fields entirely.
	UpdateFields(ctx context.Context, id string, set map[string]any, unset []string) error
}

// Outcome classifies what an upsert did.
type Outcome string

// Upsert outcomes.
const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Upserter serializes writes per model key so two pages describing the same
// vessel cannot interleave their read-diff-write cycles.
type Upserter struct {
	store DocumentStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an Upserter on top of a DocumentStore.
func New(store DocumentStore) *Upserter {
	return &Upserter{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Upsert writes rec to the store. A record with no stored counterpart is
// inserted; otherwise only the fields that differ are patched, and an empty
// diff performs no write at all.
func (u *Upserter) Upsert(ctx context.Context, rec *vessel.Record) (Outcome, error) {
	if rec == nil {
		return "", fmt.Errorf("upsert: nil record")
	}
	if rec.Key() == "" {
		return "", fmt.Errorf("upsert: record has no model")
	}

	lock := u.keyLock(rec.Key())
	lock.Lock()
	defer lock.Unlock()

	id, stored, err := u.store.FindByModel(ctx, rec.Model)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if _, err := u.store.Insert(ctx, rec); err != nil {
				return "", fmt.Errorf("insert %q: %w", rec.Model, err)
			}
			return OutcomeCreated, nil
		}
		return "", fmt.Errorf("find %q: %w", rec.Model, err)
	}

	set, unset := vessel.Diff(stored, rec)
	if len(set) == 0 && len(unset) == 0 {
		return OutcomeUnchanged, nil
	}
	if err := u.store.UpdateFields(ctx, id, set, unset); err != nil {
		return "", fmt.Errorf("update %q: %w", rec.Model, err)
	}
	return OutcomeUpdated, nil
}

func (u *Upserter) keyLock(key string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	lock, ok := u.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		u.locks[key] = lock
	}
	return lock
}
