package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// Key layout of the local state.
var (
	keyActiveContext = []byte("ctx/active")
	prefixJournal    = []byte("diag/")
)

// SessionContext is the persisted active network/snapshot pair.
type SessionContext struct {
	Network   string    `json:"network"`
	Snapshot  string    `json:"snapshot"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContextStore persists the active session context.
type ContextStore struct {
	store Store
}

// NewContextStore creates a context store on top of s.
func NewContextStore(s Store) *ContextStore {
	return &ContextStore{store: s}
}

// Load returns the persisted context. A missing context is not an error.
func (c *ContextStore) Load(ctx context.Context) (domain.Context, error) {
	sc, err := c.LoadRecord(ctx)
	if err != nil {
		return domain.Context{}, err
	}
	return domain.Context{Network: sc.Network, Snapshot: sc.Snapshot}, nil
}

// LoadRecord returns the persisted context with its update time.
func (c *ContextStore) LoadRecord(ctx context.Context) (SessionContext, error) {
	data, err := c.store.Get(ctx, keyActiveContext)
	if errors.Is(err, ErrKeyNotFound) {
		return SessionContext{}, nil
	}
	if err != nil {
		return SessionContext{}, domain.ErrStorageError.WithDetails("load context").WithCause(err)
	}

	var sc SessionContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return SessionContext{}, domain.ErrStorageError.WithDetails("decode context").WithCause(err)
	}
	return sc, nil
}

// Save persists the context. An empty network clears it.
func (c *ContextStore) Save(ctx context.Context, active domain.Context) error {
	network, snapshot := active.Network, active.Snapshot
	if network == "" {
		if err := c.store.Delete(ctx, keyActiveContext); err != nil {
			return domain.ErrStorageError.WithDetails("clear context").WithCause(err)
		}
		return nil
	}

	data, err := json.Marshal(SessionContext{
		Network:   network,
		Snapshot:  snapshot,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.ErrStorageError.WithDetails("encode context").WithCause(err)
	}
	if err := c.store.Set(ctx, keyActiveContext, data); err != nil {
		return domain.ErrStorageError.WithDetails("save context").WithCause(err)
	}
	return nil
}

// Journal is an append-only, time-ordered log of JSON records with
// per-entry expiry. Keys are ULIDs, so key order is time order.
type Journal struct {
	store     Store
	retention time.Duration
}

// NewJournal creates a journal on top of s. Entries expire after
// retention; zero keeps them forever.
func NewJournal(s Store, retention time.Duration) *Journal {
	return &Journal{store: s, retention: retention}
}

// Append encodes v as JSON and appends it. Returns the entry ID.
func (j *Journal) Append(ctx context.Context, v any) (string, error) {
	id := ulid.Make().String()
	return id, j.AppendWithID(ctx, id, v)
}

// AppendWithID appends v under a caller-provided ULID.
func (j *Journal) AppendWithID(ctx context.Context, id string, v any) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("journal id %q: %w", id, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	key := append(append([]byte(nil), prefixJournal...), id...)
	if err := j.store.SetWithTTL(ctx, key, data, j.retention); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent calls fn with the newest entries first, up to limit
// (limit <= 0 means all). fn returns false to stop.
func (j *Journal) Recent(ctx context.Context, limit int, fn func(id string, data []byte) bool) error {
	n := 0
	return j.store.Scan(ctx, prefixJournal, ScanOptions{Reverse: true}, func(key, value []byte) bool {
		if limit > 0 && n >= limit {
			return false
		}
		n++
		return fn(string(key[len(prefixJournal):]), value)
	})
}

// Clear removes all journal entries and returns how many were removed.
func (j *Journal) Clear(ctx context.Context) (int, error) {
	var keys [][]byte
	err := j.store.Scan(ctx, prefixJournal, ScanOptions{}, func(key, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		if err := j.store.Delete(ctx, key); err != nil {
			return 0, fmt.Errorf("clear journal: %w", err)
		}
	}
	return len(keys), nil
}
