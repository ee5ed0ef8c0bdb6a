package service

import (
	"encoding/json"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/pkg/cmap"
)

// DefaultCacheSize is the default number of cached results.
const DefaultCacheSize = 256

// ResultCache caches query results per (network, snapshot, reference,
// query, parameters). Snapshots are immutable, so entries stay valid
// until the snapshot name is re-created, overwritten by a fork, or
// deleted; callers invalidate on those events.
type ResultCache struct {
	entries *cmap.Map[uint64, *cacheEntry]
	maxSize int
}

type cacheEntry struct {
	spec     domain.QuerySpec
	result   *domain.Result
	storedAt int64
}

// NewResultCache creates a cache holding up to maxSize results.
func NewResultCache(maxSize int) *ResultCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &ResultCache{
		entries: cmap.NewWithHasher[uint64, *cacheEntry](cmap.DefaultShardCount, cmap.Uint64Hasher),
		maxSize: maxSize,
	}
}

// Get returns a copy of the cached result for spec.
func (c *ResultCache) Get(spec domain.QuerySpec) (*domain.Result, bool) {
	if c == nil {
		return nil, false
	}
	key, ok := cacheKey(spec)
	if !ok {
		return nil, false
	}
	entry, ok := c.entries.Get(key)
	if !ok || !sameSpec(entry.spec, spec) {
		return nil, false
	}
	return entry.result.Clone(), true
}

// Put stores a copy of result for spec, evicting the oldest entry when full.
func (c *ResultCache) Put(spec domain.QuerySpec, result *domain.Result) {
	if c == nil || result == nil {
		return
	}
	key, ok := cacheKey(spec)
	if !ok {
		return
	}

	if !c.entries.Has(key) && c.entries.Count() >= c.maxSize {
		if oldest, _, found := c.entries.MinBy(func(e *cacheEntry) int64 { return e.storedAt }); found {
			c.entries.Delete(oldest)
		}
	}

	c.entries.Set(key, &cacheEntry{
		spec:     spec,
		result:   result.Clone(),
		storedAt: time.Now().UnixNano(),
	})
}

// InvalidateSnapshot drops every entry that reads snapshot in network,
// as subject or reference. Returns the number of entries dropped.
func (c *ResultCache) InvalidateSnapshot(network, snapshot string) int {
	if c == nil {
		return 0
	}
	return c.entries.DeleteIf(func(_ uint64, e *cacheEntry) bool {
		return e.spec.Network == network &&
			(e.spec.Snapshot == snapshot || e.spec.ReferenceSnapshot == snapshot)
	})
}

// InvalidateNetwork drops every entry of network.
func (c *ResultCache) InvalidateNetwork(network string) int {
	if c == nil {
		return 0
	}
	return c.entries.DeleteIf(func(_ uint64, e *cacheEntry) bool {
		return e.spec.Network == network
	})
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Count()
}

// Clear drops all entries.
func (c *ResultCache) Clear() {
	if c == nil {
		return
	}
	c.entries.Clear()
}

// cacheKey hashes the spec. Parameters are JSON-encoded, which sorts map
// keys, so equal bags hash equally. Unencodable parameters are not cached.
func cacheKey(spec domain.QuerySpec) (uint64, bool) {
	params, err := json.Marshal(spec.Parameters)
	if err != nil {
		return 0, false
	}

	h := murmur3.New64()
	for _, part := range []string{spec.Network, spec.Snapshot, spec.ReferenceSnapshot, spec.Query} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(params)
	return h.Sum64(), true
}

// sameSpec guards against hash collisions.
func sameSpec(a, b domain.QuerySpec) bool {
	if a.Network != b.Network || a.Snapshot != b.Snapshot ||
		a.ReferenceSnapshot != b.ReferenceSnapshot || a.Query != b.Query {
		return false
	}
	pa, errA := json.Marshal(a.Parameters)
	pb, errB := json.Marshal(b.Parameters)
	return errA == nil && errB == nil && string(pa) == string(pb)
}
