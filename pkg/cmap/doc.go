// Package cmap provides a concurrent map sharded by key hash.
//
// Each shard has its own RWMutex. Keys are spread across shards by a
// hash function: maphash over the key's string form by default, or a
// caller-supplied Hasher for keys that already are hashes.
//
// Usage:
//
//	m := cmap.NewWithHasher[uint64, *entry](16, cmap.Uint64Hasher)
//	m.Set(key, e)
//	val, ok := m.Get(key)
//
// Iteration locks one shard at a time, so it does not observe a single
// consistent view of the map.
package cmap
