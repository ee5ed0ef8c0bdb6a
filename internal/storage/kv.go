package storage

import (
	"context"
	"time"
)

// Store defines the embedded key-value store used for local state.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// SetWithTTL stores a key-value pair that expires after ttl.
	// A non-positive ttl never expires.
	SetWithTTL(ctx context.Context, key, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, opts ScanOptions, fn func(key, value []byte) bool) error

	// GC reclaims value log space. Returns bytes reclaimed (approximate).
	GC(ctx context.Context) (uint64, error)

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the store.
	Close() error
}

// ScanOptions controls iteration order.
type ScanOptions struct {
	// Reverse iterates from the largest key down.
	Reverse bool
}

// Stats contains storage statistics.
type Stats struct {
	// LSMSize is the LSM tree size in bytes.
	LSMSize uint64

	// ValueLogSize is the value log size in bytes.
	ValueLogSize uint64

	// TotalSize is LSM plus value log size.
	TotalSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64
}

// Config configures the Badger store.
type Config struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory (tests, ephemeral sessions).
	InMemory bool

	// GCThreshold is the value log discard ratio (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 8MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 16MB
	ValueLogFileSize int64

	// SyncWrites enables fsync after each write.
	SyncWrites bool
}

// DefaultConfig returns the default configuration for dir.
// The CLI store is small, so caches and value logs are sized down.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		GCThreshold:      0.5,
		CacheSize:        8 << 20,  // 8MB
		ValueLogFileSize: 16 << 20, // 16MB
		SyncWrites:       true,
	}
}

// InMemoryConfig returns a configuration for an in-memory store.
func InMemoryConfig() Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	cfg.SyncWrites = false
	return cfg
}
