package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// Diagnostic records one soft-degraded failure.
type Diagnostic struct {
	ID        string    `json:"id" yaml:"id"`
	Time      time.Time `json:"time" yaml:"time"`
	Operation string    `json:"operation" yaml:"operation"`
	Query     string    `json:"query,omitempty" yaml:"query,omitempty"`
	Network   string    `json:"network,omitempty" yaml:"network,omitempty"`
	Snapshot  string    `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Code      string    `json:"code,omitempty" yaml:"code,omitempty"`
	Error     string    `json:"error" yaml:"error"`
}

// newDiagnostic builds a record for err.
func newDiagnostic(operation, query string, active domain.Context, err error) Diagnostic {
	return Diagnostic{
		ID:        ulid.Make().String(),
		Time:      time.Now().UTC(),
		Operation: operation,
		Query:     query,
		Network:   active.Network,
		Snapshot:  active.Snapshot,
		Code:      domain.GetErrorCode(err),
		Error:     err.Error(),
	}
}

// Recorder is the side channel receiving soft-degraded failures.
type Recorder interface {
	// Record stores one diagnostic.
	Record(ctx context.Context, d Diagnostic) error

	// List returns up to limit diagnostics, newest first (limit <= 0: all).
	List(ctx context.Context, limit int) ([]Diagnostic, error)
}

// DefaultMemoryCapacity bounds the in-memory recorder.
const DefaultMemoryCapacity = 256

// MemoryRecorder keeps the most recent diagnostics in a ring buffer.
type MemoryRecorder struct {
	mu    sync.Mutex
	items []Diagnostic
	next  int
	full  bool
}

// NewMemoryRecorder creates a ring-buffer recorder holding capacity records.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryRecorder{items: make([]Diagnostic, capacity)}
}

// Record implements Recorder.
func (r *MemoryRecorder) Record(_ context.Context, d Diagnostic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = d
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// List implements Recorder.
func (r *MemoryRecorder) List(_ context.Context, limit int) ([]Diagnostic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.items)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Diagnostic, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.next - 1 - i + len(r.items)) % len(r.items)
		out = append(out, r.items[idx])
	}
	return out, nil
}

// Journal is an append-only, time-ordered record log.
type Journal interface {
	AppendWithID(ctx context.Context, id string, v any) error
	Recent(ctx context.Context, limit int, fn func(id string, data []byte) bool) error
}

// JournalRecorder persists diagnostics in a Journal so they survive the
// CLI process that produced them.
type JournalRecorder struct {
	journal Journal
}

// NewJournalRecorder creates a recorder backed by j.
func NewJournalRecorder(j Journal) *JournalRecorder {
	return &JournalRecorder{journal: j}
}

// Record implements Recorder.
func (r *JournalRecorder) Record(ctx context.Context, d Diagnostic) error {
	if d.ID == "" {
		d.ID = ulid.Make().String()
	}
	return r.journal.AppendWithID(ctx, d.ID, d)
}

// List implements Recorder.
func (r *JournalRecorder) List(ctx context.Context, limit int) ([]Diagnostic, error) {
	var (
		out    []Diagnostic
		decErr error
	)
	err := r.journal.Recent(ctx, limit, func(_ string, data []byte) bool {
		var d Diagnostic
		if err := json.Unmarshal(data, &d); err != nil {
			decErr = err
			return false
		}
		out = append(out, d)
		return true
	})
	if err := errors.Join(err, decErr); err != nil {
		return nil, domain.ErrStorageError.WithDetails("read diagnostics").WithCause(err)
	}
	return out, nil
}
