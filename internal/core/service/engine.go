package service

import (
	"context"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// Engine is the remote verification engine.
//
// Implementations must translate transport failures into
// domain.ErrEngineUnavailable and analysis failures into
// domain.ErrEngineError.
type Engine interface {
	// ListNetworks returns all network names.
	ListNetworks(ctx context.Context) ([]string, error)

	// CreateNetwork creates an empty network.
	CreateNetwork(ctx context.Context, network string) error

	// DeleteNetwork removes a network and its snapshots.
	DeleteNetwork(ctx context.Context, network string) error

	// ListSnapshots returns the snapshot names of a network.
	// May fail with domain.ErrEmptySnapshotList when there are none.
	ListSnapshots(ctx context.Context, network string) ([]string, error)

	// DeleteSnapshot removes one snapshot.
	DeleteSnapshot(ctx context.Context, network, snapshot string) error

	// InitSnapshot uploads a packaged snapshot.
	InitSnapshot(ctx context.Context, network string, in domain.SnapshotInput) error

	// ForkSnapshot derives a snapshot with deactivated elements.
	ForkSnapshot(ctx context.Context, network string, spec domain.ForkSpec) error

	// RunQuery answers a query against a snapshot.
	RunQuery(ctx context.Context, spec domain.QuerySpec) (*domain.Result, error)

	// DescribeQuery returns the long description of a query.
	DescribeQuery(ctx context.Context, name string) (string, error)

	// ListQueries returns the query names the engine exposes.
	ListQueries(ctx context.Context) ([]string, error)

	// GetSnapshotObject returns the text of a snapshot input file.
	GetSnapshotObject(ctx context.Context, network, snapshot, key string) (string, error)
}

// ContextStore persists the active session context between processes.
type ContextStore interface {
	Load(ctx context.Context) (domain.Context, error)
	Save(ctx context.Context, active domain.Context) error
}
