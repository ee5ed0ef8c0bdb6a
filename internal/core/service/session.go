package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/engine"
)

// SessionService owns the active (network, snapshot) context of one
// client instance and forwards network/snapshot lifecycle operations to
// the engine.
//
// The context is captured atomically at call time by readers; a context
// switch never affects a call already in flight.
type SessionService struct {
	engine Engine
	store  ContextStore
	cache  *ResultCache
	logger *slog.Logger

	mu     sync.RWMutex
	active domain.Context
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithContextStore persists context changes to store.
func WithContextStore(store ContextStore) SessionOption {
	return func(s *SessionService) {
		s.store = store
	}
}

// WithSessionCache invalidates cache entries on snapshot lifecycle events.
func WithSessionCache(cache *ResultCache) SessionOption {
	return func(s *SessionService) {
		s.cache = cache
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *SessionService) {
		s.logger = logger
	}
}

// NewSessionService creates a session with no active context.
func NewSessionService(eng Engine, opts ...SessionOption) *SessionService {
	s := &SessionService{
		engine: eng,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// Context
// ============================================================================

// Restore loads the persisted context, if a store is configured.
// The restored names are not re-verified against the engine.
func (s *SessionService) Restore(ctx context.Context) (domain.Context, error) {
	if s.store == nil {
		return s.Context(), nil
	}
	active, err := s.store.Load(ctx)
	if err != nil {
		return domain.Context{}, err
	}

	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
	return active, nil
}

// Seed sets the active context when none is active, without verifying
// or persisting it. The CLI seeds session.network/session.snapshot from
// its configuration this way. It reports whether the seed was applied.
func (s *SessionService) Seed(active domain.Context) bool {
	if !active.HasNetwork() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.HasNetwork() {
		return false
	}
	s.active = active
	return true
}

// Reset clears the active context and persists the empty context.
func (s *SessionService) Reset(ctx context.Context) error {
	return s.setContext(ctx, domain.Context{})
}

// Context returns the active context.
func (s *SessionService) Context() domain.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// CurrentNetwork returns the active network name, or "".
func (s *SessionService) CurrentNetwork() string {
	return s.Context().Network
}

// CurrentSnapshot returns the active snapshot name, or "".
func (s *SessionService) CurrentSnapshot() string {
	return s.Context().Snapshot
}

// SelectNetwork makes name the active network and clears the active
// snapshot. The network must exist.
func (s *SessionService) SelectNetwork(ctx context.Context, name string) error {
	if name == "" {
		return domain.ErrMissingArgument.WithDetails("network name is required")
	}

	networks, err := s.engine.ListNetworks(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(networks, name) {
		return domain.ErrNetworkNotFound.WithDetails(name)
	}

	return s.setContext(ctx, domain.Context{Network: name})
}

// SelectSnapshot makes name the active snapshot of the active network.
// The snapshot must exist.
func (s *SessionService) SelectSnapshot(ctx context.Context, name string) error {
	if name == "" {
		return domain.ErrMissingArgument.WithDetails("snapshot name is required")
	}

	active := s.Context()
	if !active.HasNetwork() {
		return domain.ErrNoActiveNetwork
	}

	snapshots, err := s.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(snapshots, name) {
		return domain.ErrSnapshotNotFound.WithDetails(active.Network + "/" + name)
	}

	return s.setContext(ctx, active.WithSnapshot(name))
}

// setContext swaps the active context and persists it.
func (s *SessionService) setContext(ctx context.Context, next domain.Context) error {
	s.mu.Lock()
	s.active = next
	s.mu.Unlock()

	s.logger.Debug("session context changed", "network", next.Network, "snapshot", next.Snapshot)

	if s.store != nil {
		if err := s.store.Save(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

// clearIf resets the parts of the active context that match the deleted
// resource. An empty snapshot clears the whole context when the network
// matches.
func (s *SessionService) clearIf(ctx context.Context, network, snapshot string) error {
	s.mu.Lock()
	active := s.active
	switch {
	case active.Network != network:
		s.mu.Unlock()
		return nil
	case snapshot == "":
		s.active = domain.Context{}
	case active.Snapshot == snapshot:
		s.active = active.WithSnapshot("")
	default:
		s.mu.Unlock()
		return nil
	}
	next := s.active
	s.mu.Unlock()

	s.logger.Info("active context cleared", "network", network, "snapshot", snapshot)

	if s.store != nil {
		return s.store.Save(ctx, next)
	}
	return nil
}

// ============================================================================
// Networks
// ============================================================================

// ListNetworks returns the names of all networks on the engine.
func (s *SessionService) ListNetworks(ctx context.Context) ([]string, error) {
	networks, err := s.engine.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}
	if networks == nil {
		networks = []string{}
	}
	return networks, nil
}

// CreateNetwork creates an empty network. The active context is unchanged.
func (s *SessionService) CreateNetwork(ctx context.Context, name string) error {
	if name == "" {
		return domain.ErrMissingArgument.WithDetails("network name is required")
	}
	return s.engine.CreateNetwork(ctx, name)
}

// DeleteNetwork deletes a network. If it is the active network, the
// active context is cleared.
func (s *SessionService) DeleteNetwork(ctx context.Context, name string) error {
	if name == "" {
		return domain.ErrMissingArgument.WithDetails("network name is required")
	}
	if err := s.engine.DeleteNetwork(ctx, name); err != nil {
		return err
	}
	s.cache.InvalidateNetwork(name)
	return s.clearIf(ctx, name, "")
}

// ============================================================================
// Snapshots
// ============================================================================

// ListSnapshots returns the snapshots of the active network. A network
// with no snapshots yields an empty slice, not an error.
func (s *SessionService) ListSnapshots(ctx context.Context) ([]string, error) {
	active := s.Context()
	if !active.HasNetwork() {
		return nil, domain.ErrNoActiveNetwork
	}
	return s.ListSnapshotsOf(ctx, active.Network)
}

// ListSnapshotsOf returns the snapshots of network.
func (s *SessionService) ListSnapshotsOf(ctx context.Context, network string) ([]string, error) {
	snapshots, err := s.engine.ListSnapshots(ctx, network)
	if errors.Is(err, domain.ErrEmptySnapshotList) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if snapshots == nil {
		snapshots = []string{}
	}
	return snapshots, nil
}

// DeleteSnapshot deletes a snapshot. If it is the active snapshot, the
// active snapshot is cleared; the active network stays selected.
func (s *SessionService) DeleteSnapshot(ctx context.Context, network, name string) error {
	if network == "" {
		return domain.ErrMissingArgument.WithDetails("network name is required")
	}
	if name == "" {
		return domain.ErrMissingArgument.WithDetails("snapshot name is required")
	}
	if err := s.engine.DeleteSnapshot(ctx, network, name); err != nil {
		return err
	}
	s.cache.InvalidateSnapshot(network, name)
	return s.clearIf(ctx, network, name)
}

// InitSnapshot uploads a packaged snapshot into the active network and
// makes it the active snapshot.
func (s *SessionService) InitSnapshot(ctx context.Context, in domain.SnapshotInput) error {
	// 1. Validate input and context
	if err := in.Validate(); err != nil {
		return err
	}
	active := s.Context()
	if !active.HasNetwork() {
		return domain.ErrNoActiveNetwork
	}

	// 2. Refuse to clobber an existing snapshot before uploading anything
	if !in.Overwrite {
		existing, err := s.ListSnapshotsOf(ctx, active.Network)
		if err != nil && !errors.Is(err, domain.ErrNetworkNotFound) {
			return err
		}
		if slices.Contains(existing, in.Name) {
			return domain.ErrSnapshotExists.WithDetails(active.Network + "/" + in.Name)
		}
	}

	// 3. Upload
	if err := s.engine.InitSnapshot(ctx, active.Network, in); err != nil {
		return err
	}
	s.cache.InvalidateSnapshot(active.Network, in.Name)

	s.logger.Info("snapshot initialized",
		"network", active.Network,
		"snapshot", in.Name,
		"bytes", len(in.Archive),
	)

	// 4. Activate
	return s.setContext(ctx, active.WithSnapshot(in.Name))
}

// InitSnapshotFromDir packages dir and initializes it as snapshot name.
func (s *SessionService) InitSnapshotFromDir(ctx context.Context, dir, name string, overwrite bool) error {
	if name == "" {
		return domain.ErrMissingArgument.WithDetails("snapshot name is required")
	}
	archive, err := engine.ArchiveDir(dir, name)
	if err != nil {
		return err
	}
	return s.InitSnapshot(ctx, domain.SnapshotInput{Name: name, Archive: archive, Overwrite: overwrite})
}

// InitSnapshotFromText initializes snapshot name from a single device
// configuration. platform may be empty to let the engine infer it.
func (s *SessionService) InitSnapshotFromText(ctx context.Context, text, platform, name string, overwrite bool) error {
	if name == "" {
		return domain.ErrMissingArgument.WithDetails("snapshot name is required")
	}
	if strings.TrimSpace(text) == "" {
		return domain.ErrMissingArgument.WithDetails("configuration text is empty")
	}
	archive, err := engine.ArchiveText(text, platform, name, "")
	if err != nil {
		return err
	}
	return s.InitSnapshot(ctx, domain.SnapshotInput{Name: name, Archive: archive, Overwrite: overwrite})
}

// SnapshotConfig returns the raw text of an input file of snapshot in the
// active network. A bare file name is looked up under configs/. An empty
// snapshot means the active one.
func (s *SessionService) SnapshotConfig(ctx context.Context, file, snapshot string) (string, error) {
	if file == "" {
		return "", domain.ErrMissingArgument.WithDetails("file name is required")
	}
	active := s.Context()
	if snapshot != "" {
		active = active.WithSnapshot(snapshot)
	}
	if err := active.Validate(); err != nil {
		return "", err
	}

	key := file
	if !strings.Contains(file, "/") {
		key = "configs/" + file
	}
	return s.engine.GetSnapshotObject(ctx, active.Network, active.Snapshot, key)
}
