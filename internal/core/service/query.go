package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/telemetry/logger"
	"github.com/yndnr/netverify-go/internal/telemetry/metric"
)

// DescriptionPlaceholderPrefix starts the text Describe returns when the
// engine cannot describe a query.
const DescriptionPlaceholderPrefix = "Description unavailable for query: "

// ContextSource provides the active session context.
type ContextSource interface {
	Context() domain.Context
}

// QueryExecutor validates, dispatches and soft-degrades queries.
//
// Hard failures (returned as errors): invalid or unknown query names,
// invalid parameters, missing context, and not-found targets.
// Soft failures (empty result plus a diagnostic): engine unavailable and
// engine analysis errors.
type QueryExecutor struct {
	engine   Engine
	session  ContextSource
	cache    *ResultCache
	recorder Recorder
	metrics  *metric.Registry
	logger   *slog.Logger
}

// ExecutorOption configures a QueryExecutor.
type ExecutorOption func(*QueryExecutor)

// WithCache enables result caching.
func WithCache(cache *ResultCache) ExecutorOption {
	return func(e *QueryExecutor) {
		e.cache = cache
	}
}

// WithRecorder sets the diagnostics side channel.
func WithRecorder(r Recorder) ExecutorOption {
	return func(e *QueryExecutor) {
		e.recorder = r
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) ExecutorOption {
	return func(e *QueryExecutor) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *QueryExecutor) {
		e.logger = logger
	}
}

// NewQueryExecutor creates an executor targeting session's active context.
func NewQueryExecutor(eng Engine, session ContextSource, opts ...ExecutorOption) *QueryExecutor {
	e := &QueryExecutor{
		engine:   eng,
		session:  session,
		recorder: NewMemoryRecorder(DefaultMemoryCapacity),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ============================================================================
// Call options
// ============================================================================

type execOptions struct {
	snapshot  string
	reference string
	noCache   bool
}

// ExecOption adjusts a single query call.
type ExecOption func(*execOptions)

// WithSnapshot runs the query against snapshot instead of the active one.
func WithSnapshot(snapshot string) ExecOption {
	return func(o *execOptions) {
		o.snapshot = snapshot
	}
}

// WithReference sets the reference snapshot of a comparison query.
func WithReference(snapshot string) ExecOption {
	return func(o *execOptions) {
		o.reference = snapshot
	}
}

// WithoutCache bypasses the result cache for this call.
func WithoutCache() ExecOption {
	return func(o *execOptions) {
		o.noCache = true
	}
}

// ============================================================================
// Execute
// ============================================================================

// Execute runs query name with params against the active context.
func (e *QueryExecutor) Execute(ctx context.Context, name string, params domain.Params, opts ...ExecOption) (*domain.Result, error) {
	var o execOptions
	for _, opt := range opts {
		opt(&o)
	}
	return e.execute(ctx, e.session.Context(), name, params, o)
}

// Traceroute runs a unidirectional or bidirectional trace.
func (e *QueryExecutor) Traceroute(ctx context.Context, req domain.TraceRequest) (*domain.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return e.Execute(ctx, req.QueryName(), req.Params(), WithSnapshot(req.Snapshot))
}

// execute is Execute with an already captured context.
func (e *QueryExecutor) execute(ctx context.Context, active domain.Context, name string, params domain.Params, o execOptions) (*domain.Result, error) {
	// 1. Allow-list check, before anything else
	if err := domain.ValidateQueryName(name); err != nil {
		return nil, err
	}

	// 2. Static table lookup
	capability, err := lookupCapability(name)
	if err != nil {
		return nil, err
	}

	// 3. Resolve target
	if o.snapshot != "" {
		active = active.WithSnapshot(o.snapshot)
	}
	if err := active.Validate(); err != nil {
		return nil, err
	}
	if capability.NeedsReference && o.reference == "" {
		return nil, domain.ErrMissingArgument.WithDetails("reference snapshot is required for " + name)
	}

	// 4. Build engine parameters
	engineParams, err := capability.params(params)
	if err != nil {
		return nil, err
	}
	spec := domain.QuerySpec{
		Network:           active.Network,
		Snapshot:          active.Snapshot,
		ReferenceSnapshot: o.reference,
		Query:             name,
		Parameters:        engineParams,
	}

	// 5. Cache
	if e.cache != nil && !o.noCache {
		if cached, ok := e.cache.Get(spec); ok {
			e.metrics.CacheHit()
			e.metrics.ObserveQuery(name, metric.OutcomeCached, 0)
			return cached, nil
		}
		e.metrics.CacheMiss()
	}

	// 6. Run
	ctx = logger.WithSession(ctx, active.Network, active.Snapshot)
	start := time.Now()
	result, err := e.engine.RunQuery(ctx, spec)
	elapsed := time.Since(start)
	if err != nil {
		// A cancelled caller gets its own error, not an empty result.
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.metrics.ObserveQuery(name, metric.OutcomeError, elapsed)
			return nil, ctxErr
		}
		if domain.IsSoftDegradable(err) {
			e.metrics.ObserveQuery(name, metric.OutcomeDegraded, elapsed)
			e.degrade(ctx, "execute", name, active, err)
			return domain.EmptyResult(), nil
		}
		e.metrics.ObserveQuery(name, metric.OutcomeError, elapsed)
		return nil, err
	}
	if result == nil {
		result = domain.EmptyResult()
	}
	e.metrics.ObserveQuery(name, metric.OutcomeOK, elapsed)

	if e.cache != nil {
		e.cache.Put(spec, result)
	}

	e.logger.Debug("query executed",
		"query", name,
		"network", active.Network,
		"snapshot", active.Snapshot,
		"rows", result.Len(),
		"duration", elapsed,
	)
	return result, nil
}

// degrade logs and records a soft-degraded failure.
func (e *QueryExecutor) degrade(ctx context.Context, operation, query string, active domain.Context, cause error) {
	e.metrics.Degraded(operation)
	e.logger.Warn("engine call degraded",
		"operation", operation,
		"query", query,
		"network", active.Network,
		"snapshot", active.Snapshot,
		"error", cause,
	)

	d := newDiagnostic(operation, query, active, cause)
	if err := e.recorder.Record(ctx, d); err != nil {
		e.logger.Error("failed to record diagnostic", "id", d.ID, "error", err)
	}
}

// ============================================================================
// Introspection
// ============================================================================

// Describe returns the engine's description of a query. Engine failures
// yield a placeholder naming the query.
func (e *QueryExecutor) Describe(ctx context.Context, name string) (string, error) {
	if err := domain.ValidateQueryName(name); err != nil {
		return "", err
	}
	if _, err := lookupCapability(name); err != nil {
		return "", err
	}

	text, err := e.engine.DescribeQuery(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		e.degrade(ctx, "describe", name, e.session.Context(), err)
		return DescriptionPlaceholderPrefix + name, nil
	}
	return text, nil
}

// ListAvailableQueries returns the queries the engine exposes that the
// executor can dispatch, sorted. Engine queries missing from the static
// table are left out. If introspection fails or leaves nothing, the
// documented fallback set is returned instead. The result is never empty.
func (e *QueryExecutor) ListAvailableQueries(ctx context.Context) []string {
	names, err := e.engine.ListQueries(ctx)
	if err != nil {
		e.degrade(ctx, "list_queries", "", e.session.Context(), err)
		return domain.FallbackQueries()
	}

	known := make([]string, 0, len(names))
	var skipped []string
	for _, name := range names {
		if _, ok := capabilities[name]; ok {
			known = append(known, name)
		} else {
			skipped = append(skipped, name)
		}
	}
	if len(skipped) > 0 {
		e.logger.Debug("engine queries without a dispatch entry", "queries", skipped)
	}
	if len(known) == 0 {
		e.logger.Warn("engine reported no dispatchable queries, using fallback set")
		return domain.FallbackQueries()
	}
	slices.Sort(known)
	return slices.Compact(known)
}

// Diagnostics returns up to limit recorded soft failures, newest first.
func (e *QueryExecutor) Diagnostics(ctx context.Context, limit int) ([]Diagnostic, error) {
	return e.recorder.List(ctx, limit)
}

// Cache returns the executor's result cache, or nil.
func (e *QueryExecutor) Cache() *ResultCache {
	return e.cache
}

