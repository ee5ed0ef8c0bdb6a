package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/core/shape"
	"github.com/yndnr/netverify-go/internal/engine"
	"github.com/yndnr/netverify-go/internal/telemetry/logger"
	"github.com/yndnr/netverify-go/internal/telemetry/metric"
)

// Snapshot names used by CompareFilters. Both are overwritten on every call.
const (
	OriginalSnapshotName   = "original"
	RefactoredSnapshotName = "refactored"
)

// Orchestrator runs differential workflows: derive a snapshot from a base
// by deactivating elements, then compare the two.
//
// Fork and compare are separate engine calls with no atomicity between
// them. A failure after the fork leaves the derived snapshot behind;
// re-running with overwrite replaces it.
type Orchestrator struct {
	engine   Engine
	session  ContextSource
	executor *QueryExecutor
	metrics  *metric.Registry
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator sharing executor's cache,
// diagnostics recorder, metrics and logger.
func NewOrchestrator(eng Engine, session ContextSource, executor *QueryExecutor) *Orchestrator {
	return &Orchestrator{
		engine:   eng,
		session:  session,
		executor: executor,
		metrics:  executor.metrics,
		logger:   executor.logger,
	}
}

// ============================================================================
// Forks
// ============================================================================

// ForkWithFailure derives snapshot derived from base in the active network.
//
// Exactly one perturbation kind is applied: if interfaces is non-empty,
// only the first (node, interface) pair is deactivated and nodes is
// ignored; otherwise every node in nodes is deactivated. Use Fork to
// deactivate several interfaces at once.
func (o *Orchestrator) ForkWithFailure(ctx context.Context, base, derived string, nodes []string, interfaces []domain.InterfaceRef, overwrite bool) error {
	spec := domain.ForkSpec{
		BaseSnapshot: base,
		Name:         derived,
		Overwrite:    overwrite,
	}

	switch {
	case len(interfaces) > 0:
		if len(interfaces) > 1 || len(nodes) > 0 {
			o.logger.Warn("fork applies a single interface failure, extra elements ignored",
				"snapshot", derived,
				"interface", interfaces[0].String(),
				"ignored_interfaces", len(interfaces)-1,
				"ignored_nodes", len(nodes),
			)
		}
		spec.DeactivateInterfaces = interfaces[:1]
	case len(nodes) > 0:
		spec.DeactivateNodes = nodes
	default:
		return domain.ErrMissingArgument.WithDetails("at least one node or interface to deactivate is required")
	}

	return o.Fork(ctx, spec)
}

// Fork derives a snapshot in the active network, deactivating every
// listed node and interface. An empty perturbation copies the base.
// Engine errors are returned: a fork mutates engine state.
func (o *Orchestrator) Fork(ctx context.Context, spec domain.ForkSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	active := o.session.Context()
	if !active.HasNetwork() {
		return domain.ErrNoActiveNetwork
	}

	ctx = logger.WithSession(ctx, active.Network, spec.BaseSnapshot)
	if err := o.engine.ForkSnapshot(ctx, active.Network, spec); err != nil {
		return err
	}
	o.executor.cache.InvalidateSnapshot(active.Network, spec.Name)
	o.metrics.Forked()

	o.logger.Info("snapshot forked",
		"network", active.Network,
		"base", spec.BaseSnapshot,
		"snapshot", spec.Name,
		"nodes", strings.Join(spec.DeactivateNodes, ","),
		"interfaces", len(spec.DeactivateInterfaces),
	)
	return nil
}

// ============================================================================
// Comparisons
// ============================================================================

// CompareFilters loads two single-device configurations as the
// "original" and "refactored" snapshots of the active network and
// compares their filters, with the refactored side as subject. Line
// columns are renamed to "Original ACL Line" and "Refactored ACL Line".
//
// Any failure while creating the snapshots or running the comparison
// yields an empty result and a diagnostic. The active context is not
// changed.
func (o *Orchestrator) CompareFilters(ctx context.Context, originalText, refactoredText, originalPlatform, refactoredPlatform string) (*domain.Result, error) {
	if strings.TrimSpace(originalText) == "" || strings.TrimSpace(refactoredText) == "" {
		return nil, domain.ErrMissingArgument.WithDetails("both configurations are required")
	}
	active := o.session.Context()
	if !active.HasNetwork() {
		return nil, domain.ErrNoActiveNetwork
	}
	target := active.WithSnapshot(RefactoredSnapshotName)

	// 1. Load both sides, replacing previous comparisons
	sides := []struct {
		name, text, platform string
	}{
		{OriginalSnapshotName, originalText, originalPlatform},
		{RefactoredSnapshotName, refactoredText, refactoredPlatform},
	}
	for _, side := range sides {
		archive, err := engine.ArchiveText(side.text, side.platform, side.name, "")
		if err == nil {
			err = o.engine.InitSnapshot(ctx, active.Network, domain.SnapshotInput{
				Name:      side.name,
				Archive:   archive,
				Overwrite: true,
			})
		}
		o.executor.cache.InvalidateSnapshot(active.Network, side.name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			o.executor.degrade(ctx, "compare_filters", domain.QueryCompareFilters, active.WithSnapshot(side.name), err)
			return domain.EmptyResult(), nil
		}
	}

	// 2. Compare, refactored against original
	start := time.Now()
	raw, err := o.engine.RunQuery(ctx, domain.QuerySpec{
		Network:           active.Network,
		Snapshot:          RefactoredSnapshotName,
		ReferenceSnapshot: OriginalSnapshotName,
		Query:             domain.QueryCompareFilters,
		Parameters:        domain.Params{},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.metrics.ObserveQuery(domain.QueryCompareFilters, metric.OutcomeDegraded, time.Since(start))
		o.executor.degrade(ctx, "compare_filters", domain.QueryCompareFilters, target, err)
		return domain.EmptyResult(), nil
	}
	o.metrics.ObserveQuery(domain.QueryCompareFilters, metric.OutcomeOK, time.Since(start))

	// 3. Caller-facing labels
	return shape.Rename(raw, shape.FilterComparisonLabels()), nil
}

// CompareSnapshots runs a comparison query with snapshot as subject and
// reference as reference, both in the active network. Failures follow
// the Execute policy.
func (o *Orchestrator) CompareSnapshots(ctx context.Context, query, snapshot, reference string, params domain.Params) (*domain.Result, error) {
	if snapshot == "" || reference == "" {
		return nil, domain.ErrMissingArgument.WithDetails("snapshot and reference snapshot are required")
	}
	return o.executor.Execute(ctx, query, params, WithSnapshot(snapshot), WithReference(reference))
}

// FailureImpactRequest describes a fork-then-compare analysis.
type FailureImpactRequest struct {
	BaseSnapshot         string
	DerivedSnapshot      string
	DeactivateNodes      []string
	DeactivateInterfaces []domain.InterfaceRef
	// Query defaults to differentialReachability.
	Query  string
	Params domain.Params
}

// FailureImpact forks the base with the requested failures (overwriting
// any previous derived snapshot) and compares the derived snapshot
// against the base.
func (o *Orchestrator) FailureImpact(ctx context.Context, req FailureImpactRequest) (*domain.Result, error) {
	query := req.Query
	if query == "" {
		query = domain.QueryDifferentialReachability
	}
	// Reject a bad query before creating anything on the engine.
	if err := domain.ValidateQueryName(query); err != nil {
		return nil, err
	}
	if _, err := lookupCapability(query); err != nil {
		return nil, err
	}

	err := o.Fork(ctx, domain.ForkSpec{
		BaseSnapshot:         req.BaseSnapshot,
		Name:                 req.DerivedSnapshot,
		DeactivateNodes:      req.DeactivateNodes,
		DeactivateInterfaces: req.DeactivateInterfaces,
		Overwrite:            true,
	})
	if err != nil {
		return nil, err
	}
	return o.CompareSnapshots(ctx, query, req.DerivedSnapshot, req.BaseSnapshot, req.Params)
}
