package service

import (
	"context"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/telemetry/logger"
)

// DefaultBatchParallelism bounds concurrent engine calls of a batch.
const DefaultBatchParallelism = 4

// BatchItem is one query of a batch.
type BatchItem struct {
	// Label identifies the item in output; defaults to Query.
	Label     string        `json:"label,omitempty" yaml:"label,omitempty"`
	Query     string        `json:"query" yaml:"query"`
	Params    domain.Params `json:"params,omitempty" yaml:"params,omitempty"`
	Snapshot  string        `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Reference string        `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// BatchResult is the outcome of one BatchItem. Exactly one of Result and
// Err is set.
type BatchResult struct {
	Item   BatchItem
	Result *domain.Result
	Err    error
}

// ExecuteBatch runs items concurrently against the context captured when
// the batch starts. A failing item never aborts the others: engine
// failures degrade to empty results and hard errors land in Err. Results
// are returned in item order. Each item's engine calls carry their own
// request ID. The returned error is non-nil only when ctx ends before all
// items finished.
func (e *QueryExecutor) ExecuteBatch(ctx context.Context, items []BatchItem, parallelism int) ([]BatchResult, error) {
	if parallelism <= 0 {
		parallelism = DefaultBatchParallelism
	}

	active := e.session.Context()
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, item := range items {
		if item.Label == "" {
			item.Label = item.Query
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o := execOptions{snapshot: item.Snapshot, reference: item.Reference}
			itemCtx := logger.WithRequestID(gctx, ulid.Make().String())
			result, err := e.execute(itemCtx, active, item.Query, item.Params, o)
			results[i] = BatchResult{Item: item, Result: result, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
