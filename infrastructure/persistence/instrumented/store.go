// Package instrumented decorates a store with Prometheus metrics and X-Ray subsegments.
package instrumented

import (
	"context"
	"errors"
	"time"

	"myblog-backend/infrastructure/persistence/abstractions"
	"myblog-backend/pkg/observability"
)

// Store records the duration and outcome of every call to the wrapped store
type Store struct {
	inner   abstractions.Store
	metrics *observability.Collector
	tracer  *observability.Tracer
}

var _ abstractions.Store = (*Store)(nil)

// NewStore wraps inner. Either collaborator may be nil.
func NewStore(inner abstractions.Store, metrics *observability.Collector, tracer *observability.Tracer) *Store {
	return &Store{inner: inner, metrics: metrics, tracer: tracer}
}

// QueryPartition delegates to the wrapped store
func (s *Store) QueryPartition(ctx context.Context, pk string) ([]abstractions.Item, error) {
	var items []abstractions.Item
	err := s.observe(ctx, "QueryPartition", func(ctx context.Context) error {
		var err error
		items, err = s.inner.QueryPartition(ctx, pk)
		return err
	})
	return items, err
}

// QueryIndex delegates to the wrapped store
func (s *Store) QueryIndex(ctx context.Context, q abstractions.IndexQuery) (*abstractions.Page, error) {
	var page *abstractions.Page
	err := s.observe(ctx, "QueryIndex", func(ctx context.Context) error {
		s.tracer.AddAnnotation(ctx, "indexPartition", q.PartitionValue)
		var err error
		page, err = s.inner.QueryIndex(ctx, q)
		return err
	})
	return page, err
}

// TransactWrite delegates to the wrapped store
func (s *Store) TransactWrite(ctx context.Context, ops []abstractions.WriteOp) error {
	return s.observe(ctx, "TransactWrite", func(ctx context.Context) error {
		s.tracer.AddMetadata(ctx, "items", len(ops))
		return s.inner.TransactWrite(ctx, ops)
	})
}

func (s *Store) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := s.tracer.TraceFunction(ctx, "store."+operation, fn)
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(operation, Outcome(err), time.Since(start))
	}
	return err
}

// Outcome buckets a store error into a low-cardinality metric label
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, abstractions.ErrConditionFailed):
		return "condition_failed"
	case errors.Is(err, abstractions.ErrTransactionTooLarge):
		return "too_large"
	case errors.Is(err, abstractions.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
