package fetch

import (
	"context"
	"sync"
)

// Descriptor names a data source. Two descriptors are equal iff their Name
// strings match; keeping names unique is the caller's obligation.
type Descriptor struct {
	Name string
}

// BatchExecution controls how the chunks of an oversized batch run.
type BatchExecution int

const (
	// InParallel runs split chunks concurrently within one round.
	InParallel BatchExecution = iota
	// Sequentially runs split chunks one after another.
	Sequentially
)

func (b BatchExecution) String() string {
	if b == Sequentially {
		return "sequentially"
	}
	return "in-parallel"
}

// Source resolves identities of type I to values of type A.
//
// Batch must be observationally equivalent to calling Fetch per identity
// and collecting the hits; identities absent upstream are omitted from the
// returned map, and the map must not contain identities that were not
// requested.
type Source[I comparable, A any] interface {
	// Descriptor returns the source's stable descriptor.
	Descriptor() Descriptor

	// Fetch resolves a single identity. ok is false on a miss.
	Fetch(ctx context.Context, id I) (A, bool, error)

	// Batch resolves many identities in one call. Missing identities are
	// omitted from the result.
	Batch(ctx context.Context, ids []I) (map[I]A, error)

	// MaxBatchSize is the upper bound on identities per Batch call.
	// Zero means unlimited.
	MaxBatchSize() int

	// BatchExecution reports how split chunks of an oversized batch run.
	BatchExecution() BatchExecution
}

// boundSource erases a Source's type parameters so that fetches against
// heterogeneous sources can live in one program tree. Results are
// reassociated to their branch by (name, identity) lookup, so no type
// information beyond the closures is needed.
type boundSource struct {
	name      string
	maxBatch  int
	execution BatchExecution
	fetch     func(ctx context.Context, id any) (any, bool, error)
	batch     func(ctx context.Context, ids []any) (map[any]any, error)
}

func bindSource[I comparable, A any](s Source[I, A]) *boundSource {
	return &boundSource{
		name:      s.Descriptor().Name,
		maxBatch:  s.MaxBatchSize(),
		execution: s.BatchExecution(),
		fetch: func(ctx context.Context, id any) (any, bool, error) {
			v, ok, err := s.Fetch(ctx, id.(I))
			return v, ok, err
		},
		batch: func(ctx context.Context, ids []any) (map[any]any, error) {
			typed := make([]I, len(ids))
			for i, id := range ids {
				typed[i] = id.(I)
			}
			res, err := s.Batch(ctx, typed)
			if err != nil {
				return nil, err
			}
			out := make(map[any]any, len(res))
			for id, v := range res {
				out[id] = v
			}
			return out, nil
		},
	}
}

// FetchOnlySource adapts a source whose backend has no batched lookup: its
// Batch fans out one Fetch per identity through the given runtime.
type FetchOnlySource[I comparable, A any] struct {
	desc      Descriptor
	runtime   Runtime
	fetchOne  func(ctx context.Context, id I) (A, bool, error)
	execution BatchExecution
}

// NewFetchOnlySource builds a FetchOnlySource from a single-identity lookup.
// A nil runtime falls back to the default goroutine runtime.
func NewFetchOnlySource[I comparable, A any](
	desc Descriptor,
	fetchOne func(ctx context.Context, id I) (A, bool, error),
	rt Runtime,
) *FetchOnlySource[I, A] {
	if rt == nil {
		rt = GoroutineRuntime{}
	}
	return &FetchOnlySource[I, A]{
		desc:      desc,
		runtime:   rt,
		fetchOne:  fetchOne,
		execution: InParallel,
	}
}

func (s *FetchOnlySource[I, A]) Descriptor() Descriptor { return s.desc }
func (s *FetchOnlySource[I, A]) MaxBatchSize() int { return 0 }
func (s *FetchOnlySource[I, A]) BatchExecution() BatchExecution { return s.execution }

func (s *FetchOnlySource[I, A]) Fetch(ctx context.Context, id I) (A, bool, error) {
	return s.fetchOne(ctx, id)
}

func (s *FetchOnlySource[I, A]) Batch(ctx context.Context, ids []I) (map[I]A, error) {
	var mu sync.Mutex
	out := make(map[I]A, len(ids))

	tasks := make([]func(context.Context) error, len(ids))
	for i, id := range ids {
		id := id
		tasks[i] = func(ctx context.Context) error {
			v, ok, err := s.fetchOne(ctx, id)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				out[id] = v
				mu.Unlock()
			}
			return nil
		}
	}

	if err := s.runtime.Go(ctx, tasks...); err != nil {
		return nil, err
	}
	return out, nil
}
