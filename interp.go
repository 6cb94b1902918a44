package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// runner executes a program tree round by round against an environment.
type runner struct {
	cache      Cache
	runtime    Runtime
	extensions []Extension
}

// fetchResult carries a single-identity lookup through the extension
// chain; ok is false on a miss.
type fetchResult struct {
	val any
	ok  bool
}

// eval runs the tree to completion: simplify, coalesce the ready fetches,
// execute a round, substitute the results back, repeat. The tree is a
// value or a failure when no fetch remains.
func (r *runner) eval(ctx context.Context, n node, env *Env) (any, error) {
	for {
		n = simplify(n)

		switch t := n.(type) {
		case *pureNode:
			return t.val, nil
		case *failedNode:
			err := newUnhandled(env, t.err)
			r.notifyError(ctx, err)
			return nil, err
		}

		p := collectReady(n)
		if p.empty() {
			err := newUnhandled(env, fmt.Errorf("program tree cannot make progress: %T", n))
			r.notifyError(ctx, err)
			return nil, err
		}

		res, err := r.executeRound(ctx, p, env)
		if err != nil {
			r.notifyError(ctx, err)
			return nil, err
		}

		n = substitute(n, res)
	}
}

// executeRound runs one coalesced plan: cache lookup, dispatch of the
// missing identities, cache update and round recording. The returned map
// answers every identity of the plan, whether it came from the cache or
// from a source.
func (r *runner) executeRound(ctx context.Context, p *plan, env *Env) (map[Key]any, error) {
	results := make(map[Key]any)
	missing := make(map[string][]any)
	cachedCount := 0

	for _, g := range p.groups {
		for _, id := range g.ids {
			key := Key{Source: g.src.name, ID: id}
			val, ok, err := env.Cache.Lookup(ctx, key)
			if err != nil {
				return nil, newUnhandled(env, err)
			}
			if ok {
				results[key] = val
				cachedCount++
				continue
			}
			missing[g.src.name] = append(missing[g.src.name], id)
		}
	}

	// Everything was cached: synthesize the response without a round.
	if len(missing) == 0 {
		return results, nil
	}

	if sequentialWaves(p, missing) {
		// A lone source that asked for sequential splitting: one round
		// per chunk.
		var g *planGroup
		for name := range missing {
			g = p.byName[name]
		}
		for i, chunk := range chunkIDs(missing[g.src.name], g.src.maxBatch) {
			cached := 0
			if i == 0 {
				cached = cachedCount
			}
			wave, err := r.executeWave(ctx, env, []branch{{src: g.src, chunks: [][]any{chunk}}}, cached)
			if err != nil {
				return nil, err
			}
			for k, v := range wave {
				results[k] = v
			}
		}
		return results, nil
	}

	branches := buildBranches(p, missing)
	wave, err := r.executeWave(ctx, env, branches, cachedCount)
	if err != nil {
		return nil, err
	}
	for k, v := range wave {
		results[k] = v
	}
	return results, nil
}

// executeWave dispatches one set of branches as a single round. All
// branches settle before missing identities are reported, the cache is
// updated, and exactly one round is recorded.
func (r *runner) executeWave(ctx context.Context, env *Env, branches []branch, cachedCount int) (map[Key]any, error) {
	req := requestFor(branches)

	for _, ext := range r.extensions {
		ext.OnRoundStart(ctx, req)
	}

	var mu sync.Mutex
	response := make(map[Key]any)

	var tasks []func(context.Context) error
	for _, b := range branches {
		b := b
		if b.src.execution == Sequentially && len(b.chunks) > 1 {
			// Chunks serialize within this branch only; sibling sources
			// keep their parallelism.
			tasks = append(tasks, func(ctx context.Context) error {
				for _, chunk := range b.chunks {
					if err := r.dispatch(ctx, b.src, chunk, response, &mu); err != nil {
						return err
					}
				}
				return nil
			})
			continue
		}
		for _, chunk := range b.chunks {
			chunk := chunk
			tasks = append(tasks, func(ctx context.Context) error {
				return r.dispatch(ctx, b.src, chunk, response, &mu)
			})
		}
	}

	start := time.Now()
	err := r.runtime.Go(ctx, tasks...)
	end := time.Now()

	if err != nil {
		return nil, newUnhandled(env, err)
	}

	if err := checkMissing(env, req, branches, response); err != nil {
		return nil, err
	}

	cache := env.Cache
	for key, val := range response {
		next, err := cache.Insert(ctx, key, val)
		if err != nil {
			return nil, newUnhandled(env, err)
		}
		cache = next
	}

	round := Round{
		ID:       newRoundID(),
		Cache:    env.Cache,
		Request:  req,
		Response: response,
		Cached:   cachedCount,
		Start:    start,
		End:      end,
	}
	env.evolve(round, cache)

	for _, ext := range r.extensions {
		ext.OnRoundEnd(ctx, round)
	}

	return response, nil
}

// dispatch invokes a source for one chunk and merges the hits into the
// shared response. A chunk of one identity uses the single-fetch path.
func (r *runner) dispatch(ctx context.Context, src *boundSource, chunk []any, response map[Key]any, mu *sync.Mutex) error {
	if len(chunk) == 1 {
		id := chunk[0]
		op := &Operation{Kind: OpFetch, Source: src.name, IDs: chunk}
		res, err := r.invoke(ctx, op, func() (any, error) {
			val, ok, err := src.fetch(ctx, id)
			if err != nil {
				return nil, err
			}
			return fetchResult{val: val, ok: ok}, nil
		})
		if err != nil {
			return err
		}
		if fr := res.(fetchResult); fr.ok {
			mu.Lock()
			response[Key{Source: src.name, ID: id}] = fr.val
			mu.Unlock()
		}
		return nil
	}

	op := &Operation{Kind: OpBatch, Source: src.name, IDs: chunk}
	res, err := r.invoke(ctx, op, func() (any, error) {
		return src.batch(ctx, chunk)
	})
	if err != nil {
		return err
	}

	batched := res.(map[any]any)
	mu.Lock()
	for _, id := range chunk {
		if val, ok := batched[id]; ok {
			response[Key{Source: src.name, ID: id}] = val
		}
	}
	mu.Unlock()
	return nil
}

// invoke runs one source invocation through the extension chain, last
// registered wrapping first.
func (r *runner) invoke(ctx context.Context, op *Operation, base func() (any, error)) (any, error) {
	next := base
	for i := len(r.extensions) - 1; i >= 0; i-- {
		ext := r.extensions[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(ctx, currentNext, op)
		}
	}
	return next()
}

// checkMissing compares the dispatched identities against the response
// after every branch has settled. A miss on a lone FetchOne is NotFound;
// anything else is MissingIdentities.
func checkMissing(env *Env, req Request, branches []branch, response map[Key]any) error {
	missing := make(map[string][]any)
	for _, b := range branches {
		for _, chunk := range b.chunks {
			for _, id := range chunk {
				if _, ok := response[Key{Source: b.src.name, ID: id}]; !ok {
					missing[b.src.name] = append(missing[b.src.name], id)
				}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if one, ok := req.(FetchOne); ok {
		return &NotFoundError{Env: env, Request: one}
	}
	return &MissingIdentitiesError{Env: env, Missing: missing}
}

func (r *runner) notifyError(ctx context.Context, err error) {
	for _, ext := range r.extensions {
		ext.OnError(ctx, err)
	}
}
