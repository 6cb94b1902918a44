// Package fetch provides automatic batching, deduplication, caching and
// parallelization for data access across heterogeneous backends.
//
// # Overview
//
// Fetch organizes data access around three core concepts:
//
//  1. Sources: backends that resolve identities to values, one at a time or in batches
//  2. Programs: immutable descriptions of what data is needed, built with combinators
//  3. Rounds: waves of source invocations executed together by the interpreter
//
// The caller describes what data is needed; the library decides how to
// retrieve it with the fewest possible round-trips.
//
// # Basic Usage
//
// Implement a Source for your backend:
//
//	type UserSource struct{ db *sql.DB }
//
//	func (s *UserSource) Descriptor() fetch.Descriptor { return fetch.Descriptor{Name: "users"} }
//	func (s *UserSource) MaxBatchSize() int { return 0 }
//	func (s *UserSource) BatchExecution() fetch.BatchExecution { return fetch.InParallel }
//
//	func (s *UserSource) Fetch(ctx context.Context, id int) (User, bool, error) {
//	    // look up one user; ok=false on a miss
//	}
//
//	func (s *UserSource) Batch(ctx context.Context, ids []int) (map[int]User, error) {
//	    // look up many users in one query; missing ids are omitted
//	}
//
// Declare what you need and run it:
//
//	users := fetch.Traverse([]int{1, 2, 3}, func(id int) fetch.Fetch[User] {
//	    return fetch.Of(id, src)
//	})
//
//	result, err := fetch.Run(ctx, users)
//
// All three users arrive in a single Batch call. Repeated identities are
// deduplicated, identities already in the cache are not fetched again, and
// independent sources are invoked in parallel.
//
// # Combinators
//
// Programs compose with the usual combinators:
//
//	// A known value; contributes no round.
//	p := fetch.Pure(42)
//
//	// One identity from one source.
//	u := fetch.Of(1, users)
//
//	// Transform a result.
//	name := fetch.Map(u, func(u User) string { return u.Name })
//
//	// Sequential dependency: the second fetch waits for the first.
//	boss := fetch.FlatMap(u, func(u User) fetch.Fetch[User] {
//	    return fetch.Of(u.ManagerID, users)
//	})
//
//	// Independent pair: both sides share one round.
//	pair := fetch.Join(fetch.Of(1, users), fetch.Of("one", lengths))
//
// Join, Tuple3, Sequence and Traverse declare independence: everything they
// combine that is not guarded by a FlatMap is coalesced into one round.
//
// # Rounds and the Environment
//
// RunLog and RunAll expose what the interpreter actually did:
//
//	result, rounds, err := fetch.RunLog(ctx, program)
//	for _, r := range rounds {
//	    fmt.Printf("%s: %v (%.2fms)\n", r.ID, r.Request, r.Millis())
//	}
//
// Each Round records the request issued, the raw response, and monotonic
// start/end timestamps. Requests that are fully satisfied by the cache do
// not record a round.
//
// # Caching
//
// Results are cached under (source name, identity). The default cache is a
// fresh in-memory map per run; share one across runs to reuse results:
//
//	cache := fetch.NewInMemoryCache()
//	a, _ := fetch.Run(ctx, fetch.Of(1, users), fetch.WithCache(cache))
//	b, _ := fetch.Run(ctx, fetch.Of(1, users), fetch.WithCache(cache)) // no source call
//
// Any implementation of the Cache interface can be plugged in; see
// cache/rediscache for a Redis-backed one and ForgetfulCache for a cache
// that never retains anything.
//
// # Batching Limits
//
// A source may declare a maximum batch size. Oversized batches are split
// into chunks; InParallel sources run their chunks concurrently within one
// round. A Sequentially source that is the only source of a round runs one
// chunk per round; when other sources share the round, its chunks run one
// after another inside that single round while the other sources proceed
// in parallel.
//
// # Errors
//
// Failures carry the environment at the point of failure so callers can
// inspect the cache and the rounds executed so far:
//
//	_, err := fetch.Run(ctx, program)
//	var missing *fetch.MissingIdentitiesError
//	if errors.As(err, &missing) {
//	    log.Printf("missing %v after %d rounds", missing.Missing, len(missing.Env.Rounds))
//	}
//
// # Extensions
//
// Extensions hook into the round lifecycle for logging, metrics and
// debugging:
//
//	logging := extensions.NewLoggingExtension(slog.NewTextHandler(os.Stderr, nil))
//	result, err := fetch.Run(ctx, program, fetch.WithExtension(logging))
//
// # Thread Safety
//
// Programs are immutable values and may be shared freely. The interpreter
// never issues two concurrent cache inserts for the same key within a
// round; per-round deduplication guarantees it.
package fetch
