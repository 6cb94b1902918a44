package fetch

import (
	"context"
	"sort"
)

// Option configures a run.
type Option func(*runner)

// WithCache supplies the cache for the run. Sharing one cache across runs
// carries results between them; the default is a fresh in-memory cache.
func WithCache(c Cache) Option {
	return func(r *runner) {
		r.cache = c
	}
}

// WithRuntime supplies the concurrency runtime used to dispatch round
// branches. The default spawns one goroutine per branch.
func WithRuntime(rt Runtime) Option {
	return func(r *runner) {
		r.runtime = rt
	}
}

// WithExtension registers an extension for the run.
func WithExtension(ext Extension) Option {
	return func(r *runner) {
		r.extensions = append(r.extensions, ext)
	}
}

func newRunner(opts ...Option) *runner {
	r := &runner{
		cache:   NewInMemoryCache(),
		runtime: GoroutineRuntime{},
	}
	for _, opt := range opts {
		opt(r)
	}
	sort.SliceStable(r.extensions, func(i, j int) bool {
		return r.extensions[i].Order() < r.extensions[j].Order()
	})
	return r
}

// Run executes a program and returns its result.
func Run[A any](ctx context.Context, f Fetch[A], opts ...Option) (A, error) {
	val, _, err := RunAll(ctx, f, opts...)
	return val, err
}

// RunLog executes a program and returns its result together with the
// round log.
func RunLog[A any](ctx context.Context, f Fetch[A], opts ...Option) (A, []Round, error) {
	val, env, err := RunAll(ctx, f, opts...)
	if env == nil {
		return val, nil, err
	}
	return val, env.Rounds, err
}

// RunAll executes a program and returns its result together with the full
// environment, including the final cache.
func RunAll[A any](ctx context.Context, f Fetch[A], opts ...Option) (A, *Env, error) {
	var zero A

	r := newRunner(opts...)
	for _, ext := range r.extensions {
		if err := ext.Init(); err != nil {
			return zero, nil, err
		}
	}

	env := newEnv(r.cache)
	val, err := r.eval(ctx, f.n, env)
	if err != nil {
		return zero, env, err
	}
	return val.(A), env, nil
}
