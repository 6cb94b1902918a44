package fetch

import (
	"time"

	"github.com/google/uuid"
)

// Round records one wave of source invocations executed together: the
// cache in effect when the wave started, the request issued, the raw
// response keyed by (source, identity), how many of the wave's identities
// were served by that cache, and monotonic start/end timestamps. Rounds
// are never mutated after recording.
type Round struct {
	ID       string
	Cache    Cache
	Request  Request
	Response map[Key]any
	Cached   int
	Start    time.Time
	End      time.Time
}

func newRoundID() string {
	return uuid.NewString()
}

// Duration is the wall time the round was in flight.
func (r Round) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Millis is the round duration in milliseconds.
func (r Round) Millis() float64 {
	return float64(r.Duration().Nanoseconds()) / 1e6
}

// Env accumulates the state of one run: the rounds executed so far and
// the cache in effect. Rounds only append.
type Env struct {
	Rounds []Round
	Cache  Cache
}

func newEnv(cache Cache) *Env {
	return &Env{Cache: cache}
}

// evolve appends a round and threads the cache forward.
func (e *Env) evolve(r Round, cache Cache) {
	e.Rounds = append(e.Rounds, r)
	e.Cache = cache
}

// CachedResults collects every value recorded by the run's rounds, keyed
// by (source, identity). It is a view for tests and debuggers; the cache
// itself may hold more (shared caches) or less (forgetful caches).
func (e *Env) CachedResults() map[Key]any {
	out := make(map[Key]any)
	for _, r := range e.Rounds {
		for k, v := range r.Response {
			out[k] = v
		}
	}
	return out
}
