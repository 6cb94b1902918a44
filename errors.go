package fetch

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError reports that a single requested identity has no value in
// its source. Env is the environment at the point of failure.
type NotFoundError struct {
	Env     *Env
	Request FetchOne
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fetch: identity %v not found in source %s", e.Request.ID, e.Request.Source)
}

// MissingIdentitiesError reports that a batched round returned fewer
// entries than requested, keyed by source name. Env is the environment at
// the point of failure.
type MissingIdentitiesError struct {
	Env     *Env
	Missing map[string][]any
}

func (e *MissingIdentitiesError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for name := range e.Missing {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %v", name, e.Missing[name])
	}
	return "fetch: identities missing from response: " + strings.Join(parts, ", ")
}

// UnhandledError wraps a failure raised by a source or lifted into the
// program with Fail. Env is the environment at the point of failure.
type UnhandledError struct {
	Env   *Env
	Cause error
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("fetch: unhandled error: %v", e.Cause)
}

func (e *UnhandledError) Unwrap() error {
	return e.Cause
}

func newUnhandled(env *Env, cause error) *UnhandledError {
	if u, ok := cause.(*UnhandledError); ok {
		return u
	}
	return &UnhandledError{Env: env, Cause: cause}
}
