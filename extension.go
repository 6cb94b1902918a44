package fetch

import "context"

// Extension provides hooks into the execution lifecycle. Register one
// with WithExtension; extensions run in Order, lowest first.
type Extension interface {
	// Name returns the extension's name.
	Name() string

	// Order determines extension execution order (lower = earlier).
	Order() int

	// Init is called once when the run starts.
	Init() error

	// Wrap intercepts individual source invocations.
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnRoundStart is called before a round's request is dispatched.
	OnRoundStart(ctx context.Context, req Request)

	// OnRoundEnd is called after a round is recorded.
	OnRoundEnd(ctx context.Context, round Round)

	// OnError is called when the run fails.
	OnError(ctx context.Context, err error)
}

// Operation describes one source invocation being wrapped.
type Operation struct {
	Kind   OperationKind
	Source string
	IDs    []any
}

// OperationKind represents the type of source invocation.
type OperationKind string

const (
	// OpFetch indicates a single-identity lookup.
	OpFetch OperationKind = "fetch"
	// OpBatch indicates a batched lookup.
	OpBatch OperationKind = "batch"
)

// BaseExtension provides default implementations for Extension methods.
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name.
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init() error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnRoundStart(ctx context.Context, req Request) {
}

func (e *BaseExtension) OnRoundEnd(ctx context.Context, round Round) {
}

func (e *BaseExtension) OnError(ctx context.Context, err error) {
}
