package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingExtension notes every hook invocation.
type recordingExtension struct {
	BaseExtension
	order int

	mu     sync.Mutex
	events []string
}

func newRecordingExtension(name string, order int) *recordingExtension {
	return &recordingExtension{
		BaseExtension: NewBaseExtension(name),
		order:         order,
	}
}

func (e *recordingExtension) Order() int { return e.order }

func (e *recordingExtension) record(event string) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

func (e *recordingExtension) Init() error {
	e.record("init")
	return nil
}

func (e *recordingExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	e.record("wrap:" + string(op.Kind) + ":" + op.Source)
	return next()
}

func (e *recordingExtension) OnRoundStart(ctx context.Context, req Request) {
	e.record("round-start")
}

func (e *recordingExtension) OnRoundEnd(ctx context.Context, round Round) {
	e.record("round-end")
}

func (e *recordingExtension) OnError(ctx context.Context, err error) {
	e.record("error")
}

func TestExtensionLifecycle(t *testing.T) {
	ext := newRecordingExtension("recording", 100)
	src := numbers("numbers")

	prog := Tuple3(Of(1, src), Of(2, src), Of(3, src))
	if _, err := Run(context.Background(), prog, WithExtension(ext)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"init", "round-start", "wrap:batch:numbers", "round-end"}
	if len(ext.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, ext.events)
	}
	for i, e := range want {
		if ext.events[i] != e {
			t.Fatalf("expected events %v, got %v", want, ext.events)
		}
	}
}

func TestExtensionSeesFetchOperations(t *testing.T) {
	ext := newRecordingExtension("recording", 100)
	src := numbers("numbers")

	if _, err := Run(context.Background(), Of(1, src), WithExtension(ext)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ext.events[2] != "wrap:fetch:numbers" {
		t.Errorf("expected a fetch operation, got %v", ext.events)
	}
}

func TestExtensionOnError(t *testing.T) {
	ext := newRecordingExtension("recording", 100)

	_, err := Run(context.Background(), Fail[int](errors.New("boom")), WithExtension(ext))
	if err == nil {
		t.Fatal("expected an error")
	}
	last := ext.events[len(ext.events)-1]
	if last != "error" {
		t.Errorf("expected error hook, got %v", ext.events)
	}
}

func TestExtensionsRunInOrder(t *testing.T) {
	var mu sync.Mutex
	var starts []string

	first := &orderedExtension{BaseExtension: NewBaseExtension("first"), order: 1, mu: &mu, log: &starts}
	second := &orderedExtension{BaseExtension: NewBaseExtension("second"), order: 2, mu: &mu, log: &starts}
	src := numbers("numbers")

	// Registered in reverse; Order must win.
	_, err := Run(context.Background(), Of(1, src),
		WithExtension(second), WithExtension(first))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(starts) != 2 || starts[0] != "first" || starts[1] != "second" {
		t.Errorf("expected order [first second], got %v", starts)
	}
}

type orderedExtension struct {
	BaseExtension
	order int
	mu    *sync.Mutex
	log   *[]string
}

func (e *orderedExtension) Order() int { return e.order }

func (e *orderedExtension) OnRoundStart(ctx context.Context, req Request) {
	e.mu.Lock()
	*e.log = append(*e.log, e.Name())
	e.mu.Unlock()
}

func TestInitFailureAbortsRun(t *testing.T) {
	src := numbers("numbers")
	bad := &failingInitExtension{BaseExtension: NewBaseExtension("bad-init")}

	_, err := Run(context.Background(), Of(1, src), WithExtension(bad))
	if err == nil {
		t.Fatal("expected init failure to abort the run")
	}
	if src.fetchCalls != 0 {
		t.Errorf("expected no source calls, got %d", src.fetchCalls)
	}
}

type failingInitExtension struct {
	BaseExtension
}

func (e *failingInitExtension) Init() error {
	return errors.New("init failed")
}
