package extensions

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	fetch "github.com/fetch-fn/fetch-go"
)

type numberSource struct {
	name   string
	absent map[int]bool
}

func (s *numberSource) Descriptor() fetch.Descriptor { return fetch.Descriptor{Name: s.name} }
func (s *numberSource) MaxBatchSize() int { return 0 }
func (s *numberSource) BatchExecution() fetch.BatchExecution { return fetch.InParallel }

func (s *numberSource) Fetch(ctx context.Context, id int) (string, bool, error) {
	if s.absent[id] {
		return "", false, nil
	}
	return strconv.Itoa(id), true, nil
}

func (s *numberSource) Batch(ctx context.Context, ids []int) (map[int]string, error) {
	out := make(map[int]string, len(ids))
	for _, id := range ids {
		if !s.absent[id] {
			out[id] = strconv.Itoa(id)
		}
	}
	return out, nil
}

func TestLoggingExtensionLogsRounds(t *testing.T) {
	var buf bytes.Buffer
	ext := NewLoggingExtension(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	src := &numberSource{name: "numbers"}

	prog := fetch.Join(fetch.Of(1, src), fetch.Of(2, src))
	if _, err := fetch.Run(context.Background(), prog, fetch.WithExtension(ext)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "round completed") {
		t.Errorf("expected round log, got:\n%s", out)
	}
	if !strings.Contains(out, "source invocation completed") {
		t.Errorf("expected invocation log, got:\n%s", out)
	}
	if !strings.Contains(out, "source=numbers") {
		t.Errorf("expected source attribute, got:\n%s", out)
	}
}

func TestLoggingExtensionLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	ext := NewLoggingExtension(slog.NewTextHandler(&buf, nil))

	_, err := fetch.Run(context.Background(), fetch.Fail[int](errors.New("boom")), fetch.WithExtension(ext))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(buf.String(), "fetch execution failed") {
		t.Errorf("expected failure log, got:\n%s", buf.String())
	}
}

func TestRoundDebugExtensionCollectsRounds(t *testing.T) {
	ext := NewRoundDebugExtension()
	src := &numberSource{name: "numbers"}

	prog := fetch.FlatMap(fetch.Of(1, src), func(v string) fetch.Fetch[string] {
		return fetch.Of(len(v)+1, src)
	})
	if _, err := fetch.Run(context.Background(), prog, fetch.WithExtension(ext)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rounds := ext.Rounds()
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}

	desc := ext.Describe()
	if !strings.Contains(desc, "2 rounds") {
		t.Errorf("expected round count in description, got:\n%s", desc)
	}
	if !strings.Contains(desc, "numbers") {
		t.Errorf("expected source name in description, got:\n%s", desc)
	}
}
