package fetch

import (
	"fmt"
	"testing"
)

func TestChunkIDs(t *testing.T) {
	ids := []any{1, 2, 3, 4, 5}

	cases := []struct {
		max  int
		want string
	}{
		{max: 0, want: "[[1 2 3 4 5]]"},
		{max: 5, want: "[[1 2 3 4 5]]"},
		{max: 2, want: "[[1 2] [3 4] [5]]"},
		{max: 3, want: "[[1 2 3] [4 5]]"},
		{max: 1, want: "[[1] [2] [3] [4] [5]]"},
	}
	for _, c := range cases {
		got := fmt.Sprint(chunkIDs(ids, c.max))
		if got != c.want {
			t.Errorf("max=%d: expected %s, got %s", c.max, c.want, got)
		}
	}
}

func TestBuildBranchesSkipsFullyCachedGroups(t *testing.T) {
	a := numbers("a")
	b := numbers("b")
	p := collectReady(Join(Of(1, a), Of(2, b)).n)

	branches := buildBranches(p, map[string][]any{"b": {2}})
	if len(branches) != 1 {
		t.Fatalf("expected 1 branch, got %d", len(branches))
	}
	if branches[0].src.name != "b" {
		t.Errorf("expected branch for b, got %s", branches[0].src.name)
	}
}

func TestRequestForSplitsAndOrders(t *testing.T) {
	limited := numbers("limited")
	limited.max = 2
	other := numbers("other")

	p := collectReady(Join(
		Traverse([]int{1, 2, 3}, func(id int) Fetch[string] { return Of(id, limited) }),
		Of(9, other),
	).n)
	branches := buildBranches(p, map[string][]any{
		"limited": {1, 2, 3},
		"other":   {9},
	})

	req := requestFor(branches)
	conc, ok := req.(Concurrent)
	if !ok {
		t.Fatalf("expected Concurrent, got %T", req)
	}
	want := "Concurrent(FetchMany(limited, [1 2]), FetchMany(limited, [3]), FetchMany(other, [9]))"
	if conc.String() != want {
		t.Errorf("expected %s, got %s", want, conc.String())
	}
}

func TestSequentialWaves(t *testing.T) {
	seq := numbers("seq")
	seq.max = 2
	seq.exec = Sequentially
	par := numbers("par")

	solo := collectReady(Traverse([]int{1, 2, 3}, func(id int) Fetch[string] { return Of(id, seq) }).n)
	if !sequentialWaves(solo, map[string][]any{"seq": {1, 2, 3}}) {
		t.Error("expected a standalone oversized sequential group to run as waves")
	}
	if sequentialWaves(solo, map[string][]any{"seq": {1, 2}}) {
		t.Error("expected a fitting batch to stay in one round")
	}

	mixed := collectReady(Join(Of(1, seq), Of(2, par)).n)
	if sequentialWaves(mixed, map[string][]any{"seq": {1}, "par": {2}}) {
		t.Error("expected cross-source waves to stay in one round")
	}
}
