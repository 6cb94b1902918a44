package extensions

import (
	"context"
	"fmt"
	"sync"

	"github.com/m1gwings/treedrawer/tree"

	fetch "github.com/fetch-fn/fetch-go"
)

// RoundDebugExtension accumulates the rounds of a run and renders them as
// a drawn tree for debugging: one child per round, one grandchild per
// batch inside the round.
//
//	debug := extensions.NewRoundDebugExtension()
//	result, err := fetch.Run(ctx, program, fetch.WithExtension(debug))
//	fmt.Println(debug.Describe())
type RoundDebugExtension struct {
	fetch.BaseExtension

	mu     sync.Mutex
	rounds []fetch.Round
}

// NewRoundDebugExtension creates a round debug extension.
func NewRoundDebugExtension() *RoundDebugExtension {
	return &RoundDebugExtension{
		BaseExtension: fetch.NewBaseExtension("round-debug"),
	}
}

// OnRoundEnd records the round for later rendering.
func (e *RoundDebugExtension) OnRoundEnd(ctx context.Context, round fetch.Round) {
	e.mu.Lock()
	e.rounds = append(e.rounds, round)
	e.mu.Unlock()
}

// Rounds returns a copy of the rounds observed so far.
func (e *RoundDebugExtension) Rounds() []fetch.Round {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]fetch.Round, len(e.rounds))
	copy(out, e.rounds)
	return out
}

// Describe renders the observed rounds as a drawn tree.
func (e *RoundDebugExtension) Describe() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total float64
	for _, r := range e.rounds {
		total += r.Millis()
	}

	root := tree.NewTree(tree.NodeString(fmt.Sprintf("fetch execution (%d rounds, %.2fms)", len(e.rounds), total)))
	for i, r := range e.rounds {
		roundNode := root.AddChild(tree.NodeString(fmt.Sprintf("round %d (%.2fms)", i+1, r.Millis())))
		for _, b := range batchesOf(r.Request) {
			roundNode.AddChild(tree.NodeString(fmt.Sprintf("%s %v", b.Source, b.IDs)))
		}
	}
	return root.String()
}

// batchesOf flattens a request into its per-source batches.
func batchesOf(req fetch.Request) []fetch.FetchMany {
	switch t := req.(type) {
	case fetch.FetchOne:
		return []fetch.FetchMany{{Source: t.Source, IDs: []any{t.ID}}}
	case fetch.FetchMany:
		return []fetch.FetchMany{t}
	case fetch.Concurrent:
		return t.Batches
	}
	return nil
}
