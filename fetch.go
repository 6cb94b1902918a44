package fetch

// node is one variant of the internal program tree. Trees are immutable;
// the interpreter rewrites them between rounds by rebuilding.
type node interface {
	isNode()
}

// pureNode is a known value.
type pureNode struct {
	val any
}

// oneNode fetches one identity from one source.
type oneNode struct {
	src *boundSource
	id  any
}

// failedNode is a lifted failure.
type failedNode struct {
	err error
}

// mappedNode transforms the inner result.
type mappedNode struct {
	inner node
	fn    func(any) any
}

// flatMappedNode sequences a continuation after the inner result. The
// continuation guards everything it builds: nothing behind it can join an
// earlier round.
type flatMappedNode struct {
	inner node
	k     func(any) node
}

// joinedNode combines two independent subtrees. Both sides may contribute
// to the same round.
type joinedNode struct {
	left  node
	right node
}

func (*pureNode) isNode()       {}
func (*oneNode) isNode()        {}
func (*failedNode) isNode()     {}
func (*mappedNode) isNode()     {}
func (*flatMappedNode) isNode() {}
func (*joinedNode) isNode()     {}

// rawPair carries the untyped result of a joinedNode until a surrounding
// map restores the element types.
type rawPair struct {
	left  any
	right any
}

// Pair is the result of joining two independent fetches.
type Pair[A, B any] struct {
	First  A
	Second B
}

// PairOf builds a Pair.
func PairOf[A, B any](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

// Decompose splits the pair back into its elements.
func (p Pair[A, B]) Decompose() (A, B) {
	return p.First, p.Second
}

// Triple is the result of joining three independent fetches.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Decompose splits the triple back into its elements.
func (t Triple[A, B, C]) Decompose() (A, B, C) {
	return t.First, t.Second, t.Third
}

// Fetch is an immutable description of a data-access computation. It is
// built with the package combinators and consumed by Run, RunLog or
// RunAll, which decide how to execute it with the fewest round-trips.
type Fetch[A any] struct {
	n node
}

// Pure lifts a known value. It contributes no round.
func Pure[A any](a A) Fetch[A] {
	return Fetch[A]{n: &pureNode{val: a}}
}

// Of fetches one identity from a source.
func Of[I comparable, A any](id I, src Source[I, A]) Fetch[A] {
	return Fetch[A]{n: &oneNode{src: bindSource(src), id: id}}
}

// Fail lifts a failure. Running it yields an UnhandledError carrying err.
func Fail[A any](err error) Fetch[A] {
	return Fetch[A]{n: &failedNode{err: err}}
}

// Map transforms the result of a fetch.
func Map[A, B any](f Fetch[A], fn func(A) B) Fetch[B] {
	return Fetch[B]{n: &mappedNode{
		inner: f.n,
		fn:    func(v any) any { return fn(v.(A)) },
	}}
}

// FlatMap sequences k after f. The fetches built by k depend on f's result
// and therefore run in a later round.
func FlatMap[A, B any](f Fetch[A], k func(A) Fetch[B]) Fetch[B] {
	return Fetch[B]{n: &flatMappedNode{
		inner: f.n,
		k:     func(v any) node { return k(v.(A)).n },
	}}
}

// Join combines two independent fetches. Both sides contribute to the same
// round wherever possible.
func Join[A, B any](a Fetch[A], b Fetch[B]) Fetch[Pair[A, B]] {
	return Map2(a, b, PairOf[A, B])
}

// Map2 combines two independent fetches with fn.
func Map2[A, B, C any](a Fetch[A], b Fetch[B], fn func(A, B) C) Fetch[C] {
	return Fetch[C]{n: &mappedNode{
		inner: &joinedNode{left: a.n, right: b.n},
		fn: func(v any) any {
			p := v.(rawPair)
			return fn(p.left.(A), p.right.(B))
		},
	}}
}

// Tuple3 combines three independent fetches.
func Tuple3[A, B, C any](a Fetch[A], b Fetch[B], c Fetch[C]) Fetch[Triple[A, B, C]] {
	return Map2(Join(a, b), c, func(p Pair[A, B], cv C) Triple[A, B, C] {
		return Triple[A, B, C]{First: p.First, Second: p.Second, Third: cv}
	})
}

// Sequence combines a list of independent fetches into one fetch of the
// list of results, preserving order. It is the fold of Join over the list.
func Sequence[A any](fs []Fetch[A]) Fetch[[]A] {
	acc := Pure(make([]A, 0, len(fs)))
	for _, f := range fs {
		acc = Map2(acc, f, func(xs []A, a A) []A {
			return append(xs, a)
		})
	}
	return acc
}

// Traverse maps fn over xs and sequences the results.
func Traverse[X, A any](xs []X, fn func(X) Fetch[A]) Fetch[[]A] {
	fs := make([]Fetch[A], len(xs))
	for i, x := range xs {
		fs[i] = fn(x)
	}
	return Sequence(fs)
}
