package pretty

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkToken(kind Symbol, lexeme string, pos int) Token {
	return Token{Kind: kind, Lexeme: lexeme, Start: pos, End: pos + len(lexeme)}
}

// TestParseIgnoreWeightPrefersExplicitProduction grounds testable
// property 5: with C ignorable, a production that explicitly mentions C
// weighs less than dropping C, so the chart must prefer it whenever
// both derivations are available.
func TestParseIgnoreWeightPrefersExplicitProduction(t *testing.T) {
	g := newGrammar()
	symA := Symbol(0)
	symB := Symbol(1)
	symC := Symbol(2)

	nt := Symbol(0)
	g.Start = nt

	// s -> A C B (explicit)
	withC := &Production{LHS: nt, RHS: []SymbolRef{
		{Kind: RefTerminal, Sym: symA},
		{Kind: RefTerminal, Sym: symC},
		{Kind: RefTerminal, Sym: symB},
	}}
	g.addProduction(withC)

	// s -> A B (implicit, C must be dropped to fit)
	withoutC := &Production{LHS: nt, RHS: []SymbolRef{
		{Kind: RefTerminal, Sym: symA},
		{Kind: RefTerminal, Sym: symB},
	}}
	g.addProduction(withoutC)

	tokens := []Token{
		mkToken(symA, "a", 0),
		mkToken(symC, "c", 1),
		mkToken(symB, "b", 2),
	}
	droppable := []bool{false, true, false}

	arena := newTreeArena()
	pi := newPosIndex([]rune("acb"))
	res, d := parse(g, tokens, droppable, arena, pi, NewConfig())
	require.Nil(t, d)

	root := arena.node(res.Root)
	require.NotNil(t, root.Production)
	assert.Equal(t, withC.ID, root.Production.ID)
	assert.Len(t, root.Children, 3)
}

func TestParseNullableOptionalCompletes(t *testing.T) {
	g := newGrammar()
	nt := Symbol(0)
	g.Start = nt
	symA := Symbol(0)

	optSym := Symbol(1)
	g.addProduction(&Production{LHS: optSym, RHS: []SymbolRef{{Kind: RefTerminal, Sym: symA}}})
	g.addProduction(&Production{LHS: optSym, RHS: nil})
	g.addProduction(&Production{LHS: nt, RHS: []SymbolRef{{Kind: RefNonterminal, Sym: optSym}}})

	arena := newTreeArena()
	pi := newPosIndex(nil)
	res, d := parse(g, nil, nil, arena, pi, NewConfig())
	require.Nil(t, d)
	root := arena.node(res.Root)
	require.Len(t, root.Children, 1)
	optNode := arena.node(root.Children[0])
	assert.Empty(t, optNode.Children)
}

// runListFlatten parses n copies of a single terminal against a
// left-recursive list-marker grammar and returns the materialized root.
func runListFlatten(t *testing.T, n int) *TreeNode {
	t.Helper()
	g := newGrammar()
	listSym := Symbol(0)
	symA := Symbol(0)
	g.Start = listSym

	g.addProduction(&Production{LHS: listSym, RHS: nil, IsListMarker: true, ListElement: symA})
	g.addProduction(&Production{
		LHS:          listSym,
		RHS:          []SymbolRef{{Kind: RefNonterminal, Sym: listSym}, {Kind: RefTerminal, Sym: symA}},
		IsListMarker: true,
		ListElement:  symA,
	})

	tokens := make([]Token, n)
	droppable := make([]bool, n)
	for i := 0; i < n; i++ {
		tokens[i] = mkToken(symA, "a", i)
	}
	arena := newTreeArena()
	pi := newPosIndex([]rune(strings.Repeat("a", n)))
	res, d := parse(g, tokens, droppable, arena, pi, NewConfig())
	require.Nil(t, d)
	return arena.node(res.Root)
}

func TestParseListFlattening(t *testing.T) {
	// buildNode flattens the left-recursive chain: one node, n children.
	root := runListFlatten(t, 50)
	assert.Len(t, root.Children, 50)
}

func TestParseListFlatteningBoundedDepthAtDocumentScale(t *testing.T) {
	// Property 11 names a 10,000-line file explicitly: flattening must
	// still produce one node with n children, not an O(n)-deep chain
	// that would blow the format walk's call stack.
	root := runListFlatten(t, 10000)
	assert.Len(t, root.Children, 10000)
}

func TestParseEmptyInputNonNullableStartFails(t *testing.T) {
	g := newGrammar()
	nt := Symbol(0)
	g.Start = nt
	symA := Symbol(0)
	g.addProduction(&Production{LHS: nt, RHS: []SymbolRef{{Kind: RefTerminal, Sym: symA}}})

	arena := newTreeArena()
	pi := newPosIndex(nil)
	_, d := parse(g, nil, nil, arena, pi, NewConfig())
	require.NotNil(t, d)
	assert.Equal(t, ParseError, d.Kind)
}

func TestParseUnexpectedTokenFails(t *testing.T) {
	g := newGrammar()
	nt := Symbol(0)
	g.Start = nt
	symA := Symbol(0)
	symB := Symbol(1)
	g.addProduction(&Production{LHS: nt, RHS: []SymbolRef{{Kind: RefTerminal, Sym: symA}}})

	tokens := []Token{mkToken(symB, "b", 0)}
	arena := newTreeArena()
	pi := newPosIndex([]rune("b"))
	_, d := parse(g, tokens, []bool{false}, arena, pi, NewConfig())
	require.NotNil(t, d)
	assert.Equal(t, ParseError, d.Kind)
}

func TestBetterItemTieBreak(t *testing.T) {
	low := &Production{ID: 1}
	high := &Production{ID: 2}
	a := &earleyItem{prod: low, weight: 3}
	b := &earleyItem{prod: high, weight: 3}
	assert.True(t, betterItem(a, b, true))
	assert.False(t, betterItem(b, a, true))

	cheaper := &earleyItem{prod: high, weight: 1}
	assert.True(t, betterItem(cheaper, a, true))
}

// TestBetterItemLeftmostLongestSplit grounds Open Question 2: among
// same-weight, same-production items the one whose earlier symbol
// reaches further right (a longer leftmost split) wins, before
// production-id is ever consulted.
func TestBetterItemLeftmostLongestSplit(t *testing.T) {
	prod := &Production{ID: 1}
	shortLeft := &earleyItem{prod: prod, weight: 0, splits: []int{2, 5}}
	longLeft := &earleyItem{prod: prod, weight: 0, splits: []int{3, 5}}

	assert.True(t, betterItem(longLeft, shortLeft, true))
	assert.False(t, betterItem(shortLeft, longLeft, true))

	// With the tie-break disabled, the split is ignored and the
	// (here-equal) production-id order decides, so neither replaces
	// the other.
	assert.False(t, betterItem(shortLeft, longLeft, false))
	assert.False(t, betterItem(longLeft, shortLeft, false))
}

// TestParseAmbiguousLeftmostLongest grounds spec.md §4.3's tie-break:
// with `E -> E E | x` over four x's, every full parse costs the same
// weight (zero), so the chart must pick the split deterministically by
// leftmost-longest rather than by queue-processing order.
func TestParseAmbiguousLeftmostLongest(t *testing.T) {
	g := newGrammar()
	e := Symbol(0)
	x := Symbol(0)
	g.Start = e

	binary := &Production{LHS: e, RHS: []SymbolRef{{Kind: RefNonterminal, Sym: e}, {Kind: RefNonterminal, Sym: e}}}
	leaf := &Production{LHS: e, RHS: []SymbolRef{{Kind: RefTerminal, Sym: x}}}
	g.addProduction(binary)
	g.addProduction(leaf)

	tokens := []Token{
		mkToken(x, "x", 0),
		mkToken(x, "x", 1),
		mkToken(x, "x", 2),
		mkToken(x, "x", 3),
	}
	droppable := make([]bool, 4)

	arena := newTreeArena()
	pi := newPosIndex([]rune("xxxx"))
	res, d := parse(g, tokens, droppable, arena, pi, NewConfig())
	require.Nil(t, d)

	root := arena.node(res.Root)
	require.Equal(t, binary.ID, root.Production.ID)
	require.Len(t, root.Children, 2)

	// Leftmost-longest means the first child should be the longest
	// possible left operand: here it must cover all but the very last
	// x, i.e. a further-split "x x x" on the left and a lone leaf
	// production "x" on the right, never the reverse.
	left := arena.node(root.Children[0])
	right := arena.node(root.Children[1])
	assert.Equal(t, binary.ID, left.Production.ID)
	assert.Len(t, left.Children, 2)
	assert.Equal(t, leaf.ID, right.Production.ID)
	require.Len(t, right.Children, 1)
	assert.True(t, arena.node(right.Children[0]).IsLeaf)
}
