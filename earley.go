package pretty

// earley.go implements the weighted chart parser from spec.md §4.3.
//
// Both `ignore` and `inject` tokens are modeled uniformly here as
// "droppable" positions in the token stream: at a droppable position
// the chart offers, in addition to any ordinary terminal-scan edge the
// grammar provides, a "drop" edge that advances every item sitting in
// the current column into the next column unchanged, at a weight cost
// of 1. This reproduces spec.md's described ignore/inject fork (fork
// to consume-as-leaf at weight 0, or drop at weight +1) without having
// to partition the token stream up front: whether a droppable token
// ends up consumed as a leaf falls naturally out of whether the
// grammar has a live terminal-scan edge for it at that chart position.
// Weight is additive and position-local, so a completed span's minimum
// weight depends only on its own sub-derivations (optimal
// substructure) -- the parser keeps only the single best (lowest
// weight, then leftmost-longest, then lexicographically-smallest
// production id) item per (production, dot, start) key and per
// (non-terminal, start, end) completion key, rather than an
// ambiguity-preserving forest, since spec.md only asks for *a* minimum
// weight tree.

type itemKey struct {
	prodID int
	dot    int
	start  int
}

type earleyItem struct {
	prod     *Production
	dot      int
	start    int
	weight   int
	children []NodeID
	// splits records the column reached after each RHS symbol matched
	// so far. Two items sharing the same (prod, dot, start) key can
	// still disagree on where their earlier symbols split the input;
	// splits is what lets betterItem break that tie leftmost-longest.
	splits []int
}

type complKey struct {
	sym        Symbol
	start, end int
}

type completion struct {
	prod     *Production
	weight   int
	nodeID   NodeID
	children []NodeID
	splits   []int
}

type earleyChart struct {
	grammar         *Grammar
	arena           *treeArena
	items           []map[itemKey]*earleyItem  // per column
	waiting         []map[Symbol][]*earleyItem // per column: items in that column expecting a symbol
	completions     map[complKey]*completion
	leftmostLongest bool
}

func newEarleyChart(g *Grammar, arena *treeArena, numColumns int, leftmostLongest bool) *earleyChart {
	c := &earleyChart{
		grammar:         g,
		arena:           arena,
		items:           make([]map[itemKey]*earleyItem, numColumns),
		waiting:         make([]map[Symbol][]*earleyItem, numColumns),
		completions:     make(map[complKey]*completion),
		leftmostLongest: leftmostLongest,
	}
	for i := range c.items {
		c.items[i] = make(map[itemKey]*earleyItem)
		c.waiting[i] = make(map[Symbol][]*earleyItem)
	}
	return c
}

// betterItem reports whether candidate should replace existing under
// spec.md's pinned tie-break (weight, then leftmost-longest split,
// then production-id lexicographic order -- see DESIGN.md Open
// Question 2). leftmostLongest gates the split comparison; when it is
// off, ties fall through straight to the production-id order, leaving
// same-production ambiguity resolved by accidental arrival order (used
// by tests isolating the weight/id comparisons from the split one).
func betterItem(candidate, existing *earleyItem, leftmostLongest bool) bool {
	if existing == nil {
		return true
	}
	if candidate.weight != existing.weight {
		return candidate.weight < existing.weight
	}
	if leftmostLongest {
		if cmp := compareSplits(candidate.splits, existing.splits); cmp != 0 {
			return cmp > 0
		}
	}
	return candidate.prod.ID < existing.prod.ID
}

func betterCompletion(weight int, prod *Production, splits []int, existing *completion, leftmostLongest bool) bool {
	if existing == nil {
		return true
	}
	if weight != existing.weight {
		return weight < existing.weight
	}
	if leftmostLongest {
		if cmp := compareSplits(splits, existing.splits); cmp != 0 {
			return cmp > 0
		}
	}
	return prod.ID < existing.prod.ID
}

// compareSplits orders two split-point sequences, over their common
// prefix, by preferring the one whose earliest (leftmost) differing
// symbol reaches further right, i.e. consumes more input -- greedy
// leftmost-longest disambiguation among derivations that otherwise tie
// on weight. It returns a positive number if a wins, negative if b
// wins, 0 if the common prefix is equal.
func compareSplits(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return 0
}

// nextRef returns the RHS reference at item's dot, or ok=false if the
// item is complete.
func nextRef(item *earleyItem) (SymbolRef, bool) {
	if item.dot >= len(item.prod.RHS) {
		return SymbolRef{}, false
	}
	return item.prod.RHS[item.dot], true
}

// refSymbol returns the symbol an Earley predict/complete step should
// treat as "the non-terminal this reference expects" -- terminals have
// no such symbol.
func refSymbol(ref SymbolRef) (Symbol, bool) {
	switch ref.Kind {
	case RefNonterminal, RefOptional, RefList:
		return ref.Sym, true
	default:
		return 0, false
	}
}

// buildNode materializes a TreeNode for a completed production,
// flattening list-marker productions so that `{X}` never produces a
// right- or left-leaning chain in the tree (§4.1, §8 property 11).
func (c *earleyChart) buildNode(prod *Production, children []NodeID) NodeID {
	if prod.IsListMarker {
		// children is either [] (the `listMarker -> ε` base case) or
		// [tailListNode, elementNode] (the `listMarker -> listMarker X`
		// recursive case, built left-recursively so the new element is
		// appended after a copy of the tail node's flat children).
		if len(children) == 0 {
			return c.arena.newInternal(prod, nil)
		}
		tail := c.arena.node(children[0])
		flat := append(append([]NodeID{}, tail.Children...), children[1])
		return c.arena.newInternal(prod, flat)
	}
	return c.arena.newInternal(prod, children)
}

// complete registers a finished production's span and, if it improves
// on any previously recorded completion for the same (symbol, start,
// end), propagates it into every item in column `start` waiting on
// that symbol.
func (c *earleyChart) complete(prod *Production, start, end int, weight int, children []NodeID, splits []int, queue *[]*earleyItem) {
	key := complKey{sym: prod.LHS, start: start, end: end}
	existing := c.completions[key]
	if !betterCompletion(weight, prod, splits, existing, c.leftmostLongest) {
		return
	}
	nodeID := c.buildNode(prod, children)
	c.completions[key] = &completion{prod: prod, weight: weight, nodeID: nodeID, children: children, splits: splits}

	for _, waiter := range c.waiting[start][prod.LHS] {
		newChildren := append(append([]NodeID{}, waiter.children...), nodeID)
		newSplits := append(append([]int{}, waiter.splits...), end)
		successor := &earleyItem{
			prod:     waiter.prod,
			dot:      waiter.dot + 1,
			start:    waiter.start,
			weight:   waiter.weight + weight,
			children: newChildren,
			splits:   newSplits,
		}
		*queue = append(*queue, successor)
	}
}

// addItem inserts item into chart column `col` if it improves on
// anything already there for the same key, driving predict/scan-
// registration/complete as a side effect and pushing further work
// onto queue.
func (c *earleyChart) addItem(col int, item *earleyItem, queue *[]*earleyItem) {
	key := itemKey{prodID: item.prod.ID, dot: item.dot, start: item.start}
	if !betterItem(item, c.items[col][key], c.leftmostLongest) {
		return
	}
	c.items[col][key] = item

	ref, ok := nextRef(item)
	if !ok {
		// item is complete: (item.prod -> ..., start=item.start, end=col)
		c.complete(item.prod, item.start, col, item.weight, item.children, item.splits, queue)
		return
	}

	sym, isNonterminal := refSymbol(ref)
	if !isNonterminal {
		return // terminal: handled by the scan pass after the column drains
	}

	c.waiting[col][sym] = append(c.waiting[col][sym], item)

	// Predict: seed item.dot==0 items for every production of sym.
	for _, p := range c.grammar.ByLHS[sym] {
		*queue = append(*queue, &earleyItem{prod: p, dot: 0, start: col})
	}

	// A nullable symbol may already have completed with zero width at
	// this exact column; if so, propagate immediately since predict
	// happens after that completion would have been recorded.
	if comp, ok := c.completions[complKey{sym: sym, start: col, end: col}]; ok {
		newChildren := append(append([]NodeID{}, item.children...), comp.nodeID)
		newSplits := append(append([]int{}, item.splits...), col)
		*queue = append(*queue, &earleyItem{
			prod:     item.prod,
			dot:      item.dot + 1,
			start:    item.start,
			weight:   item.weight + comp.weight,
			children: newChildren,
			splits:   newSplits,
		})
	}
}

// drainColumn runs predict/complete to a fixed point for column col.
func (c *earleyChart) drainColumn(col int, queue []*earleyItem) {
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		c.addItem(col, item, &queue)
	}
}

// parseResult is the outcome of a successful weighted parse: the
// materialized root node and the set of token indices that were
// consumed as ordinary terminal leaves (everything else, among the
// droppable tokens, is either silently dropped or handed to the
// injection pass by the caller).
type parseResult struct {
	Root       NodeID
	UsedTokens map[int]bool
}

// parse runs the weighted Earley chart over tokens for grammar g,
// returning the minimum-weight parse tree, or a Diagnostic citing the
// first column at which the expectation set became empty (§4.3
// "Failure modes").
func parse(g *Grammar, tokens []Token, droppable []bool, arena *treeArena, pi *posIndex, cfg *Config) (*parseResult, *Diagnostic) {
	n := len(tokens)
	chart := newEarleyChart(g, arena, n+1, cfg.LeftmostLongestTiebreak)

	var initial []*earleyItem
	for _, p := range g.ByLHS[g.Start] {
		initial = append(initial, &earleyItem{prod: p, dot: 0, start: 0})
	}
	if len(initial) == 0 {
		d := newDiagnostic(SpecSemanticError, Span{}, "grammar declares no productions for the start symbol")
		return nil, &d
	}

	nextQueue := initial
	lastNonEmpty := -1
	for col := 0; col <= n; col++ {
		chart.drainColumn(col, nextQueue)
		if len(chart.items[col]) > 0 || col == 0 {
			lastNonEmpty = col
		}
		nextQueue = nil
		if col == n {
			break
		}

		tok := tokens[col]

		// Scan: any item in this column expecting exactly this
		// token's terminal kind advances into column col+1 at weight
		// unchanged.
		for _, item := range chart.items[col] {
			ref, ok := nextRef(item)
			if !ok || ref.Kind != RefTerminal || ref.Sym != tok.Kind {
				continue
			}
			leaf := arena.newLeaf(tok)
			nextQueue = append(nextQueue, &earleyItem{
				prod:     item.prod,
				dot:      item.dot + 1,
				start:    item.start,
				weight:   item.weight,
				children: append(append([]NodeID{}, item.children...), leaf),
				splits:   append(append([]int{}, item.splits...), col+1),
			})
		}

		// Drop: at a droppable position, every item survives into the
		// next column untouched but +1 weight, representing "this
		// token was set aside" (dropped if ignorable, deferred to
		// injection if injectable -- the caller decides which from
		// UsedTokens).
		if droppable[col] {
			for _, item := range chart.items[col] {
				nextQueue = append(nextQueue, &earleyItem{
					prod:     item.prod,
					dot:      item.dot,
					start:    item.start,
					weight:   item.weight + 1,
					children: append([]NodeID{}, item.children...),
					splits:   append([]int{}, item.splits...),
				})
			}
		}

		if len(nextQueue) == 0 {
			// Token col can neither be scanned by any live item nor
			// dropped: the expectation set is empty here.
			span := pi.SpanAt(tok.Start, tok.End)
			d := newDiagnostic(ParseError, span, "unexpected token %q: expectation set is empty", tok.Lexeme)
			return nil, &d
		}
	}

	best, ok := chart.completions[complKey{sym: g.Start, start: 0, end: n}]
	if !ok {
		var span Span
		if lastNonEmpty >= 0 && lastNonEmpty < len(tokens) {
			t := tokens[lastNonEmpty]
			span = pi.SpanAt(t.Start, t.End)
		}
		msg := "no derivation of the start symbol covers the input"
		if n == 0 {
			msg = "empty token stream is not accepted by a non-nullable start symbol"
		}
		d := newDiagnostic(ParseError, span, msg)
		return nil, &d
	}

	used := collectUsedTokens(arena, best.nodeID)
	return &parseResult{Root: best.nodeID, UsedTokens: used}, nil
}

// collectUsedTokens walks the materialized tree and records, by
// original token Start offset, every leaf actually present in the
// chosen derivation.
func collectUsedTokens(arena *treeArena, root NodeID) map[int]bool {
	used := make(map[int]bool)
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := arena.node(id)
		if n.IsLeaf {
			used[n.Token.Start] = true
			return
		}
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	walk(root)
	return used
}
