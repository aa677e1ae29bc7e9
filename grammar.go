package pretty

// SymbolRefKind tags what an RHS reference in a production points to.
type SymbolRefKind int

const (
	RefTerminal SymbolRefKind = iota
	RefNonterminal
	RefOptional // desugars to an auto non-terminal `X?`
	RefList     // desugars to a flattening "list-of-X" marker
)

// SymbolRef is one element of a production's right-hand side.
type SymbolRef struct {
	Kind SymbolRefKind
	// Sym is the referenced terminal or non-terminal symbol for
	// RefTerminal/RefNonterminal, or the *desugared* auto non-terminal
	// for RefOptional/RefList (see grammar.optionalOf/listOf below).
	Sym Symbol
	// Inner is the wrapped symbol for RefOptional/RefList, i.e. the
	// `X` in `[X]` or `{X}`. It is recorded at compile time; the parser
	// and formatter do not read it.
	Inner     Symbol
	InnerKind SymbolRefKind
}

// Production is one grammar rule: LHS -> RHS, with a weight field and
// an optional compiled Pattern. Every production, including the auto
// ones the desugaring introduces, carries weight 0; the parser's
// weights come only from dropped tokens and do not read this field.
type Production struct {
	ID      int // dense, 0-based; used for the lexicographic tie-break in §4.3
	LHS     Symbol
	RHS     []SymbolRef
	Pattern *Pattern // nil means "use the default concatenation pattern"
	Weight  int
	// IsListMarker is true for the auto-generated left-recursive
	// productions backing a `{X}` inline list; the parser recognizes
	// productions with this flag and flattens them at materialization
	// time instead of building a left-leaning chain in the tree
	// (§4.1).
	IsListMarker bool
	ListElement  Symbol // the `X` in `{X}`, meaningful iff IsListMarker
}

// Grammar is the compiled CFG: dense productions plus lookup indices,
// and the desugaring tables for optional wrappers and inline lists so
// that repeated uses of `[X]`/`{X}` for the same X share one auto
// non-terminal (§4.1).
type Grammar struct {
	Productions []*Production
	// ByLHS indexes productions by left-hand-side non-terminal for the
	// parser's predict step.
	ByLHS map[Symbol][]*Production
	Start Symbol // LHS of the first production in the first grammar region

	optionalOf map[wrapKey]Symbol // X -> X?
	listOf     map[wrapKey]Symbol // X -> list-of-X marker non-terminal
}

// wrapKey identifies the symbol an `[X]`/`{X}` wrapper wraps. Terminal
// and non-terminal symbols are interned in separate namespaces and can
// share a numeric value, so the desugaring caches key on (kind, sym)
// rather than sym alone.
type wrapKey struct {
	kind SymbolRefKind
	sym  Symbol
}

func newGrammar() *Grammar {
	return &Grammar{
		ByLHS:      make(map[Symbol][]*Production),
		optionalOf: make(map[wrapKey]Symbol),
		listOf:     make(map[wrapKey]Symbol),
	}
}

func (g *Grammar) addProduction(p *Production) {
	p.ID = len(g.Productions)
	g.Productions = append(g.Productions, p)
	g.ByLHS[p.LHS] = append(g.ByLHS[p.LHS], p)
}

// IsNullable reports whether sym can derive the empty string (the
// `X? -> ε` production makes every `X?` nullable by construction). The
// parser does not call it: an empty input against a non-nullable start
// fails there because no start completion covers the empty span.
func (g *Grammar) IsNullable(sym Symbol, seen map[Symbol]bool) bool {
	if seen[sym] {
		return false
	}
	seen[sym] = true
	for _, p := range g.ByLHS[sym] {
		if len(p.RHS) == 0 {
			return true
		}
		allNullable := true
		for _, ref := range p.RHS {
			switch ref.Kind {
			case RefTerminal:
				allNullable = false
			case RefNonterminal:
				if !g.IsNullable(ref.Sym, seen) {
					allNullable = false
				}
			case RefOptional:
				// always nullable by desugaring
			case RefList:
				// zero-or-more lists are nullable
			}
			if !allNullable {
				break
			}
		}
		if allNullable {
			return true
		}
	}
	return false
}
