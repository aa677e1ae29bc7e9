package pretty

import "fmt"

// spec_compile.go turns a rawSpec (spec_lang.go's parse output) into
// compiled CDFA/Grammar/Ignore/Inject artifacts, performing every
// semantic check enumerated in spec.md §4.1: trie/range/default
// collisions (delegated to matcher.go), unknown states, undefined
// terminal/non-terminal references, pattern index bounds, and
// ignore/inject conflicts.

// acceptorKey identifies one `^TOKEN [-> dest]` acceptor destination so
// that "multiple expansions of the same TOKEN collapse" (§4.1) reuses
// one auto-synthesized state instead of minting a fresh one per use.
type acceptorKey struct {
	kind      Symbol
	hasResume bool
	resume    Symbol
}

type specCompiler struct {
	tables             *symbolTables
	cdfa               *CDFA
	grammar            *Grammar
	ignore             IgnoreSet
	inject             InjectMap
	acceptorAutoStates map[acceptorKey]Symbol
}

func newSpecCompiler() *specCompiler {
	return &specCompiler{
		tables:             newSymbolTables(),
		cdfa:               newCDFA(),
		grammar:            newGrammar(),
		ignore:             make(IgnoreSet),
		inject:             make(InjectMap),
		acceptorAutoStates: make(map[acceptorKey]Symbol),
	}
}

func semanticErr(span Span, format string, args ...interface{}) *Diagnostic {
	d := newDiagnostic(SpecSemanticError, span, format, args...)
	return &d
}

// compileRawSpec is the second half of CompileSpec: raw AST in, a
// frozen CompiledSpec out.
func compileRawSpec(raw *rawSpec) (*CompiledSpec, *Diagnostic) {
	c := newSpecCompiler()

	for _, a := range raw.Alphabets {
		if !c.cdfa.HasAlphabet {
			c.cdfa.HasAlphabet = true
			c.cdfa.Alphabet = make(map[rune]bool)
		}
		for _, r := range a.Chars {
			c.cdfa.Alphabet[r] = true
		}
	}

	if d := c.compileCDFARegions(raw.CDFAs); d != nil {
		return nil, d
	}
	if d := c.compileGrammarRegions(raw.Grammars); d != nil {
		return nil, d
	}
	if d := c.compileIgnoreInject(raw.Ignores, raw.Injects); d != nil {
		return nil, d
	}

	c.tables.freeze()
	return &CompiledSpec{
		Tables:        c.tables,
		CDFA:          c.cdfa,
		Grammar:       c.grammar,
		Ignore:        c.ignore,
		Inject:        c.inject,
		DefaultConfig: NewConfig(),
	}, nil
}

// --- CDFA ---

func (c *specCompiler) compileCDFARegions(regions []rawCDFARegion) *Diagnostic {
	if len(regions) == 0 {
		return semanticErr(Span{}, "specification declares no cdfa region")
	}

	startSet := false
	for _, region := range regions {
		for _, rs := range region.States {
			for _, name := range rs.Names {
				sym := c.tables.states.intern(name)
				if !startSet {
					c.cdfa.Start = sym
					startSet = true
				}
				c.cdfa.stateFor(sym)
			}
		}
	}

	for _, region := range regions {
		for _, rs := range region.States {
			for _, name := range rs.Names {
				sym, _ := c.tables.states.lookup(name)
				sd := c.cdfa.stateFor(sym)
				if rs.Acceptor != nil {
					acc, d := c.compileStateAcceptor(rs.Acceptor)
					if d != nil {
						return d
					}
					if sd.Acceptor != nil && !acceptorsEqual(sd.Acceptor, acc) {
						return semanticErr(rs.Span, "state %q already declares a different acceptor", name)
					}
					sd.Acceptor = acc
				}
				for i := range rs.Transitions {
					if d := c.compileTransition(sd, &rs.Transitions[i]); d != nil {
						return d
					}
				}
			}
		}
	}
	return nil
}

func acceptorsEqual(a, b *Acceptor) bool {
	return a.Kind == b.Kind && a.Dest == b.Dest && a.HasDest == b.HasDest
}

func (c *specCompiler) compileStateAcceptor(ra *rawAcceptor) (*Acceptor, *Diagnostic) {
	acc := &Acceptor{}
	if ra.IsSilent {
		acc.Kind = silentKind
	} else {
		acc.Kind = c.tables.terminals.intern(ra.TokenName)
	}
	if ra.HasDest {
		sym, ok := c.tables.states.lookup(ra.DestName)
		if !ok {
			return nil, semanticErr(ra.Span, "unknown destination state %q", ra.DestName)
		}
		acc.Dest = sym
		acc.HasDest = true
	}
	return acc, nil
}

// acceptorAutoState implements §4.1's "acceptor sugar": a transition
// destination written `^TOKEN [-> dest]` compiles to a real state with
// only a state Acceptor and no outbound transitions, synthesized once
// per distinct (token, resume) pair.
func (c *specCompiler) acceptorAutoState(ra *rawAcceptor) (Symbol, *Diagnostic) {
	var kindSym Symbol
	if ra.IsSilent {
		kindSym = silentKind
	} else {
		kindSym = c.tables.terminals.intern(ra.TokenName)
	}
	var resume Symbol
	hasResume := ra.HasDest
	if hasResume {
		sym, ok := c.tables.states.lookup(ra.DestName)
		if !ok {
			return 0, semanticErr(ra.Span, "unknown destination state %q", ra.DestName)
		}
		resume = sym
	}
	key := acceptorKey{kind: kindSym, hasResume: hasResume, resume: resume}
	if existing, ok := c.acceptorAutoStates[key]; ok {
		return existing, nil
	}
	name := fmt.Sprintf("^accept%d", len(c.acceptorAutoStates))
	sym := c.tables.states.intern(name)
	sd := c.cdfa.stateFor(sym)
	sd.Acceptor = &Acceptor{Kind: kindSym, Dest: resume, HasDest: hasResume}
	c.acceptorAutoStates[key] = sym
	return sym, nil
}

func (c *specCompiler) compileTransition(sd *StateDef, rt *rawTransition) *Diagnostic {
	var destSym Symbol
	if rt.Acceptor != nil {
		sym, d := c.acceptorAutoState(rt.Acceptor)
		if d != nil {
			return d
		}
		destSym = sym
	} else {
		sym, ok := c.tables.states.lookup(rt.DestName)
		if !ok {
			return semanticErr(rt.Span, "unknown destination state %q", rt.DestName)
		}
		destSym = sym
	}

	owner := len(sd.Transitions)
	sd.Transitions = append(sd.Transitions, Transition{Dest: destSym, Consume: rt.Consume})

	for _, m := range rt.Matchers {
		if d := c.checkMatcherAlphabet(m, rt.Span); d != nil {
			return d
		}
		var err error
		switch m.Kind {
		case MatcherSimple:
			err = sd.Matchers.insertChain([]rune{m.Simple}, owner)
		case MatcherChain:
			err = sd.Matchers.insertChain([]rune(m.Chain), owner)
		case MatcherRange:
			err = sd.Matchers.insertRange(m.RangeLo, m.RangeHi, owner)
		case MatcherDefault:
			err = sd.Matchers.setDefault(owner)
		}
		if err != nil {
			return semanticErr(rt.Span, "%s", err.Error())
		}
	}
	return nil
}

func (c *specCompiler) checkMatcherAlphabet(m Matcher, span Span) *Diagnostic {
	if !c.cdfa.HasAlphabet {
		return nil
	}
	check := func(r rune) *Diagnostic {
		if !c.cdfa.Alphabet[r] {
			return semanticErr(span, "character %q used in cdfa outside declared alphabet", r)
		}
		return nil
	}
	switch m.Kind {
	case MatcherSimple:
		return check(m.Simple)
	case MatcherChain:
		for _, r := range m.Chain {
			if d := check(r); d != nil {
				return d
			}
		}
	case MatcherRange:
		if d := check(m.RangeLo); d != nil {
			return d
		}
		if d := check(m.RangeHi); d != nil {
			return d
		}
	}
	return nil
}

// --- Grammar ---

func (c *specCompiler) compileGrammarRegions(regions []rawGrammarRegion) *Diagnostic {
	if len(regions) == 0 {
		return semanticErr(Span{}, "specification declares no grammar region")
	}

	startSet := false
	for _, region := range regions {
		for _, prod := range region.Productions {
			sym := c.tables.nonterminals.intern(prod.LHS)
			if !startSet {
				c.grammar.Start = sym
				startSet = true
			}
		}
	}

	for _, region := range regions {
		for _, prod := range region.Productions {
			lhsSym, _ := c.tables.nonterminals.lookup(prod.LHS)
			for _, alt := range prod.Alternatives {
				// Register the production before resolving its RHS, so
				// helper productions added by [X]/{X} desugaring get
				// later ids than the production that uses them.
				p := &Production{LHS: lhsSym}
				c.grammar.addProduction(p)
				refs, d := c.resolveRHS(alt.Symbols)
				if d != nil {
					return d
				}
				var pat *Pattern
				switch {
				case alt.HasPattern:
					p, d := parsePattern(alt.PatternText, alt.Span, c.tables.variables)
					if d != nil {
						return d
					}
					pat = p
				case prod.HasDefaultPattern:
					p, d := parsePattern(prod.DefaultPatternText, prod.Span, c.tables.variables)
					if d != nil {
						return d
					}
					pat = p
				}
				if pat != nil {
					if d := validatePatternIndices(pat, len(refs), alt.Span); d != nil {
						return d
					}
				}
				p.RHS = refs
				p.Pattern = pat
			}
		}
	}
	return nil
}

func (c *specCompiler) lookupSymbol(name string) (SymbolRefKind, Symbol, bool) {
	if sym, ok := c.tables.terminals.lookup(name); ok {
		return RefTerminal, sym, true
	}
	if sym, ok := c.tables.nonterminals.lookup(name); ok {
		return RefNonterminal, sym, true
	}
	return 0, 0, false
}

func (c *specCompiler) symbolName(kind SymbolRefKind, sym Symbol) string {
	if kind == RefTerminal {
		return c.tables.terminals.name(sym)
	}
	return c.tables.nonterminals.name(sym)
}

func (c *specCompiler) resolveRHS(syms []rawSymRef) ([]SymbolRef, *Diagnostic) {
	refs := make([]SymbolRef, 0, len(syms))
	for _, rs := range syms {
		kind, sym, ok := c.lookupSymbol(rs.Name)
		if !ok {
			return nil, semanticErr(rs.Span, "undefined symbol %q", rs.Name)
		}
		switch {
		case rs.Optional:
			optSym := c.desugarOptional(kind, sym)
			refs = append(refs, SymbolRef{Kind: RefOptional, Sym: optSym, Inner: sym, InnerKind: kind})
		case rs.ListWrap:
			listSym := c.desugarList(kind, sym)
			refs = append(refs, SymbolRef{Kind: RefList, Sym: listSym, Inner: sym, InnerKind: kind})
		default:
			refs = append(refs, SymbolRef{Kind: kind, Sym: sym})
		}
	}
	return refs, nil
}

// desugarOptional implements §4.1: `[X]` yields one auto non-terminal
// `X?` with `X? -> X` and `X? -> ε`, both weight 0, shared across all
// uses of `[X]`.
func (c *specCompiler) desugarOptional(kind SymbolRefKind, sym Symbol) Symbol {
	key := wrapKey{kind: kind, sym: sym}
	if existing, ok := c.grammar.optionalOf[key]; ok {
		return existing
	}
	name := c.symbolName(kind, sym) + "?"
	optSym := c.tables.nonterminals.intern(name)
	c.grammar.optionalOf[key] = optSym
	c.grammar.addProduction(&Production{LHS: optSym, RHS: []SymbolRef{{Kind: kind, Sym: sym}}})
	c.grammar.addProduction(&Production{LHS: optSym, RHS: nil})
	return optSym
}

// desugarList implements §4.1's flattening list marker: `{X}` yields
// one auto non-terminal built left-recursively (`list -> list X | ε`)
// so earley.go's buildNode can flatten it by copying the tail node's
// children and appending the new element (see buildNode).
func (c *specCompiler) desugarList(kind SymbolRefKind, sym Symbol) Symbol {
	key := wrapKey{kind: kind, sym: sym}
	if existing, ok := c.grammar.listOf[key]; ok {
		return existing
	}
	name := c.symbolName(kind, sym) + "*"
	listSym := c.tables.nonterminals.intern(name)
	c.grammar.listOf[key] = listSym
	c.grammar.addProduction(&Production{LHS: listSym, RHS: nil, IsListMarker: true, ListElement: sym})
	c.grammar.addProduction(&Production{
		LHS:          listSym,
		RHS:          []SymbolRef{{Kind: RefNonterminal, Sym: listSym}, {Kind: kind, Sym: sym}},
		IsListMarker: true,
		ListElement:  sym,
	})
	return listSym
}

// validatePatternIndices checks every capture segment's index (explicit
// or implicit) against childCount, per §4.4's implicit-indexing rule:
// the implicit counter advances once per capture segment regardless of
// whether that segment's index was written explicitly.
func validatePatternIndices(pat *Pattern, childCount int, span Span) *Diagnostic {
	implicit := 0
	for _, seg := range pat.Segments {
		if seg.Kind != SegCapture {
			continue
		}
		idx := seg.Index
		if !seg.HasIndex {
			idx = implicit
		}
		if idx < 0 || idx >= childCount {
			return semanticErr(span, "pattern capture index %d out of range (production has %d children)", idx, childCount)
		}
		implicit++
	}
	return nil
}

// --- Ignore / Inject ---

func (c *specCompiler) compileIgnoreInject(ignores []rawIgnore, injects []rawInject) *Diagnostic {
	for _, ig := range ignores {
		sym, ok := c.tables.terminals.lookup(ig.TokenName)
		if !ok {
			return semanticErr(ig.Span, "unknown terminal %q in ignore", ig.TokenName)
		}
		c.ignore[sym] = true
	}
	for _, inj := range injects {
		sym, ok := c.tables.terminals.lookup(inj.TokenName)
		if !ok {
			return semanticErr(inj.Span, "unknown terminal %q in inject", inj.TokenName)
		}
		if c.ignore[sym] {
			return semanticErr(inj.Span, "terminal %q declared in both ignore and inject", inj.TokenName)
		}
		if _, dup := c.inject[sym]; dup {
			return semanticErr(inj.Span, "terminal %q injected more than once", inj.TokenName)
		}
		pat, d := parsePattern(inj.PatternText, inj.Span, c.tables.variables)
		if d != nil {
			return d
		}
		c.inject[sym] = InjectEntry{Affinity: inj.Affinity, Pattern: pat}
	}
	return nil
}
