package pretty

// api.go is the engine's public surface (§6): compile a specification
// once, then format any number of inputs against it. A *CompiledSpec is
// immutable after CompileSpec returns (its symbol tables are frozen),
// so it is safe to share across goroutines formatting concurrently
// (§5).
type CompiledSpec struct {
	Tables        *symbolTables
	CDFA          *CDFA
	Grammar       *Grammar
	Ignore        IgnoreSet
	Inject        InjectMap
	DefaultConfig *Config
}

// CompileSpec parses and semantically checks a specification's source
// text, returning a ready-to-use CompiledSpec or the first Diagnostic
// encountered.
func CompileSpec(source string) (*CompiledSpec, *Diagnostic) {
	raw, d := parseSpecText(source)
	if d != nil {
		return nil, d
	}
	return compileRawSpec(raw)
}

// FormatOptions tunes a single Format call. A zero-value FormatOptions
// selects the compiled spec's own start symbol and default Config.
type FormatOptions struct {
	// StartOverride names a non-terminal to parse from instead of the
	// grammar's declared start symbol. Empty means "use the default".
	StartOverride string
	// Config overrides the spec's DefaultConfig for this call, e.g. to
	// disable injection rendering while isolating a parse-weight bug.
	Config *Config
}

// Format lexes, parses, and renders input against a compiled
// specification, returning the formatted output or the first
// Diagnostic raised by any stage (§6 "format").
func Format(spec *CompiledSpec, input string, opts FormatOptions) (string, *Diagnostic) {
	cfg := opts.Config
	if cfg == nil {
		cfg = spec.DefaultConfig
	}

	runes := []rune(input)
	pi := newPosIndex(runes)

	tokens, d := lex(spec.CDFA, runes, cfg)
	if d != nil {
		return "", d
	}

	droppable := make([]bool, len(tokens))
	for i, t := range tokens {
		if spec.Ignore[t.Kind] {
			droppable[i] = true
			continue
		}
		if _, ok := spec.Inject[t.Kind]; ok {
			droppable[i] = true
		}
	}

	g := spec.Grammar
	if opts.StartOverride != "" {
		sym, ok := spec.Tables.nonterminals.lookup(opts.StartOverride)
		if !ok {
			d := newDiagnostic(SpecSemanticError, Span{}, "unknown start non-terminal override %q", opts.StartOverride)
			return "", &d
		}
		overridden := *g
		overridden.Start = sym
		g = &overridden
	}

	arena := newTreeArena()
	res, d := parse(g, tokens, droppable, arena, pi, cfg)
	if d != nil {
		return "", d
	}

	return renderTree(spec, tokens, arena, res.Root, res.UsedTokens, cfg), nil
}
