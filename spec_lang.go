package pretty

// spec_lang.go tokenizes and parses the specification surface syntax
// described in spec.md §6 into a raw, unvalidated AST. Per the "hand-roll
// is simpler" design note, this is a small hand-written recursive-descent
// parser rather than a bootstrap through the engine's own CDFA/Earley
// machinery -- it only has to run once per compiled spec and never
// touches the hot lex/parse/format path.

import "unicode"

type specTokKind int

const (
	stEOF specTokKind = iota
	stIdent
	stString  // 'matcher literal'
	stBacktick
	stKwAlphabet
	stKwCdfa
	stKwGrammar
	stKwIgnore
	stKwInject
	stKwLeft
	stKwRight
	stLBrace
	stRBrace
	stLBracket
	stRBracket
	stPipe
	stSemi
	stArrow       // ->
	stDoubleArrow // ->>
	stCaret
	stDotDot // ..
	stUnderscore
)

type specToken struct {
	kind specTokKind
	text string
	span Span
}

var specKeywords = map[string]specTokKind{
	"alphabet": stKwAlphabet,
	"cdfa":     stKwCdfa,
	"grammar":  stKwGrammar,
	"ignore":   stKwIgnore,
	"inject":   stKwInject,
	"left":     stKwLeft,
	"right":    stKwRight,
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

// tokenizeSpec turns spec text into a token stream. `#` introduces a
// line comment; the grammar itself has no other use for `#`.
func tokenizeSpec(src string) ([]specToken, *Diagnostic) {
	runes := []rune(src)
	pi := newPosIndex(runes)
	n := len(runes)
	var toks []specToken
	i := 0

	readQuoted := func(quote rune) (string, int, bool) {
		start := i
		i++
		var buf []rune
		for i < n {
			c := runes[i]
			if c == '\\' && i+1 < n {
				buf = append(buf, c, runes[i+1])
				i += 2
				continue
			}
			if c == quote {
				i++
				return string(buf), start, true
			}
			buf = append(buf, c)
			i++
		}
		return "", start, false
	}

	for i < n {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '#':
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == '\'':
			text, start, ok := readQuoted('\'')
			if !ok {
				d := newDiagnostic(SpecSyntaxError, pi.SpanAt(start, i), "unterminated string literal")
				return nil, &d
			}
			toks = append(toks, specToken{kind: stString, text: text, span: pi.SpanAt(start, i)})
		case r == '`':
			text, start, ok := readQuoted('`')
			if !ok {
				d := newDiagnostic(SpecSyntaxError, pi.SpanAt(start, i), "unterminated pattern literal")
				return nil, &d
			}
			toks = append(toks, specToken{kind: stBacktick, text: text, span: pi.SpanAt(start, i)})
		case r == '{':
			toks = append(toks, specToken{kind: stLBrace, span: pi.SpanAt(i, i+1)})
			i++
		case r == '}':
			toks = append(toks, specToken{kind: stRBrace, span: pi.SpanAt(i, i+1)})
			i++
		case r == '[':
			toks = append(toks, specToken{kind: stLBracket, span: pi.SpanAt(i, i+1)})
			i++
		case r == ']':
			toks = append(toks, specToken{kind: stRBracket, span: pi.SpanAt(i, i+1)})
			i++
		case r == '|':
			toks = append(toks, specToken{kind: stPipe, span: pi.SpanAt(i, i+1)})
			i++
		case r == ';':
			toks = append(toks, specToken{kind: stSemi, span: pi.SpanAt(i, i+1)})
			i++
		case r == '^':
			toks = append(toks, specToken{kind: stCaret, span: pi.SpanAt(i, i+1)})
			i++
		case r == '.':
			if i+1 < n && runes[i+1] == '.' {
				toks = append(toks, specToken{kind: stDotDot, span: pi.SpanAt(i, i+2)})
				i += 2
			} else {
				d := newDiagnostic(SpecSyntaxError, pi.SpanAt(i, i+1), "unexpected character %q", r)
				return nil, &d
			}
		case r == '-':
			if i+1 < n && runes[i+1] == '>' {
				if i+2 < n && runes[i+2] == '>' {
					toks = append(toks, specToken{kind: stDoubleArrow, span: pi.SpanAt(i, i+3)})
					i += 3
				} else {
					toks = append(toks, specToken{kind: stArrow, span: pi.SpanAt(i, i+2)})
					i += 2
				}
			} else {
				d := newDiagnostic(SpecSyntaxError, pi.SpanAt(i, i+1), "unexpected character %q", r)
				return nil, &d
			}
		case isIdentStart(r):
			start := i
			i++
			for i < n && isIdentPart(runes[i]) {
				i++
			}
			text := string(runes[start:i])
			span := pi.SpanAt(start, i)
			switch {
			case text == "_":
				toks = append(toks, specToken{kind: stUnderscore, span: span})
			default:
				if kw, ok := specKeywords[text]; ok {
					toks = append(toks, specToken{kind: kw, text: text, span: span})
				} else {
					toks = append(toks, specToken{kind: stIdent, text: text, span: span})
				}
			}
		default:
			d := newDiagnostic(SpecSyntaxError, pi.SpanAt(i, i+1), "unexpected character %q", r)
			return nil, &d
		}
	}
	toks = append(toks, specToken{kind: stEOF, span: pi.SpanAt(n, n)})
	return toks, nil
}

// Raw AST: unvalidated syntax tree handed to spec_compile.go for
// semantic checking, symbol interning, and desugaring.

type rawAlphabet struct {
	Chars string
	Span  Span
}

type rawAcceptor struct {
	TokenName string
	IsSilent  bool
	DestName  string
	HasDest   bool
	Span      Span
}

type rawTransition struct {
	Matchers []Matcher
	Consume  ConsumeMode
	DestName string // set when the destination is a plain state name
	Acceptor *rawAcceptor
	Span     Span
}

type rawState struct {
	Names       []string
	Acceptor    *rawAcceptor
	Transitions []rawTransition
	Span        Span
}

type rawCDFARegion struct {
	States []rawState
}

// rawSymRef is a bare RHS reference; whether it names a terminal or a
// non-terminal is decided during compilation by table lookup order
// (terminals first, then non-terminals), since both namespaces share
// plain identifier syntax here.
type rawSymRef struct {
	Name     string
	Optional bool // written [X]
	ListWrap bool // written {X}
	Span     Span
}

type rawRHS struct {
	Symbols     []rawSymRef
	PatternText string
	HasPattern  bool
	Span        Span
}

type rawProduction struct {
	LHS                 string
	DefaultPatternText  string
	HasDefaultPattern   bool
	Alternatives        []rawRHS
	Span                Span
}

type rawGrammarRegion struct {
	Productions []rawProduction
}

type rawIgnore struct {
	TokenName string
	Span      Span
}

type rawInject struct {
	Affinity    InjectAffinity
	TokenName   string
	PatternText string
	Span        Span
}

type rawSpec struct {
	Alphabets []rawAlphabet
	CDFAs     []rawCDFARegion
	Grammars  []rawGrammarRegion
	Ignores   []rawIgnore
	Injects   []rawInject
}

type specParser struct {
	toks []specToken
	pos  int
}

func (p *specParser) peek() specToken { return p.toks[p.pos] }

func (p *specParser) advance() specToken {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *specParser) expect(k specTokKind) (specToken, *Diagnostic) {
	if p.peek().kind != k {
		return specToken{}, p.errorf("unexpected token near %q", p.peek().text)
	}
	return p.advance(), nil
}

func (p *specParser) errorf(format string, args ...interface{}) *Diagnostic {
	d := newDiagnostic(SpecSyntaxError, p.peek().span, format, args...)
	return &d
}

func (p *specParser) errAt(span Span, format string, args ...interface{}) *Diagnostic {
	d := newDiagnostic(SpecSyntaxError, span, format, args...)
	return &d
}

// parseSpecText is the entry point: tokenize then parse top-level
// regions until EOF (§4.1 "Regions" -- multiple same-kind regions are
// collected here and merged by the compiler).
func parseSpecText(src string) (*rawSpec, *Diagnostic) {
	toks, d := tokenizeSpec(src)
	if d != nil {
		return nil, d
	}
	p := &specParser{toks: toks}
	spec := &rawSpec{}
	for p.peek().kind != stEOF {
		switch p.peek().kind {
		case stKwAlphabet:
			a, d := p.parseAlphabet()
			if d != nil {
				return nil, d
			}
			spec.Alphabets = append(spec.Alphabets, *a)
		case stKwCdfa:
			c, d := p.parseCDFARegion()
			if d != nil {
				return nil, d
			}
			spec.CDFAs = append(spec.CDFAs, *c)
		case stKwGrammar:
			g, d := p.parseGrammarRegion()
			if d != nil {
				return nil, d
			}
			spec.Grammars = append(spec.Grammars, *g)
		case stKwIgnore:
			ig, d := p.parseIgnore()
			if d != nil {
				return nil, d
			}
			spec.Ignores = append(spec.Ignores, *ig)
		case stKwInject:
			inj, d := p.parseInject()
			if d != nil {
				return nil, d
			}
			spec.Injects = append(spec.Injects, *inj)
		default:
			return nil, p.errorf("expected a region keyword (alphabet, cdfa, grammar, ignore, inject)")
		}
	}
	return spec, nil
}

func (p *specParser) parseAlphabet() (*rawAlphabet, *Diagnostic) {
	kw, d := p.expect(stKwAlphabet)
	if d != nil {
		return nil, d
	}
	tok, d := p.expect(stString)
	if d != nil {
		return nil, d
	}
	return &rawAlphabet{Chars: unescape(tok.text), Span: kw.span}, nil
}

func (p *specParser) parseCDFARegion() (*rawCDFARegion, *Diagnostic) {
	if _, d := p.expect(stKwCdfa); d != nil {
		return nil, d
	}
	if _, d := p.expect(stLBrace); d != nil {
		return nil, d
	}
	region := &rawCDFARegion{}
	for p.peek().kind != stRBrace {
		s, d := p.parseState()
		if d != nil {
			return nil, d
		}
		region.States = append(region.States, *s)
	}
	p.advance()
	return region, nil
}

func (p *specParser) parseState() (*rawState, *Diagnostic) {
	span := p.peek().span
	nameTok, d := p.expect(stIdent)
	if d != nil {
		return nil, d
	}
	names := []string{nameTok.text}
	for p.peek().kind == stPipe {
		p.advance()
		idTok, d := p.expect(stIdent)
		if d != nil {
			return nil, d
		}
		names = append(names, idTok.text)
	}

	var acc *rawAcceptor
	if p.peek().kind == stCaret {
		a, d := p.parseAcceptor()
		if d != nil {
			return nil, d
		}
		acc = a
	}

	var transitions []rawTransition
	for p.peek().kind == stString || p.peek().kind == stUnderscore {
		t, d := p.parseTransition()
		if d != nil {
			return nil, d
		}
		transitions = append(transitions, *t)
	}

	if _, d := p.expect(stSemi); d != nil {
		return nil, d
	}
	return &rawState{Names: names, Acceptor: acc, Transitions: transitions, Span: span}, nil
}

// parseAcceptor handles both a state-level `^accept [-> dest]` and a
// transition destination written as `^TOK [-> dest]`.
func (p *specParser) parseAcceptor() (*rawAcceptor, *Diagnostic) {
	caretTok, d := p.expect(stCaret)
	if d != nil {
		return nil, d
	}
	var tokenName string
	var silent bool
	if p.peek().kind == stUnderscore {
		p.advance()
		silent = true
	} else {
		idTok, d := p.expect(stIdent)
		if d != nil {
			return nil, d
		}
		tokenName = idTok.text
	}
	var dest string
	var hasDest bool
	if p.peek().kind == stArrow {
		p.advance()
		idTok, d := p.expect(stIdent)
		if d != nil {
			return nil, d
		}
		dest = idTok.text
		hasDest = true
	}
	return &rawAcceptor{TokenName: tokenName, IsSilent: silent, DestName: dest, HasDest: hasDest, Span: caretTok.span}, nil
}

func (p *specParser) parseMatcher() (Matcher, *Diagnostic) {
	if p.peek().kind == stUnderscore {
		p.advance()
		return DefaultMatcher(), nil
	}
	strTok, d := p.expect(stString)
	if d != nil {
		return Matcher{}, d
	}
	lo := unescape(strTok.text)
	if p.peek().kind == stDotDot {
		p.advance()
		hiTok, d := p.expect(stString)
		if d != nil {
			return Matcher{}, d
		}
		hi := unescape(hiTok.text)
		loRunes, hiRunes := []rune(lo), []rune(hi)
		if len(loRunes) != 1 || len(hiRunes) != 1 {
			return Matcher{}, p.errAt(strTok.span, "range endpoints must be single characters")
		}
		return RangeMatcher(loRunes[0], hiRunes[0]), nil
	}
	runes := []rune(lo)
	switch len(runes) {
	case 0:
		return Matcher{}, p.errAt(strTok.span, "empty matcher literal")
	case 1:
		return SimpleMatcher(runes[0]), nil
	default:
		return ChainMatcher(lo), nil
	}
}

func (p *specParser) parseTransition() (*rawTransition, *Diagnostic) {
	span := p.peek().span
	m, d := p.parseMatcher()
	if d != nil {
		return nil, d
	}
	matchers := []Matcher{m}
	for p.peek().kind == stPipe {
		p.advance()
		m, d := p.parseMatcher()
		if d != nil {
			return nil, d
		}
		matchers = append(matchers, m)
	}

	var mode ConsumeMode
	switch p.peek().kind {
	case stArrow:
		mode = ConsumeAll
		p.advance()
	case stDoubleArrow:
		mode = ConsumeNone
		p.advance()
	default:
		return nil, p.errorf("expected -> or ->>")
	}

	var destName string
	var acc *rawAcceptor
	if p.peek().kind == stCaret {
		a, d := p.parseAcceptor()
		if d != nil {
			return nil, d
		}
		acc = a
	} else {
		idTok, d := p.expect(stIdent)
		if d != nil {
			return nil, d
		}
		destName = idTok.text
	}
	return &rawTransition{Matchers: matchers, Consume: mode, DestName: destName, Acceptor: acc, Span: span}, nil
}

func (p *specParser) parseGrammarRegion() (*rawGrammarRegion, *Diagnostic) {
	if _, d := p.expect(stKwGrammar); d != nil {
		return nil, d
	}
	if _, d := p.expect(stLBrace); d != nil {
		return nil, d
	}
	region := &rawGrammarRegion{}
	for p.peek().kind != stRBrace {
		prod, d := p.parseProduction()
		if d != nil {
			return nil, d
		}
		region.Productions = append(region.Productions, *prod)
	}
	p.advance()
	if len(region.Productions) == 0 {
		return nil, p.errorf("grammar region declares no productions")
	}
	return region, nil
}

func (p *specParser) parseProduction() (*rawProduction, *Diagnostic) {
	lhsTok, d := p.expect(stIdent)
	if d != nil {
		return nil, d
	}
	prod := &rawProduction{LHS: lhsTok.text, Span: lhsTok.span}
	if p.peek().kind == stBacktick {
		tok := p.advance()
		prod.HasDefaultPattern = true
		prod.DefaultPatternText = tok.text
	}
	for p.peek().kind == stPipe {
		p.advance()
		rhs, d := p.parseRHS()
		if d != nil {
			return nil, d
		}
		prod.Alternatives = append(prod.Alternatives, *rhs)
	}
	if len(prod.Alternatives) == 0 {
		return nil, p.errAt(lhsTok.span, "production %q declares no alternatives", lhsTok.text)
	}
	if _, d := p.expect(stSemi); d != nil {
		return nil, d
	}
	return prod, nil
}

func (p *specParser) parseRHS() (*rawRHS, *Diagnostic) {
	span := p.peek().span
	rhs := &rawRHS{Span: span}
	for p.peek().kind == stIdent || p.peek().kind == stLBracket || p.peek().kind == stLBrace {
		ref, d := p.parseSymRef()
		if d != nil {
			return nil, d
		}
		rhs.Symbols = append(rhs.Symbols, *ref)
	}
	if p.peek().kind == stBacktick {
		tok := p.advance()
		rhs.HasPattern = true
		rhs.PatternText = tok.text
	}
	return rhs, nil
}

func (p *specParser) parseSymRef() (*rawSymRef, *Diagnostic) {
	tok := p.peek()
	switch tok.kind {
	case stIdent:
		p.advance()
		return &rawSymRef{Name: tok.text, Span: tok.span}, nil
	case stLBracket:
		p.advance()
		idTok, d := p.expect(stIdent)
		if d != nil {
			return nil, d
		}
		if _, d := p.expect(stRBracket); d != nil {
			return nil, d
		}
		return &rawSymRef{Name: idTok.text, Optional: true, Span: tok.span}, nil
	case stLBrace:
		p.advance()
		idTok, d := p.expect(stIdent)
		if d != nil {
			return nil, d
		}
		if _, d := p.expect(stRBrace); d != nil {
			return nil, d
		}
		return &rawSymRef{Name: idTok.text, ListWrap: true, Span: tok.span}, nil
	default:
		return nil, p.errorf("expected a symbol reference")
	}
}

func (p *specParser) parseIgnore() (*rawIgnore, *Diagnostic) {
	kw, d := p.expect(stKwIgnore)
	if d != nil {
		return nil, d
	}
	idTok, d := p.expect(stIdent)
	if d != nil {
		return nil, d
	}
	return &rawIgnore{TokenName: idTok.text, Span: kw.span}, nil
}

func (p *specParser) parseInject() (*rawInject, *Diagnostic) {
	kw, d := p.expect(stKwInject)
	if d != nil {
		return nil, d
	}
	var aff InjectAffinity
	switch p.peek().kind {
	case stKwLeft:
		aff = AffinityLeft
		p.advance()
	case stKwRight:
		aff = AffinityRight
		p.advance()
	default:
		return nil, p.errorf("expected left or right")
	}
	idTok, d := p.expect(stIdent)
	if d != nil {
		return nil, d
	}
	patTok, d := p.expect(stBacktick)
	if d != nil {
		return nil, d
	}
	return &rawInject{Affinity: aff, TokenName: idTok.text, PatternText: patTok.text, Span: kw.span}, nil
}
