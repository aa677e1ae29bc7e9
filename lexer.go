package pretty

// Token is a lexed unit: its terminal kind, the matched lexeme, and its
// source offset (§3 "Token").
type Token struct {
	Kind   Symbol
	Lexeme string
	Span   Span
	// Start/End are rune-cursor offsets into the original input,
	// carried alongside Span so the parser and injection pass can
	// index tokens by position without recomputing Location math.
	Start, End int
}

type candidateAccept struct {
	acceptorKind Symbol // silentKind for a silent accept
	cursor       int    // rune cursor to resume scanning from
	postState    Symbol // state to resume in
}

// lex runs the compiled CDFA over input, following spec.md §4.2's
// greedy longest-match algorithm. It returns the token stream in
// source order; silent accepts consume input but emit nothing.
func lex(cdfa *CDFA, input []rune, cfg *Config) ([]Token, *Diagnostic) {
	pi := newPosIndex(input)
	maxTransitions := cfg.MaxConsumeNoneTransitions

	var tokens []Token
	cursor := 0
	state := cdfa.Start

	for cursor < len(input) {
		start := cursor
		tok, next, nextState, diag := scanOne(cdfa, input, cursor, state, pi, maxTransitions)
		if diag != nil {
			return nil, diag
		}
		if tok != nil {
			tokens = append(tokens, *tok)
		}
		if next == start {
			// scanOne makes no progress only when its last accept was
			// reached before any input was consumed (an accepting
			// state with no transition firing); report that as a lex
			// error rather than looping.
			return nil, diagPtr(newDiagnostic(LexError, pi.SpanAt(start, start+1), "no transition fires at offset %d", start))
		}
		cursor = next
		state = nextState
	}
	return tokens, nil
}

func diagPtr(d Diagnostic) *Diagnostic { return &d }

// scanOne performs one "maximal munch" scan starting at cursor in
// state, returning the token produced (nil for a silent accept), the
// new cursor, and the state to resume scanning in. Reaching no accept
// at all returns a LexError diagnostic.
func scanOne(cdfa *CDFA, input []rune, cursor int, state Symbol, pi *posIndex, maxTransitions int) (*Token, int, Symbol, *Diagnostic) {
	startCursor := cursor
	cur := cursor
	curState := state

	var lastAccept *candidateAccept

	transitions := 0
	for {
		if cur < len(input) && !cdfa.acceptsRune(input[cur]) {
			d := newDiagnostic(LexError, pi.SpanAt(cur, cur+1), "character %q outside declared alphabet", input[cur])
			return nil, 0, 0, &d
		}

		sd := cdfa.States[curState]
		if sd == nil {
			break
		}

		// A state acceptor is reached simply by arriving here.
		if sd.Acceptor != nil {
			dest := sd.Acceptor.Dest
			if !sd.Acceptor.HasDest {
				dest = cdfa.Start
			}
			lastAccept = &candidateAccept{acceptorKind: sd.Acceptor.Kind, cursor: cur, postState: dest}
		}

		owner, consumedLen, ok := fireHighestPrecedence(sd.Matchers, input[cur:])
		if !ok {
			break
		}
		tr := sd.Transitions[owner]

		if tr.Consume == ConsumeNone {
			transitions++
			if transitions > maxTransitions {
				d := newDiagnostic(LexError, pi.SpanAt(cur, cur+1), "consume-none loop at offset %d", cur)
				return nil, 0, 0, &d
			}
		} else {
			cur += consumedLen
			transitions = 0
		}
		curState = tr.Dest
	}

	if lastAccept == nil {
		if startCursor == cur {
			d := newDiagnostic(LexError, pi.SpanAt(startCursor, startCursor+1), "no transition fires at offset %d", startCursor)
			return nil, 0, 0, &d
		}
		d := newDiagnostic(LexError, pi.SpanAt(startCursor, cur), "no accepting state reached")
		return nil, 0, 0, &d
	}

	end := lastAccept.cursor
	if lastAccept.acceptorKind == silentKind {
		return nil, end, lastAccept.postState, nil
	}
	lexeme := string(input[startCursor:end])
	tok := Token{
		Kind:   lastAccept.acceptorKind,
		Lexeme: lexeme,
		Span:   pi.SpanAt(startCursor, end),
		Start:  startCursor,
		End:    end,
	}
	return &tok, end, lastAccept.postState, nil
}

// fireHighestPrecedence picks the highest-precedence transition that
// matches the head of remaining: simple/chain (by trie) > range > default
// (§4.2 step 1).
func fireHighestPrecedence(m *matcherSet, remaining []rune) (owner int, consumedLen int, ok bool) {
	if owner, length, ok := m.matchChain(remaining); ok {
		return owner, length, true
	}
	if len(remaining) > 0 {
		if owner, ok := m.matchRange(remaining[0]); ok {
			return owner, 1, true
		}
	}
	if len(remaining) > 0 {
		if owner, ok := m.matchDefault(); ok {
			return owner, 1, true
		}
	}
	return 0, 0, false
}
