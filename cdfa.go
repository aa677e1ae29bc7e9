package pretty

// ConsumeMode says whether a transition advances the scan cursor.
type ConsumeMode int

const (
	ConsumeAll ConsumeMode = iota
	ConsumeNone
)

// Acceptor designates that a state, or the destination of a
// transition, produces a token upon arrival. Kind == silentKind means
// a silent accept (`^_`): input is consumed but no token is emitted.
type Acceptor struct {
	Kind    Symbol // terminal-kind symbol, or silentKind
	Dest    Symbol // destination start-state to resume in; meaningful iff HasDest
	HasDest bool
}

// silentKind is a reserved terminal-kind Symbol value meaning "no
// token, just consume" (§3 "Silent-accepted spans produce no token").
const silentKind Symbol = -2

// Transition guards a move from one state to another. A matcher's
// details live in the owning StateDef's matcherSet, keyed by this
// transition's index; Transition itself only needs where to go and how
// to consume. A `-> ^TOKEN` destination in the source spec compiles to
// a real auto-synthesized state carrying a state Acceptor (§4.1
// "Acceptor sugar") rather than an inline field here, so the lexer's
// hot loop only ever has one acceptance mechanism to check.
type Transition struct {
	Dest    Symbol // destination state
	Consume ConsumeMode
}

// StateDef is one CDFA state: its outbound transitions (indexed in
// declaration order, referenced by matcherSet owner indices) and an
// optional state acceptor reached simply by arriving in this state.
type StateDef struct {
	Name        Symbol
	Transitions []Transition
	Matchers    *matcherSet
	Acceptor    *Acceptor // state acceptor, or nil
}

// CDFA is the compiled automaton: a mapping state -> StateDef plus the
// designated start state (§3: "the first state declared in the first
// CDFA region") and the optional input alphabet.
type CDFA struct {
	States       map[Symbol]*StateDef
	Start        Symbol
	Alphabet     map[rune]bool // nil means "accept everything"
	HasAlphabet  bool
}

func newCDFA() *CDFA {
	return &CDFA{States: make(map[Symbol]*StateDef)}
}

// stateFor returns the StateDef for name, creating an empty one if
// necessary so that state coalescence (§4.1: "repeated state
// definitions... union their transitions") is just repeated calls to
// this accessor followed by appends.
func (c *CDFA) stateFor(name Symbol) *StateDef {
	sd, ok := c.States[name]
	if !ok {
		sd = &StateDef{Name: name, Matchers: newMatcherSet()}
		c.States[name] = sd
	}
	return sd
}

// acceptsRune reports whether r is inside the declared alphabet. In the
// absence of a declared alphabet, every rune is accepted (§3 invariant).
func (c *CDFA) acceptsRune(r rune) bool {
	if !c.HasAlphabet {
		return true
	}
	return c.Alphabet[r]
}
