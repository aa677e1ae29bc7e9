package pretty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMaximalMunchCDFA wires start-'a'->x(accepts X)-'a'->y(accepts Y): the
// two-hop shape a CDFA uses to recognize progressively longer lexemes,
// grounding testable property 3 (longest-match lexing).
func buildMaximalMunchCDFA(t *testing.T) (*CDFA, Symbol, Symbol) {
	t.Helper()
	cdfa := newCDFA()
	start := Symbol(0)
	x := Symbol(1)
	y := Symbol(2)
	xTok := Symbol(0)
	yTok := Symbol(1)
	cdfa.Start = start
	cdfa.HasAlphabet = true
	cdfa.Alphabet = map[rune]bool{'a': true}

	sdStart := cdfa.stateFor(start)
	sdStart.Transitions = append(sdStart.Transitions, Transition{Dest: x, Consume: ConsumeAll})
	require.NoError(t, sdStart.Matchers.insertChain([]rune{'a'}, 0))

	sdX := cdfa.stateFor(x)
	sdX.Acceptor = &Acceptor{Kind: xTok}
	sdX.Transitions = append(sdX.Transitions, Transition{Dest: y, Consume: ConsumeAll})
	require.NoError(t, sdX.Matchers.insertChain([]rune{'a'}, 0))

	sdY := cdfa.stateFor(y)
	sdY.Acceptor = &Acceptor{Kind: yTok}

	return cdfa, xTok, yTok
}

func TestLexLongestMatch(t *testing.T) {
	cdfa, xTok, yTok := buildMaximalMunchCDFA(t)
	cfg := NewConfig()

	t.Run("single a emits X", func(t *testing.T) {
		toks, d := lex(cdfa, []rune("a"), cfg)
		require.Nil(t, d)
		require.Len(t, toks, 1)
		assert.Equal(t, xTok, toks[0].Kind)
		assert.Equal(t, "a", toks[0].Lexeme)
	})

	t.Run("double a emits one Y, not two X", func(t *testing.T) {
		toks, d := lex(cdfa, []rune("aa"), cfg)
		require.Nil(t, d)
		require.Len(t, toks, 1)
		assert.Equal(t, yTok, toks[0].Kind)
		assert.Equal(t, "aa", toks[0].Lexeme)
	})

	t.Run("triple a emits Y then X", func(t *testing.T) {
		toks, d := lex(cdfa, []rune("aaa"), cfg)
		require.Nil(t, d)
		require.Len(t, toks, 2)
		assert.Equal(t, yTok, toks[0].Kind)
		assert.Equal(t, xTok, toks[1].Kind)
	})
}

func TestLexAlphabetEnforcement(t *testing.T) {
	cdfa, _, _ := buildMaximalMunchCDFA(t)
	cfg := NewConfig()

	_, d := lex(cdfa, []rune("ab"), cfg)
	require.NotNil(t, d)
	assert.Equal(t, LexError, d.Kind)
}

func TestLexNoAlphabetAcceptsAnything(t *testing.T) {
	cdfa := newCDFA()
	start := Symbol(0)
	cdfa.Start = start
	sd := cdfa.stateFor(start)
	tok := Symbol(0)
	sd.Acceptor = &Acceptor{Kind: tok}
	require.NoError(t, sd.Matchers.setDefault(len(sd.Transitions)))
	sd.Transitions = append(sd.Transitions, Transition{Dest: start, Consume: ConsumeAll})

	toks, d := lex(cdfa, []rune("!@#"), NewConfig())
	require.Nil(t, d)
	// the default matcher's self-loop keeps re-accepting on every
	// character, so one greedy scan consumes the whole input.
	require.Len(t, toks, 1)
	assert.Equal(t, "!@#", toks[0].Lexeme)
}

func TestLexConsumeNoneLoopBound(t *testing.T) {
	cdfa := newCDFA()
	a := Symbol(0)
	b := Symbol(1)
	cdfa.Start = a

	sdA := cdfa.stateFor(a)
	sdA.Transitions = append(sdA.Transitions, Transition{Dest: b, Consume: ConsumeNone})
	require.NoError(t, sdA.Matchers.setDefault(0))

	sdB := cdfa.stateFor(b)
	sdB.Transitions = append(sdB.Transitions, Transition{Dest: a, Consume: ConsumeNone})
	require.NoError(t, sdB.Matchers.setDefault(0))

	cfg := NewConfig()
	cfg.MaxConsumeNoneTransitions = 100

	_, d := lex(cdfa, []rune("x"), cfg)
	require.NotNil(t, d)
	assert.Equal(t, LexError, d.Kind)
}
