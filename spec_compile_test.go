package pretty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSpecAcceptorSugarCoalesces(t *testing.T) {
	src := `
alphabet 'ab'
cdfa {
  start 'a' -> ^A 'b' -> ^A;
}
grammar {
  s | A;
}
`
	spec, d := CompileSpec(src)
	require.Nil(t, d)

	// Both transitions target the same (token, no-resume) acceptor key,
	// so they must share one auto-synthesized state.
	sdStart := spec.CDFA.stateFor(spec.CDFA.Start)
	require.Len(t, sdStart.Transitions, 2)
	assert.Equal(t, sdStart.Transitions[0].Dest, sdStart.Transitions[1].Dest)
}

func TestCompileSpecOptionalDesugaring(t *testing.T) {
	src := `
alphabet 'a'
cdfa {
  start 'a' -> ^A;
}
grammar {
  s | [A] ` + "`{}`" + `;
}
`
	spec, d := CompileSpec(src)
	require.Nil(t, d)

	prod := spec.Grammar.Productions[0]
	require.Len(t, prod.RHS, 1)
	assert.Equal(t, RefOptional, prod.RHS[0].Kind)

	optSym := prod.RHS[0].Sym
	optProds := spec.Grammar.ByLHS[optSym]
	require.Len(t, optProds, 2)
	// one alternative passes through to A, the other is empty
	var sawPassthrough, sawEmpty bool
	for _, p := range optProds {
		if len(p.RHS) == 0 {
			sawEmpty = true
		} else {
			sawPassthrough = true
			assert.Equal(t, RefTerminal, p.RHS[0].Kind)
		}
	}
	assert.True(t, sawPassthrough)
	assert.True(t, sawEmpty)
}

func TestCompileSpecOptionalSharedAcrossUses(t *testing.T) {
	src := `
alphabet 'ab'
cdfa {
  start 'a' -> ^A 'b' -> ^B;
}
grammar {
  s | [A] [A] B;
}
`
	spec, d := CompileSpec(src)
	require.Nil(t, d)
	prod := spec.Grammar.Productions[0]
	require.Len(t, prod.RHS, 3)
	assert.Equal(t, prod.RHS[0].Sym, prod.RHS[1].Sym)
}

func TestCompileSpecListDesugaring(t *testing.T) {
	src := `
alphabet 'a'
cdfa {
  start 'a' -> ^A;
}
grammar {
  s | {A};
}
`
	spec, d := CompileSpec(src)
	require.Nil(t, d)
	prod := spec.Grammar.Productions[0]
	require.Len(t, prod.RHS, 1)
	assert.Equal(t, RefList, prod.RHS[0].Kind)

	listSym := prod.RHS[0].Sym
	listProds := spec.Grammar.ByLHS[listSym]
	require.Len(t, listProds, 2)
	for _, p := range listProds {
		assert.True(t, p.IsListMarker)
	}
}

func TestCompileSpecUndefinedSymbol(t *testing.T) {
	src := `
alphabet 'a'
cdfa {
  start 'a' -> ^A;
}
grammar {
  s | Nope;
}
`
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}

func TestCompileSpecAlphabetViolation(t *testing.T) {
	src := `
alphabet 'a'
cdfa {
  start 'b' -> ^A;
}
grammar {
  s | A;
}
`
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}

func TestCompileSpecPrefixCollisionPropagates(t *testing.T) {
	src := `
alphabet 'aint'
cdfa {
  start 'in' -> ^A 'int' -> ^B;
}
grammar {
  s | A;
}
`
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}

func TestCompileSpecMissingCDFARegion(t *testing.T) {
	src := "grammar { s | `x`; }"
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}

func TestCompileSpecMissingGrammarRegion(t *testing.T) {
	src := "alphabet 'a'\ncdfa { start 'a' -> ^A; }"
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}

func TestCompileSpecPatternIndexOutOfRange(t *testing.T) {
	src := `
alphabet 'a'
cdfa {
  start 'a' -> ^A;
}
grammar {
  s | A ` + "`{5}`" + `;
}
`
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}

func TestCompileSpecIgnoreInjectConflict(t *testing.T) {
	src := `
alphabet 'ab'
cdfa {
  start 'a' -> ^A 'b' -> ^B;
}
grammar {
  s | A B;
}
ignore A
inject left A ` + "`x`" + `
`
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}

func TestCompileSpecDuplicateInjectSameTerminal(t *testing.T) {
	src := `
alphabet 'ab'
cdfa {
  start 'a' -> ^A 'b' -> ^B;
}
grammar {
  s | A B;
}
inject left A ` + "`x`" + `
inject right A ` + "`y`" + `
`
	_, d := CompileSpec(src)
	require.NotNil(t, d)
	assert.Equal(t, SpecSemanticError, d.Kind)
}
