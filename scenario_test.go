package pretty

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatBalancedBracketsScenario grounds end-to-end scenario (a): a
// whitespace-silent CDFA plus a self-embedding grammar that re-indents
// nested `{}` groups, growing the pattern-variable prefix by one tab per
// level and separating siblings with a blank line.
func TestFormatBalancedBracketsScenario(t *testing.T) {
	src := `
alphabet ' \t\n{}'

cdfa {
  start ' ' -> ^_ '\t' -> ^_ '\n' -> ^_ '{' -> ^LBRACKET '}' -> ^RBRACKET;
}

grammar {
  s | s b |;
  b | LBRACKET s RBRACKET ` + "`[prefix]{}\\n\\n{;prefix=[prefix]\\t}[prefix]{}\\n\\n`" + `;
}
`
	spec, d := CompileSpec(src)
	require.Nil(t, d)

	input := "  {  {  {{{ }}}\n   {} }  }   { {}\n    }\n"
	out, d := Format(spec, input, FormatOptions{})
	require.Nil(t, d)

	// bracket renders one `{}` group at the given indent depth around
	// the already-rendered strings of its nested groups, matching b's
	// pattern exactly: prefix, "{", blank line, children at depth+1,
	// prefix, "}", blank line.
	bracket := func(depth int, children ...string) string {
		prefix := strings.Repeat("\t", depth)
		return prefix + "{\n\n" + strings.Join(children, "") + prefix + "}\n\n"
	}

	five := bracket(4)
	four := bracket(3, five)
	three := bracket(2, four)
	six := bracket(2)
	two := bracket(1, three, six)
	one := bracket(0, two)

	eight := bracket(1)
	seven := bracket(0, eight)

	assert.Equal(t, one+seven, out)
}

// TestFormatMinimalJSONScenario grounds end-to-end scenario (c): a
// realistic grammar exercising left-recursive comma-separated member and
// element lists (written as explicit productions, not `{X}` inline
// lists) and default-pattern alternation (`value`'s four productions)
// together, reformatting compact JSON with 4-space indents.
func TestFormatMinimalJSONScenario(t *testing.T) {
	src := `
cdfa {
  start '"' -> instr '0'..'9' -> numstate '{' -> ^LBRACE '}' -> ^RBRACE '[' -> ^LBRACKET ']' -> ^RBRACKET ':' -> ^COLON ',' -> ^COMMA;
  instr '"' -> ^STRING _ -> instr;
  numstate ^NUMBER '0'..'9' -> numstate;
}

grammar {
  value | STRING | NUMBER | object | array;
  object | LBRACE RBRACE ` + "`{}{}`" + ` | LBRACE members RBRACE ` + "`{}\\n{1;prefix=[prefix]    }\\n[prefix]{2}`" + `;
  members | member ` + "`[prefix]{}`" + ` | members COMMA member ` + "`{},\\n[prefix]{2}`" + `;
  member | STRING COLON value ` + "`{}: {2}`" + `;
  array | LBRACKET RBRACKET ` + "`{}{}`" + ` | LBRACKET elements RBRACKET ` + "`{}\\n{1;prefix=[prefix]    }\\n[prefix]{2}`" + `;
  elements | value ` + "`[prefix]{}`" + ` | elements COMMA value ` + "`{},\\n[prefix]{2}`" + `;
}
`
	spec, d := CompileSpec(src)
	require.Nil(t, d)

	out, d := Format(spec, `{"a":1,"b":[2,3]}`, FormatOptions{})
	require.Nil(t, d)

	expected := "{\n" +
		"    \"a\": 1,\n" +
		"    \"b\": [\n" +
		"        2,\n" +
		"        3\n" +
		"    ]\n" +
		"}"
	assert.Equal(t, expected, out)
}
