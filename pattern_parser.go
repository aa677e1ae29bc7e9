package pretty

import "strings"

// pattern_parser.go parses the pattern mini-language found inside a
// production's or inject entry's backtick-delimited text (§3 "Pattern",
// §4.4). It is a second, much smaller grammar than spec_lang.go's: just
// filler runs, `[var]` substitutions, and `{...}` captures.

// parsePattern compiles the text between a pair of backticks into a
// Pattern, interning any variable names against vars.
func parsePattern(text string, baseSpan Span, vars *symbolTable) (*Pattern, *Diagnostic) {
	runes := []rune(text)
	n := len(runes)
	var segs []PatternSegment
	var filler []rune

	flush := func() {
		if len(filler) > 0 {
			segs = append(segs, newFillerSegment(unescape(string(filler))))
			filler = nil
		}
	}

	i := 0
	for i < n {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < n:
			filler = append(filler, r, runes[i+1])
			i += 2
		case r == '[':
			flush()
			j := i + 1
			for j < n && runes[j] != ']' {
				j++
			}
			if j >= n {
				d := newDiagnostic(SpecSyntaxError, baseSpan, "unterminated substitution in pattern")
				return nil, &d
			}
			segs = append(segs, newSubstitutionSegment(vars.intern(string(runes[i+1:j]))))
			i = j + 1
		case r == '{':
			flush()
			j := i + 1
			depth := 1
			for j < n && depth > 0 {
				switch runes[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto found
					}
				}
				j++
			}
		found:
			if j >= n {
				d := newDiagnostic(SpecSyntaxError, baseSpan, "unterminated capture in pattern")
				return nil, &d
			}
			seg, d := parseCaptureBody(string(runes[i+1:j]), baseSpan, vars)
			if d != nil {
				return nil, d
			}
			segs = append(segs, seg)
			i = j + 1
		default:
			filler = append(filler, r)
			i++
		}
	}
	flush()
	return &Pattern{Segments: segs}, nil
}

// parseCaptureBody parses the contents of `{...}`: an optional decimal
// index, then an optional `;`-prefixed list of `var=minipattern`
// assignments separated by `;` (§4.4 "Capture").
func parseCaptureBody(body string, baseSpan Span, vars *symbolTable) (PatternSegment, *Diagnostic) {
	runes := []rune(body)
	n := len(runes)
	i := 0

	hasIndex := false
	index := 0
	for i < n && runes[i] >= '0' && runes[i] <= '9' {
		hasIndex = true
		index = index*10 + int(runes[i]-'0')
		i++
	}

	var assigns []Assignment
	switch {
	case i < n && runes[i] == ';':
		i++
		for i <= n {
			eq := -1
			j := i
			for j < n {
				if runes[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				if runes[j] == '=' && eq == -1 {
					eq = j
				}
				if runes[j] == ';' {
					break
				}
				j++
			}
			if i == j && eq == -1 {
				break // trailing empty assignment slot, tolerate
			}
			if eq == -1 {
				d := newDiagnostic(SpecSyntaxError, baseSpan, "capture assignment missing '='")
				return PatternSegment{}, &d
			}
			varName := strings.TrimSpace(string(runes[i:eq]))
			valueText := string(runes[eq+1 : j])
			miniPat, d := parseMiniPattern(valueText, baseSpan, vars)
			if d != nil {
				return PatternSegment{}, d
			}
			assigns = append(assigns, Assignment{Variable: vars.intern(varName), Value: miniPat})
			i = j
			if i < n && runes[i] == ';' {
				i++
				continue
			}
			break
		}
	case i < n:
		d := newDiagnostic(SpecSyntaxError, baseSpan, "unexpected character in capture body: %q", runes[i])
		return PatternSegment{}, &d
	}

	return newCaptureSegment(hasIndex, index, assigns), nil
}

// parseMiniPattern parses an assignment value: filler and substitution
// segments only, no nested captures (§3 "Assigned values themselves are
// mini-patterns over filler+substitution only").
func parseMiniPattern(text string, baseSpan Span, vars *symbolTable) (*Pattern, *Diagnostic) {
	runes := []rune(text)
	n := len(runes)
	var segs []PatternSegment
	var filler []rune

	flush := func() {
		if len(filler) > 0 {
			segs = append(segs, newFillerSegment(unescape(string(filler))))
			filler = nil
		}
	}

	i := 0
	for i < n {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < n:
			filler = append(filler, r, runes[i+1])
			i += 2
		case r == '[':
			flush()
			j := i + 1
			for j < n && runes[j] != ']' {
				j++
			}
			if j >= n {
				d := newDiagnostic(SpecSyntaxError, baseSpan, "unterminated substitution in assignment value")
				return nil, &d
			}
			segs = append(segs, newSubstitutionSegment(vars.intern(string(runes[i+1:j]))))
			i = j + 1
		default:
			filler = append(filler, r)
			i++
		}
	}
	flush()
	return &Pattern{Segments: segs}, nil
}
