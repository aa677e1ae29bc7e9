package pretty

import "strings"

// format.go walks a materialized parse tree applying patterns (§4.4).
// Scope is a copy-on-write map[variable]string: a capture clones its
// parent's scope before evaluating assignments, so sibling captures
// under the same production never see each other's bindings.
type Scope map[Symbol]string

func (s Scope) clone() Scope {
	ns := make(Scope, len(s))
	for k, v := range s {
		ns[k] = v
	}
	return ns
}

type pendingInjection struct {
	tok     Token
	pattern *Pattern
	prepend bool
}

type formatCtx struct {
	arena      *treeArena
	injections map[NodeID][]pendingInjection
}

// renderTree is the Tree Formatter's entry point: given a materialized
// parse and the original token stream, resolve injections and walk the
// tree from root, returning the formatted output string.
func renderTree(compiled *CompiledSpec, tokens []Token, arena *treeArena, root NodeID, used map[int]bool, cfg *Config) string {
	captured := make(map[NodeID]bool)
	computeCapturedLeaves(arena, root, captured)

	var injections map[NodeID][]pendingInjection
	if cfg.InjectionEnabled {
		leafStarts := leavesByStart(arena, root)
		injections = resolveInjections(compiled.Inject, tokens, used, captured, leafStarts)
	}

	fx := &formatCtx{arena: arena, injections: injections}
	return formatNode(fx, root, Scope{})
}

// formatNode implements §4.4's per-node walk. Leaves have no pattern of
// their own: their base string is the lexeme, decorated with any
// injected tokens attached to them by resolveInjections. Internal nodes
// use their production's pattern, or the default concatenation pattern
// if it has none.
func formatNode(fx *formatCtx, id NodeID, scope Scope) string {
	n := fx.arena.node(id)
	if n.IsLeaf {
		out := n.Lexeme
		for _, inj := range fx.injections[id] {
			rendered := renderInjection(inj.pattern, inj.tok, scope)
			if inj.prepend {
				out = rendered + out
			} else {
				out = out + rendered
			}
		}
		return out
	}

	pat := n.Production.Pattern
	if pat == nil {
		var sb strings.Builder
		for _, ch := range n.Children {
			sb.WriteString(formatNode(fx, ch, scope))
		}
		return sb.String()
	}

	var sb strings.Builder
	implicit := 0
	for _, seg := range pat.Segments {
		switch seg.Kind {
		case SegFiller:
			sb.WriteString(seg.Filler)
		case SegSubstitution:
			sb.WriteString(scope[seg.Variable])
		case SegCapture:
			idx := seg.Index
			if !seg.HasIndex {
				idx = implicit
			}
			implicit++
			childScope := scope.clone()
			for _, asg := range seg.Assignments {
				childScope[asg.Variable] = renderMiniPattern(asg.Value, childScope)
			}
			if idx >= 0 && idx < len(n.Children) {
				sb.WriteString(formatNode(fx, n.Children[idx], childScope))
			}
		}
	}
	return sb.String()
}

func renderMiniPattern(pat *Pattern, scope Scope) string {
	var sb strings.Builder
	for _, seg := range pat.Segments {
		switch seg.Kind {
		case SegFiller:
			sb.WriteString(seg.Filler)
		case SegSubstitution:
			sb.WriteString(scope[seg.Variable])
		}
	}
	return sb.String()
}

// renderInjection evaluates an injected token's own pattern: its single
// implicit capture slot yields the token's lexeme (any index resolves
// to it, per §4.4), and substitutions read the capturing leaf's scope.
func renderInjection(pat *Pattern, tok Token, scope Scope) string {
	var sb strings.Builder
	for _, seg := range pat.Segments {
		switch seg.Kind {
		case SegFiller:
			sb.WriteString(seg.Filler)
		case SegSubstitution:
			sb.WriteString(scope[seg.Variable])
		case SegCapture:
			sb.WriteString(tok.Lexeme)
		}
	}
	return sb.String()
}

// computeCapturedLeaves marks every leaf reachable from root by
// following only the child indices each ancestor's pattern actually
// captures (all children, in order, for a nil/default pattern). A leaf
// absent from this set is never visited by formatNode and therefore
// never receives an injected neighbor (§4.3 step 3).
func computeCapturedLeaves(arena *treeArena, id NodeID, captured map[NodeID]bool) {
	n := arena.node(id)
	if n.IsLeaf {
		captured[id] = true
		return
	}
	for _, idx := range capturedChildIndices(n) {
		if idx < 0 || idx >= len(n.Children) {
			continue
		}
		computeCapturedLeaves(arena, n.Children[idx], captured)
	}
}

func capturedChildIndices(n *TreeNode) []int {
	if n.Production == nil || n.Production.Pattern == nil {
		out := make([]int, len(n.Children))
		for i := range out {
			out[i] = i
		}
		return out
	}
	var out []int
	implicit := 0
	for _, seg := range n.Production.Pattern.Segments {
		if seg.Kind != SegCapture {
			continue
		}
		idx := seg.Index
		if !seg.HasIndex {
			idx = implicit
		}
		out = append(out, idx)
		implicit++
	}
	return out
}

func leavesByStart(arena *treeArena, root NodeID) map[int]NodeID {
	out := make(map[int]NodeID)
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := arena.node(id)
		if n.IsLeaf {
			out[n.Token.Start] = id
			return
		}
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	walk(root)
	return out
}

// resolveInjections decides, for every injected token not consumed as
// an ordinary grammar leaf, which neighboring leaf it attaches to
// (§4.3 step 3: preferred affinity neighbor, falling back to the
// opposite neighbor, dropping the token if neither is captured).
func resolveInjections(inject InjectMap, tokens []Token, used map[int]bool, captured map[NodeID]bool, leafStarts map[int]NodeID) map[NodeID][]pendingInjection {
	out := make(map[NodeID][]pendingInjection)
	for i, tok := range tokens {
		if used[tok.Start] {
			continue
		}
		entry, ok := inject[tok.Kind]
		if !ok {
			continue // an ignored (not injected) dropped token renders nothing
		}

		var prevLeaf, nextLeaf NodeID
		prevOK, nextOK := false, false
		if i > 0 {
			if id, ok := leafStarts[tokens[i-1].Start]; ok && captured[id] {
				prevLeaf, prevOK = id, true
			}
		}
		if i < len(tokens)-1 {
			if id, ok := leafStarts[tokens[i+1].Start]; ok && captured[id] {
				nextLeaf, nextOK = id, true
			}
		}

		var target NodeID
		var prepend bool
		switch {
		case entry.Affinity == AffinityLeft && prevOK:
			target, prepend = prevLeaf, false
		case entry.Affinity == AffinityLeft && nextOK:
			target, prepend = nextLeaf, true
		case entry.Affinity == AffinityRight && nextOK:
			target, prepend = nextLeaf, true
		case entry.Affinity == AffinityRight && prevOK:
			target, prepend = prevLeaf, false
		default:
			continue // neither neighbor captured: drop
		}
		out[target] = append(out[target], pendingInjection{tok: tok, pattern: entry.Pattern, prepend: prepend})
	}
	return out
}
