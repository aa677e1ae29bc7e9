package pretty

import (
	"sort"

	"golang.org/x/exp/maps"
)

// Symbol is an interned integer identifier. Namespaces (state, terminal
// kind, non-terminal, pattern variable) are kept in separate tables so
// that identifiers from different namespaces never collide even though
// they overlap numerically.
type Symbol int32

const noSymbol Symbol = -1

// symbolTable interns strings into stable Symbol ids, once and forever
// per compiled spec (§3 "Interned Symbol"). It is frozen after the spec
// compiler finishes so that a CompiledSpec is safe to share read-only
// across concurrently formatting goroutines (§5).
type symbolTable struct {
	byName map[string]Symbol
	names  []string
	frozen bool
}

func newSymbolTable() *symbolTable {
	return &symbolTable{byName: make(map[string]Symbol)}
}

// intern returns the Symbol for name, creating one if this is the
// first time it has been seen. Interning after freeze panics: it would
// mean a compiled spec's tables were mutated after handoff, which
// violates the immutable-shared-artifact guarantee in §5.
func (t *symbolTable) intern(name string) Symbol {
	if id, ok := t.byName[name]; ok {
		return id
	}
	if t.frozen {
		panic("pretty: intern on frozen symbol table: " + name)
	}
	id := Symbol(len(t.names))
	t.names = append(t.names, name)
	t.byName[name] = id
	return id
}

// lookup returns the Symbol for name without creating one.
func (t *symbolTable) lookup(name string) (Symbol, bool) {
	id, ok := t.byName[name]
	return id, ok
}

func (t *symbolTable) name(id Symbol) string {
	if id < 0 || int(id) >= len(t.names) {
		return "<invalid>"
	}
	return t.names[id]
}

func (t *symbolTable) freeze() { t.frozen = true }

func (t *symbolTable) len() int { return len(t.names) }

// symbolTables bundles the four separate namespaces a compiled spec
// needs (§3): states and terminal kinds come from the CDFA, non-
// terminals and pattern variables come from the grammar.
type symbolTables struct {
	states       *symbolTable
	terminals    *symbolTable
	nonterminals *symbolTable
	variables    *symbolTable
}

func newSymbolTables() *symbolTables {
	return &symbolTables{
		states:       newSymbolTable(),
		terminals:    newSymbolTable(),
		nonterminals: newSymbolTable(),
		variables:    newSymbolTable(),
	}
}

func (t *symbolTables) freeze() {
	t.states.freeze()
	t.terminals.freeze()
	t.nonterminals.freeze()
	t.variables.freeze()
}

// DebugDump prints every interned namespace sorted by name, useful
// when diagnosing a spec compilation. Kept off the hot path; the sort
// is over a maps.Keys() snapshot rather than a hand-rolled loop, since
// the symbol tables can be large for real grammars (unlike Config's
// handful of tunables, which stays hand-rolled in config.go).
func (t *symbolTables) DebugDump(w interface{ Write([]byte) (int, error) }) {
	dump := func(label string, tbl *symbolTable) {
		names := maps.Keys(tbl.byName)
		sort.Strings(names)
		w.Write([]byte(label + ":\n"))
		for _, n := range names {
			w.Write([]byte("  " + n + "\n"))
		}
	}
	dump("states", t.states)
	dump("terminals", t.terminals)
	dump("nonterminals", t.nonterminals)
	dump("variables", t.variables)
}
