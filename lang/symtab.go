package lang

import "github.com/samber/lo"

// SymbolKind tags what a SymbolTable entry denotes.
type SymbolKind int

const (
	KindFunction SymbolKind = iota
	KindMacro
	KindValue
)

// binding is one entry in the symbol table: a callable function or macro
// with a fixed Code Buffer entry address (macros are compiled to native
// code exactly like functions — they differ only in when the Compiler
// invokes them, see Interpreter.Compile), or a value constant.
type binding struct {
	name     string
	kind     SymbolKind
	codeAddr uintptr // KindFunction, KindMacro
	value    int64   // KindValue
}

// SymbolTable is an insertion-ordered, shadowing name table, grounded on
// the teacher's label table in vm/compile.go: a flat slice scanned linearly
// rather than a map, so a later definition of an existing name shadows the
// earlier one without disturbing it (the earlier compiled code, and any
// code that already resolved a call through the old binding, keeps working
// against the old address). Lookup is last-write-wins via a
// backward scan.
type SymbolTable struct {
	bindings []binding
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// Define adds a new function or value binding, shadowing any existing one
// with the same name.
func (t *SymbolTable) Define(name string, kind SymbolKind, codeAddr uintptr, value int64) {
	t.bindings = append(t.bindings, binding{name: name, kind: kind, codeAddr: codeAddr, value: value})
}

// Lookup finds the most recently defined binding for name, scanning from
// the end so shadowing works without removing earlier entries.
func (t *SymbolTable) Lookup(name string) (binding, bool) {
	for i := len(t.bindings) - 1; i >= 0; i-- {
		if t.bindings[i].name == name {
			return t.bindings[i], true
		}
	}
	return binding{}, false
}

// Names returns the distinct names currently visible, most recently defined
// first, deduplicated the same way Lookup resolves shadowing. Used by
// diagnostics and tests, not by the hot evaluation path.
func (t *SymbolTable) Names() []string {
	reversed := make([]string, len(t.bindings))
	for i, b := range t.bindings {
		reversed[len(t.bindings)-1-i] = b.name
	}
	return lo.Uniq(reversed)
}
