package lang

import "testing"

func TestSymbolTableShadowing(t *testing.T) {
	st := NewSymbolTable()
	st.Define("X", KindValue, 0, 1)
	st.Define("X", KindValue, 0, 2)

	b, ok := st.Lookup("X")
	assert(t, ok, "expected X to be found")
	assert(t, b.value == 2, "expected shadowed value 2, got %d", b.value)

	names := st.Names()
	assert(t, len(names) == 1, "expected 1 distinct name, got %d", len(names))
	assert(t, names[0] == "X", "expected X, got %s", names[0])
}

func TestSymbolTableLookupMiss(t *testing.T) {
	st := NewSymbolTable()
	_, ok := st.Lookup("NOPE")
	assert(t, !ok, "expected lookup miss for undefined name")
}

func TestSymbolTableMacro(t *testing.T) {
	st := NewSymbolTable()
	st.Define("TWO-ONE-TWO", KindMacro, 0xABC, 0)

	b, ok := st.Lookup("TWO-ONE-TWO")
	assert(t, ok, "expected macro to be found")
	assert(t, b.kind == KindMacro, "expected KindMacro, got %v", b.kind)
	assert(t, b.codeAddr == 0xABC, "expected codeAddr 0xABC, got %#x", b.codeAddr)
}
