package lang

import "unsafe"

// ParamStack is a fixed-size backing store for the guest parameter stack,
// the Go-side counterpart to the raw pointer compiled code manipulates via
// R15. It owns the []uint64 slice so the GC keeps it alive for as long as
// any pointer derived from it might still be in use.
type ParamStack struct {
	cells []uint64
}

const defaultParamStackCells = 4096

func NewParamStack() *ParamStack {
	return &ParamStack{cells: make([]uint64, defaultParamStackCells)}
}

// Top returns the one-past-the-end pointer: a downward-growing stack starts
// empty with its top pointer here, matching Go's documented-safe "pointer
// to one past the last element" construction.
func (s *ParamStack) Top() unsafe.Pointer {
	base := unsafe.Pointer(&s.cells[0])
	return unsafe.Add(base, len(s.cells)*8)
}

func (s *ParamStack) Base() unsafe.Pointer {
	return unsafe.Pointer(&s.cells[0])
}
