package lang

import "unsafe"

// callCompiled is the sole host/guest boundary crossing for executing
// compiled (guest) code. entry is an absolute Code Buffer address; sp is
// the current one-past-the-top parameter-stack pointer. It returns the
// parameter-stack pointer as left by the callee. Implemented in
// trampoline_amd64.go's assembly companion (trampoline_amd64.s).
func callCompiled(entry uintptr, sp unsafe.Pointer) unsafe.Pointer

// nativeReentryAddr returns the fixed entry point every native-intrinsic
// thunk jumps to. Implemented in trampoline_amd64.s.
func nativeReentryAddr() uintptr
