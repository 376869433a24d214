package lang

import (
	"io"
	"unsafe"
)

// ptrSize is the machine word size in bytes the guest calling convention
// uses for every stack slot, pointer, and integer — always 8 on the only
// target this spec covers (x86-64).
const ptrSize = 8

// ioSlot is an opaque handle backing *IN*/*OUT*: the spec calls for "handles
// to current input/output stream slots" but guest code has no operation
// that dereferences one meaningfully (PGET/PSET see raw memory, not Go's
// io.Reader/io.Writer interfaces) — a stable, distinct address is enough to
// satisfy the contract that the symbol exists and is a value.
type ioSlot struct{ _ byte }

// registerCoreSymbols installs the pre-registered symbol-table entries
// §4.4 requires beyond the intrinsic library: handles to the table, the
// readtable, the I/O streams and the write cursor, the pointer size
// constant, and the READ/EVAL entry points. DEFUN/DEFMACRO/DEFVAL are
// intercepted syntactically by Run (definitions.go) rather than routed
// through the symbol table, since the reserved-word check must happen
// before a normal lookup would shadow them; everything else here behaves
// like any other function/value binding.
func (ip *Interpreter) registerCoreSymbols() error {
	ip.syms.Define("*SYMTAB*", KindValue, 0, int64(uintptr(unsafe.Pointer(ip.syms))))
	ip.syms.Define("*READTAB*", KindValue, 0, int64(uintptr(unsafe.Pointer(ip.rt))))
	ip.syms.Define("*PROGRAM*", KindValue, 0, int64(uintptr(ip.buf.CursorPtr())))
	ip.syms.Define("PTRSIZE", KindValue, 0, ptrSize)

	// *TRACE* seeds from the CATJIT_TRACE env var but is a live value from
	// here on: the emitter consults this binding directly (Emitter.traceOn),
	// so a later `DEFVAL *TRACE* 1 DONE` turns tracing on mid-run.
	initialTrace := int64(0)
	if traceEnabled {
		initialTrace = 1
	}
	ip.syms.Define("*TRACE*", KindValue, 0, initialTrace)

	in, out := &ioSlot{}, &ioSlot{}
	ip.Retain(in)
	ip.Retain(out)
	ip.syms.Define("*IN*", KindValue, 0, int64(uintptr(unsafe.Pointer(in))))
	ip.syms.Define("*OUT*", KindValue, 0, int64(uintptr(unsafe.Pointer(out))))

	if err := ip.RegisterNative("READ", nativeRead); err != nil {
		return err
	}
	return ip.RegisterNative("EVAL", nativeEval)
}

// nativeRead reads the next object from the reader currently driving Run
// and boxes it as an opaque handle pushed onto the stack: -- handle. The
// boxed *Object is retained on the interpreter so the garbage collector
// can't reclaim it while only a bare address on the guest stack still
// refers to it (the same concern ALLOC has for guest-visible memory). A
// clean end-of-file pushes 0, since there is no Quote/Cons-free way to
// represent "no object" on an all-integer stack.
func nativeRead(ip *Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	if ip.reader == nil {
		ip.Fail(fatal(InternalBug, "READ called with no active input stream"))
		return sp
	}
	obj, err := ip.reader.ReadObject()
	if err == io.EOF {
		return Push(sp, 0)
	}
	if err != nil {
		ip.Fail(err)
		return sp
	}
	ip.Retain(obj)
	return Push(sp, uint64(uintptr(unsafe.Pointer(obj))))
}

// nativeEval pops a handle produced by READ and evaluates it against the
// live stack: handle -- ... (whatever obj's evaluation pushes). A zero
// handle (READ's end-of-file marker) is a no-op.
func nativeEval(ip *Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	handle, sp := Pop(sp)
	if handle == 0 {
		return sp
	}
	obj := (*Object)(unsafe.Pointer(uintptr(handle)))
	sp, err := ip.Evaluate(obj, sp)
	if err != nil {
		ip.Fail(err)
	}
	return sp
}
