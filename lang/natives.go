package lang

import "unsafe"

// NativeFunc is the signature every host-implemented (native) callable
// must have: given the interpreter (for error reporting and for access to
// ambient facilities like the code buffer or registered constants) and the
// current parameter-stack pointer, it returns the updated pointer. A
// native that fails sets ip.err instead of returning a Go error, mirroring
// the fixed-signature, side-channel-error style the spec's guest calling
// convention already forces on compiled code.
type NativeFunc func(ip *Interpreter, sp unsafe.Pointer) unsafe.Pointer

// nativeEntry pairs a registered native with the thunk address the guest
// calls to reach it.
type nativeEntry struct {
	name string
	fn   NativeFunc
	addr uintptr
}

// currentInterp is the single live Interpreter whose natives dispatchNative
// invokes. Exactly one Interpreter is ever in the middle of running guest
// code at a time (the spec has no concurrency), so a package-level pointer
// is simpler than threading the interpreter through the asm boundary.
var currentInterp *Interpreter

// dispatchNative is called from nativeReentry (trampoline_amd64.s) for
// every native-intrinsic invocation reached from compiled code. It is not
// intended to be called from Go directly.
func dispatchNative(id int32, sp unsafe.Pointer) unsafe.Pointer {
	ip := currentInterp
	if ip == nil || int(id) < 0 || int(id) >= len(ip.natives) {
		panic("catjit: invalid native dispatch id")
	}
	return ip.natives[id].fn(ip, sp)
}

// emitNativeThunk writes a small stub into the code buffer that loads id
// into EAX and tail-jumps to nativeReentry, grounded on the same
// call-by-absolute-address approach classifyCall already uses for guest
// calls, so a native's CodeAddr is indistinguishable from a compiled
// function's to every caller.
//
//	mov $id, %eax               B8 <imm32>
//	movabs $nativeReentryAddr, %r11   49 BB <imm64>
//	jmp *%r11                   41 FF E3
func (ip *Interpreter) emitNativeThunk(id int32) (uintptr, error) {
	addr := ip.emit.Addr()
	buf := ip.emit.buf
	if err := buf.WriteByte(0xB8); err != nil {
		return 0, err
	}
	var idBytes [4]byte
	idBytes[0] = byte(id)
	idBytes[1] = byte(id >> 8)
	idBytes[2] = byte(id >> 16)
	idBytes[3] = byte(id >> 24)
	if err := buf.WriteBytes(idBytes[:]...); err != nil {
		return 0, err
	}
	if err := buf.WriteBytes(0x49, 0xBB); err != nil {
		return 0, err
	}
	target := nativeReentryAddr()
	var addrBytes [8]byte
	for i := 0; i < 8; i++ {
		addrBytes[i] = byte(target >> (8 * i))
	}
	if err := buf.WriteBytes(addrBytes[:]...); err != nil {
		return 0, err
	}
	if err := buf.WriteBytes(0x41, 0xFF, 0xE3); err != nil {
		return 0, err
	}
	return addr, nil
}

// Push decrements sp by one cell and stores v, returning the new pointer.
// Exported for the intrinsics package, which implements NativeFuncs
// outside this package and needs the same stack-pointer arithmetic the
// emitter's PushInteger encodes in machine code.
func Push(sp unsafe.Pointer, v uint64) unsafe.Pointer {
	sp = unsafe.Pointer(uintptr(sp) - 8)
	*(*uint64)(sp) = v
	return sp
}

// Pop reads the top cell and returns it along with the incremented
// pointer.
func Pop(sp unsafe.Pointer) (uint64, unsafe.Pointer) {
	v := *(*uint64)(sp)
	return v, unsafe.Pointer(uintptr(sp) + 8)
}

// Peek reads the top cell without adjusting sp.
func Peek(sp unsafe.Pointer) uint64 {
	return *(*uint64)(sp)
}
