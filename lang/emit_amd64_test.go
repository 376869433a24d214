package lang

import "testing"

func newTestEmitter(t *testing.T) (*Emitter, *CodeBuffer) {
	t.Helper()
	buf, err := NewCodeBuffer(4096)
	assert(t, err == nil, "NewCodeBuffer failed: %v", err)
	t.Cleanup(func() { buf.Close() })
	return NewEmitter(buf, nil), buf
}

func TestEmitterPrologueEncoding(t *testing.T) {
	e, buf := newTestEmitter(t)
	assert(t, e.Prologue() == nil, "Prologue failed")
	want := []byte{0x48, 0x83, 0xEC, 0x08}
	for i, b := range want {
		assert(t, buf.mem[i] == b, "byte %d: want 0x%02x, got 0x%02x", i, b, buf.mem[i])
	}
}

func TestEmitterEpilogueEncoding(t *testing.T) {
	e, buf := newTestEmitter(t)
	assert(t, e.Epilogue() == nil, "Epilogue failed")
	want := []byte{0x48, 0x83, 0xC4, 0x08}
	for i, b := range want {
		assert(t, buf.mem[i] == b, "byte %d: want 0x%02x, got 0x%02x", i, b, buf.mem[i])
	}
}

func TestEmitterRetIsRet(t *testing.T) {
	e, buf := newTestEmitter(t)
	assert(t, e.Ret() == nil, "Ret failed")
	assert(t, buf.mem[0] == 0xC3, "expected 0xC3 (ret), got 0x%02x", buf.mem[0])
}

func TestEmitterPushIntegerEncoding(t *testing.T) {
	e, buf := newTestEmitter(t)
	assert(t, e.PushInteger(42) == nil, "PushInteger failed")

	want := []byte{0x49, 0x83, 0xEF, 0x08, 0x48, 0xB8, 42, 0, 0, 0, 0, 0, 0, 0, 0x49, 0x89, 0x07}
	assert(t, buf.Cursor() == len(want), "expected %d bytes written, got %d", len(want), buf.Cursor())
	for i, b := range want {
		assert(t, buf.mem[i] == b, "byte %d: want 0x%02x, got 0x%02x", i, b, buf.mem[i])
	}
}

func TestEmitterDirectCall(t *testing.T) {
	e, buf := newTestEmitter(t)
	target := buf.Addr() + 100
	patchAt, kind, err := e.Call(target)
	assert(t, err == nil, "Call failed: %v", err)
	assert(t, kind == callDirect, "expected callDirect, got %v", kind)
	assert(t, buf.mem[0] == 0xE8, "expected 0xE8 direct call opcode, got 0x%02x", buf.mem[0])
	assert(t, patchAt == 1, "expected patch position 1, got %d", patchAt)
}

func TestEmitterIndirectImm32Call(t *testing.T) {
	e, buf := newTestEmitter(t)
	const target = 0x1000 // low enough to fit %eax, too far for a rel32 from a real mmap address
	patchAt, kind, err := e.Call(target)
	assert(t, err == nil, "Call failed: %v", err)
	assert(t, kind == callIndirectImm32, "expected callIndirectImm32, got %v", kind)
	assert(t, buf.mem[0] == 0xB8, "expected 0xB8 (mov $imm32, %%eax), got 0x%02x", buf.mem[0])
	assert(t, patchAt == 1, "expected patch position 1, got %d", patchAt)
	assert(t, buf.mem[5] == 0xFF && buf.mem[6] == 0xD0, "expected FF D0 (call *%%rax) at end")
}

func TestEmitterIndirectAbsoluteCall(t *testing.T) {
	e, buf := newTestEmitter(t)
	const target = 0xFFFFFFFF00000000
	patchAt, kind, err := e.Call(target)
	assert(t, err == nil, "Call failed: %v", err)
	assert(t, kind == callIndirectAbsolute, "expected callIndirectAbsolute, got %v", kind)
	assert(t, buf.mem[0] == 0x48 && buf.mem[1] == 0xB8, "expected 48 B8 (movabs $imm64, %%rax), got 0x%02x 0x%02x", buf.mem[0], buf.mem[1])
	assert(t, patchAt == 2, "expected patch position 2, got %d", patchAt)
	assert(t, buf.mem[10] == 0xFF && buf.mem[11] == 0xD0, "expected FF D0 (call *%%rax) at end")

	e.PatchCall(patchAt, kind, target+8)
}
