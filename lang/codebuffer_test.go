package lang

import "testing"

func TestCodeBufferPreFilledWithTraps(t *testing.T) {
	buf, err := NewCodeBuffer(4096)
	assert(t, err == nil, "NewCodeBuffer failed: %v", err)
	defer buf.Close()

	assert(t, buf.mem[0] == 0xCC, "expected buffer to be pre-filled with 0xCC traps")
	assert(t, buf.mem[len(buf.mem)-1] == 0xCC, "expected trailing byte to be 0xCC")
}

func TestCodeBufferWriteAdvancesCursor(t *testing.T) {
	buf, err := NewCodeBuffer(4096)
	assert(t, err == nil, "NewCodeBuffer failed: %v", err)
	defer buf.Close()

	start := buf.Addr()
	assert(t, buf.WriteByte(0x90) == nil, "WriteByte failed")
	assert(t, buf.Cursor() == 1, "expected cursor 1, got %d", buf.Cursor())
	assert(t, buf.Addr() == start+1, "expected address to advance by one byte")
}

func TestCodeBufferExhaustion(t *testing.T) {
	buf, err := NewCodeBuffer(1)
	assert(t, err == nil, "NewCodeBuffer failed: %v", err)
	defer buf.Close()

	assert(t, buf.WriteByte(0x90) == nil, "first byte should fit")
	err = buf.WriteByte(0x90)
	fe, ok := err.(*FatalError)
	assert(t, ok, "expected *FatalError on exhaustion, got %T", err)
	assert(t, fe.Kind == AllocationFailed, "expected AllocationFailed, got %v", fe.Kind)
}
