// Package intrinsics implements the standard library of native (host)
// callables every catjit program starts with: stack shuffling, integer
// arithmetic, raw memory access, and console output. Each one is a
// lang.NativeFunc, reached from compiled code through a small machine-code
// thunk that RegisterNative emits, so it is called exactly like a user's own
// DEFUN, grounded on the peripheral
// dispatch model in KTStephano-GVM's vm/devices.go (a fixed table of
// host-implemented operations a running program can reach through one
// narrow calling convention).
package intrinsics

import (
	"fmt"
	"unsafe"

	"catjit/lang"
)

// Register installs every intrinsic into ip under its canonical name. It is
// the single entry point cmd/catjit calls before running a program.
func Register(ip *lang.Interpreter) error {
	for _, d := range defs {
		if err := ip.RegisterNative(d.name, d.fn); err != nil {
			return err
		}
	}
	return nil
}

var defs = []struct {
	name string
	fn   lang.NativeFunc
}{
	{"DUP", dup},
	{"SWAP", swap},
	{"DROP", drop},
	{"+", add},
	{"-", sub},
	{"*", mul},
	{"/", div},
	{"PGET", pget},
	{"PSET", pset},
	{"ALLOC", alloc},
	{"PRINTI", printi},
	{"PRINTS", prints},
}

func dup(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	v := lang.Peek(sp)
	return lang.Push(sp, v)
}

func swap(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	a, sp := lang.Pop(sp)
	b, sp := lang.Pop(sp)
	sp = lang.Push(sp, a)
	return lang.Push(sp, b)
}

func drop(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	_, sp = lang.Pop(sp)
	return sp
}

func add(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	b, sp := lang.Pop(sp)
	a, sp := lang.Pop(sp)
	return lang.Push(sp, a+b)
}

func sub(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	b, sp := lang.Pop(sp)
	a, sp := lang.Pop(sp)
	return lang.Push(sp, a-b)
}

func mul(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	b, sp := lang.Pop(sp)
	a, sp := lang.Pop(sp)
	return lang.Push(sp, a*b)
}

func div(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	b, sp := lang.Pop(sp)
	a, sp := lang.Pop(sp)
	if b == 0 {
		ip.Fail(lang.NewFatal(lang.InternalBug, "division by zero"))
		return sp
	}
	return lang.Push(sp, a/b)
}

// pget dereferences a host pointer: addr -- value.
func pget(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	addr, sp := lang.Pop(sp)
	v := *(*uint64)(unsafe.Pointer(uintptr(addr)))
	return lang.Push(sp, v)
}

// pset stores through a host pointer: value addr --.
func pset(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	addr, sp := lang.Pop(sp)
	v, sp := lang.Pop(sp)
	*(*uint64)(unsafe.Pointer(uintptr(addr))) = v
	return sp
}

// alloc reserves n*8 bytes of Go-managed memory and pushes its address:
// n -- addr. The backing slice is retained on the interpreter so the
// garbage collector never reclaims memory a running program still holds
// the only (unsafe) pointer to.
func alloc(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	n, sp := lang.Pop(sp)
	buf := make([]uint64, n)
	ip.Retain(buf)
	var addr uint64
	if n > 0 {
		addr = uint64(uintptr(unsafe.Pointer(&buf[0])))
	}
	return lang.Push(sp, addr)
}

func printi(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	v, sp := lang.Pop(sp)
	fmt.Printf("%d\n", int64(v))
	return sp
}

// prints prints a null-terminated string at a host address left on the
// stack by a string literal: addr --.
func prints(ip *lang.Interpreter, sp unsafe.Pointer) unsafe.Pointer {
	addr, sp := lang.Pop(sp)
	p := unsafe.Pointer(uintptr(addr))
	var buf []byte
	for {
		c := *(*byte)(p)
		if c == 0 {
			break
		}
		buf = append(buf, c)
		p = unsafe.Add(p, 1)
	}
	fmt.Println(string(buf))
	return sp
}
