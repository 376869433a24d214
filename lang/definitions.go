package lang

import (
	"io"
	"unsafe"
)

// defKind distinguishes the three read-time definition forms. All three
// share the same AwaitingName/AwaitingBody skeleton; only what happens to
// the body (compiled, for functions and macros alike, or evaluated
// immediately, for values) and how the name is bound differ.
type defKind int

const (
	defFunction defKind = iota
	defMacro
	defValue
)

// readDefinition's control flow is a straight-line
// Idle -> AwaitingName -> AwaitingBody -> Emitted state machine; there is
// exactly one in-progress definition at a time (definitions cannot nest),
// so the state lives entirely in local variables rather than a struct.

// Run drives the top-level read-eval loop over r until EOF: read one
// object, and either hand it to the DEFUN/DEFMACRO/DEFVAL protocol (when it
// names one of those three reserved words) or Evaluate it immediately
// against sp. Returns the final stack pointer and nil on clean EOF. It owns
// no state of its own beyond the current stack pointer, matching the
// teacher's tight exec loop in vm/exec.go generalized from "fetch next
// instruction" to "read next object".
func Run(ip *Interpreter, r io.Reader, sp0 unsafe.Pointer) (unsafe.Pointer, error) {
	rt := ip.rt
	rdr := NewReader(rt, r)
	prevReader := ip.reader
	ip.reader = rdr
	defer func() { ip.reader = prevReader }()
	sp := sp0

	for {
		obj, err := rdr.ReadObject()
		if err == io.EOF {
			return sp, nil
		}
		if err != nil {
			return sp, err
		}

		if obj.Kind == KindSymbol {
			switch obj.Symbol {
			case "DEFUN":
				if err := readDefinition(ip, rdr, defFunction); err != nil {
					return sp, err
				}
				continue
			case "DEFMACRO":
				if err := readDefinition(ip, rdr, defMacro); err != nil {
					return sp, err
				}
				continue
			case "DEFVAL":
				if err := readDefinition(ip, rdr, defValue); err != nil {
					return sp, err
				}
				continue
			}
		}

		sp, err = ip.Evaluate(obj, sp)
		if err != nil {
			return sp, err
		}
	}
}

// readDefinition implements the shared AwaitingName/AwaitingBody skeleton
// for DEFUN/DEFMACRO/DEFVAL: read a name, then read body objects until a
// Symbol named DONE (bodies do not nest), then dispatch on kind to compile,
// compile-and-register-as-macro, or evaluate the body. Every kind emits a
// prologue/epilogue/ret pair, even DEFVAL, whose entry address is captured
// but never bound to anything — the spec's step 6/7 require it regardless
// of kind, so the emitted bytes for a DEFVAL are simply dead code that no
// call site will ever reach.
func readDefinition(ip *Interpreter, rdr *Reader, kind defKind) error {
	nameObj, err := rdr.ReadObject()
	if err == io.EOF {
		return fatal(UnterminatedDefinition, "EOF while awaiting definition name")
	}
	if err != nil {
		return err
	}
	if nameObj.Kind != KindSymbol {
		return fatal(BadDefName, "definition name must be a symbol, got %s", nameObj.Kind)
	}
	name := nameObj.Symbol

	entry := ip.emit.Addr()
	switch kind {
	case defFunction:
		// Defined before the body is compiled, not after: this is what lets
		// a definition call itself by name the same way it calls anything
		// else already in the symbol table, with no separate recursion
		// case in Compile and no forward-reference patching required.
		ip.syms.Define(name, KindFunction, entry, 0)
	case defMacro:
		ip.syms.Define(name, KindMacro, entry, 0)
	}

	if err := ip.emit.Prologue(); err != nil {
		return err
	}

	scratch := NewParamStack()
	sp := scratch.Top()
	sawBody := false

	for {
		obj, err := rdr.ReadObject()
		if err == io.EOF {
			return fatal(UnterminatedDefinition, "EOF inside body of %q", name)
		}
		if err != nil {
			return err
		}
		if obj.Kind == KindSymbol && obj.Symbol == "DONE" {
			break
		}
		sawBody = true

		switch kind {
		case defFunction, defMacro:
			if err := ip.Compile(obj); err != nil {
				return err
			}
		case defValue:
			sp, err = ip.Evaluate(obj, sp)
			if err != nil {
				return err
			}
		}
	}

	if err := ip.emit.Epilogue(); err != nil {
		return err
	}
	if err := ip.emit.Ret(); err != nil {
		return err
	}

	if kind == defValue {
		if !sawBody || sp == scratch.Top() {
			return fatal(BadDefName, "DEFVAL %q body produced no value", name)
		}
		v, _ := Pop(sp)
		ip.syms.Define(name, KindValue, 0, int64(v))
	}
	return nil
}
