package lang

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/asmfmt"
)

// traceEnabled mirrors the teacher's env-var debug toggles: set
// CATJIT_TRACE=1 to have every Emitter call append a line to the trace log,
// which the CLI prints to stderr (gofmt'd as Plan9 assembly via asmfmt)
// after the run ends or fails. It seeds the *TRACE* symbol's initial value; from
// then on the live *TRACE* binding is what the emitter actually consults
// (see Emitter.traceOn), so a guest DEFVAL can flip tracing on or off after
// startup too.
var traceEnabled = os.Getenv("CATJIT_TRACE") != ""

// Tracer accumulates a human-readable line per emitted instruction. It is
// only allocated and written when Emitter.trace finds traceOn true.
type Tracer struct {
	lines []string
}

func (tr *Tracer) record(format string, args ...any) {
	tr.lines = append(tr.lines, fmt.Sprintf(format, args...))
}

// Dump formats the accumulated trace as Plan9 assembly text via asmfmt, the
// same formatter `go vet`/`gofmt`-adjacent tooling uses on hand-written .s
// files, so a trace of JIT-emitted code reads like the source it was
// derived from.
func (tr *Tracer) Dump() string {
	src := "TEXT ·trace(SB), NOSPLIT, $0\n" + strings.Join(tr.lines, "\n") + "\n"
	formatted, err := asmfmt.Format(strings.NewReader(src))
	if err != nil {
		return src
	}
	return string(formatted)
}

// traceOn reports whether tracing is currently active. The live *TRACE*
// symbol-table entry is authoritative once the symbol table exists;
// traceEnabled (the env var) is only consulted as a fallback so tracing
// still works in tests that build a bare Emitter without an Interpreter.
func (e *Emitter) traceOn() bool {
	if e.syms == nil {
		return traceEnabled
	}
	b, ok := e.syms.Lookup("*TRACE*")
	return ok && b.kind == KindValue && b.value != 0
}

func (e *Emitter) trace(format string, args ...any) {
	if !e.traceOn() {
		return
	}
	if e.tracer == nil {
		e.tracer = &Tracer{}
	}
	e.tracer.record(format, args...)
}

// TraceDump returns the formatted instruction trace recorded so far, or the
// empty string if tracing was never enabled.
func (e *Emitter) TraceDump() string {
	if e.tracer == nil {
		return ""
	}
	return e.tracer.Dump()
}
