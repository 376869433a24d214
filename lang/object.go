package lang

import "fmt"

// ObjectKind tags the closed set of read-object variants the reader can
// produce. Quote and Cons are reserved: the reader never returns them from
// the default readtable, but the type exists so Compile/Evaluate have a
// complete switch.
type ObjectKind int

const (
	KindSymbol ObjectKind = iota
	KindInteger
	KindString
	KindQuote
	KindCons
)

func (k ObjectKind) String() string {
	switch k {
	case KindSymbol:
		return "Symbol"
	case KindInteger:
		return "Integer"
	case KindString:
		return "String"
	case KindQuote:
		return "Quote"
	case KindCons:
		return "Cons"
	default:
		return fmt.Sprintf("ObjectKind(%d)", int(k))
	}
}

// Object is a tagged read-object produced by the Reader and consumed exactly
// once by the Compiler/Evaluator. Only the field matching Kind is valid.
type Object struct {
	Kind ObjectKind

	Symbol  string // KindSymbol: uppercased name
	Integer int64  // KindInteger: signed machine word
	Text    string // KindString: raw bytes, no escapes, no surrounding quotes

	Quoted   *Object // KindQuote: reserved, never populated by the core reader
	Car, Cdr *Object // KindCons: reserved, never populated by the core reader
}

func symbolObject(name string) *Object {
	return &Object{Kind: KindSymbol, Symbol: name}
}

func integerObject(v int64) *Object {
	return &Object{Kind: KindInteger, Integer: v}
}

func stringObject(text string) *Object {
	return &Object{Kind: KindString, Text: text}
}

func (o *Object) String() string {
	switch o.Kind {
	case KindSymbol:
		return o.Symbol
	case KindInteger:
		return fmt.Sprintf("%d", o.Integer)
	case KindString:
		return fmt.Sprintf("%q", o.Text)
	default:
		return o.Kind.String()
	}
}
