package lang

import (
	"bufio"
	"io"
)

// byteSource is a minimal pushback byte reader, giving the one-byte
// pushback contract the Reader's algorithm needs directly from
// bufio.Reader's UnreadByte rather than a hand-rolled pushback buffer.
type byteSource struct {
	r *bufio.Reader
}

func newByteSource(r io.Reader) *byteSource {
	return &byteSource{r: bufio.NewReader(r)}
}

func (s *byteSource) next() (byte, error) {
	return s.r.ReadByte()
}

func (s *byteSource) unread() error {
	return s.r.UnreadByte()
}

// Reader turns a byte stream into a sequence of Objects, driven by a
// Readtable. It is the read-time front end shared by top-level evaluation
// and by the DEFUN/DEFMACRO/DEFVAL definition protocol, which re-enters
// ReadObject on the same stream while a definition body is open.
type Reader struct {
	rt  *Readtable
	src *byteSource
}

func NewReader(rt *Readtable, r io.Reader) *Reader {
	return &Reader{rt: rt, src: newByteSource(r)}
}

// ReadObject reads and returns the next object, or io.EOF if end-of-file
// occurs before any datum byte is seen (a legal, non-fatal end).
func (rd *Reader) ReadObject() (*Object, error) {
	for {
		c, err := rd.src.next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, asFatal(err)
		}

		props, known := rd.rt.propsOf(c)
		if !known {
			return nil, fatal(NoProperties, "byte 0x%02x has no readtable properties", c)
		}
		if props&propError != 0 {
			return nil, fatal(IllegalCharacter, "illegal byte %q", c)
		}
		if props&propWhitespace != 0 {
			continue
		}
		if props&propMacro != 0 {
			if rd.rt.macros[c] == nil {
				return nil, fatal(InternalBug, "macro character %q has no dispatch handler", c)
			}
			obj, ok, err := rd.rt.macros[c](rd.rt, rd.src)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			return obj, nil
		}
		if props&propNumberInit != 0 {
			return rd.readNumber(c)
		}
		if props&propConstituent != 0 {
			return rd.readSymbol(c)
		}
		return nil, fatal(NumberContinuationOutsideNumber, "byte %q carries NUMBER without NUMBER_INIT", c)
	}
}

// readSymbol accumulates uppercased bytes while they carry CONSTITUENT; the
// first non-constituent byte is pushed back.
func (rd *Reader) readSymbol(first byte) (*Object, error) {
	buf := []byte{toUpper(first)}
	for {
		c, err := rd.src.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, asFatal(err)
		}
		props, known := rd.rt.propsOf(c)
		if known && props&propError != 0 {
			return nil, fatal(IllegalCharacter, "illegal byte %q", c)
		}
		if !known || props&propConstituent == 0 {
			if err := rd.src.unread(); err != nil {
				return nil, asFatal(err)
			}
			break
		}
		buf = append(buf, toUpper(c))
	}
	return symbolObject(string(buf)), nil
}

// readNumber implements the integer reader: the first byte is '+', '-', or
// a digit; further bytes are accumulated while they carry NUMBER (digits
// only — '+'/'-' do not continue a number). A bare sign with no digits
// following it is not an integer; it reads back as the one-character
// symbol "+" or "-", which is how those names work as ordinary callables
// (the addition and subtraction intrinsics) despite sharing NUMBER_INIT
// with the digits.
func (rd *Reader) readNumber(first byte) (*Object, error) {
	sign := int64(1)
	haveSign := first == '+' || first == '-'
	if first == '-' {
		sign = -1
	}

	var digits []byte
	if !haveSign {
		digits = append(digits, first)
	}

	for {
		c, err := rd.src.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, asFatal(err)
		}
		props, known := rd.rt.propsOf(c)
		if known && props&propError != 0 {
			return nil, fatal(IllegalCharacter, "illegal byte %q", c)
		}
		if !known || props&propNumber == 0 {
			if err := rd.src.unread(); err != nil {
				return nil, asFatal(err)
			}
			break
		}
		digits = append(digits, c)
	}

	if len(digits) == 0 {
		// Bare '+' or '-': not a number after all.
		return symbolObject(string(first)), nil
	}

	var v int64
	for _, d := range digits {
		v = v*10 + int64(d-'0')
	}
	return integerObject(sign * v), nil
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
