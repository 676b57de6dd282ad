// Package jzcjson serializes corpus values as standard JSON text (RFC 8259).
//
// This is the default serialization function handed to the emitter. Numbers
// keep their full precision: integers are written as plain digits, decimals
// in positional notation, doubles in exponential notation. Number conversion
// is bounded by the jzcnum.Limits carried in Options.
//
// String escaping follows RFC 8785 §3.2.2.2 so that output is byte-stable;
// object members keep insertion order unless SortKeys asks for the RFC 8785
// UTF-16 code-unit order.
package jzcjson

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// Options controls serializer behavior.
type Options struct {
	Limits         jzcnum.Limits
	SortKeys       bool // order object members by UTF-16 code units
	EscapeNonASCII bool // write every non-ASCII code point as \uXXXX
}

// Serializer is a reusable serializer bound to a set of options.
type Serializer struct {
	opts Options
}

// New returns a Serializer using opts.
func New(opts Options) *Serializer {
	return &Serializer{opts: opts}
}

// Serialize implements the emitter's serialization function.
func (s *Serializer) Serialize(v jzcvalue.Value) ([]byte, error) {
	return SerializeWithOptions(v, s.opts)
}

// Serialize produces the JSON text of v with default options. No trailing
// LF is appended; record framing is the emitter's concern.
func Serialize(v jzcvalue.Value) ([]byte, error) {
	return SerializeWithOptions(v, Options{})
}

// SerializeWithOptions is like Serialize but accepts configuration options.
//
// Errors carry a jzcerr class: values outside the JSON grammar (non-finite
// doubles, invalid UTF-8, duplicate member names) are SERIALIZE_FAILED and a
// number exceeding the digit limit is CONFIG_INVALID.
func SerializeWithOptions(v jzcvalue.Value, opts Options) ([]byte, error) {
	e := encoder{opts: opts}
	if err := e.value(&v); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf  []byte
	opts Options
}

func (e *encoder) value(v *jzcvalue.Value) error {
	switch v.Kind {
	case jzcvalue.KindNull:
		e.buf = append(e.buf, "null"...)
		return nil
	case jzcvalue.KindBool:
		if v.Bool {
			e.buf = append(e.buf, "true"...)
		} else {
			e.buf = append(e.buf, "false"...)
		}
		return nil
	case jzcvalue.KindInteger, jzcvalue.KindDecimal, jzcvalue.KindFloat:
		return e.number(v)
	case jzcvalue.KindString:
		return e.str(v.Str)
	case jzcvalue.KindArray:
		return e.array(v)
	case jzcvalue.KindObject:
		return e.object(v)
	default:
		return jzcerr.Newf(jzcerr.SerializeFailed, "unknown value kind %d", v.Kind)
	}
}

func (e *encoder) number(v *jzcvalue.Value) error {
	var (
		s   string
		err error
	)
	switch v.Kind {
	case jzcvalue.KindInteger:
		if v.Int == nil {
			return jzcerr.New(jzcerr.SerializeFailed, "integer without magnitude")
		}
		s, err = e.opts.Limits.FormatInt(v.Int)
	case jzcvalue.KindDecimal:
		if v.Dec.Coef == nil {
			return jzcerr.New(jzcerr.SerializeFailed, "decimal without coefficient")
		}
		s, err = e.opts.Limits.FormatDecimal(v.Dec)
	default:
		s, err = jzcnum.FormatFloat(v.Float)
	}
	if err != nil {
		if errors.Is(err, jzcnum.ErrDigitLimit) {
			return jzcerr.Wrap(jzcerr.ConfigInvalid, "number serialization", err)
		}
		return jzcerr.Wrap(jzcerr.SerializeFailed, "number serialization", err)
	}
	e.buf = append(e.buf, s...)
	return nil
}

// str applies RFC 8785 escaping:
//   - " → \"
//   - \ → \\
//   - U+0008 → \b, U+0009 → \t, U+000A → \n, U+000C → \f, U+000D → \r
//   - Other control chars U+0000-U+001F → \u00xx (lowercase hex)
//   - Everything else: raw UTF-8, unless EscapeNonASCII is set
func (e *encoder) str(s string) error {
	if !utf8.ValidString(s) {
		return jzcerr.New(jzcerr.SerializeFailed, "string is not valid UTF-8")
	}
	buf := append(e.buf, '"')
	for i := 0; i < len(s); {
		b := s[i]
		switch {
		case b == '"':
			buf = append(buf, '\\', '"')
		case b == '\\':
			buf = append(buf, '\\', '\\')
		case b == '\b':
			buf = append(buf, '\\', 'b')
		case b == '\t':
			buf = append(buf, '\\', 't')
		case b == '\n':
			buf = append(buf, '\\', 'n')
		case b == '\f':
			buf = append(buf, '\\', 'f')
		case b == '\r':
			buf = append(buf, '\\', 'r')
		case b < 0x20:
			buf = appendUnicodeEscape(buf, uint16(b))
		case b < utf8.RuneSelf:
			buf = append(buf, b)
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			if e.opts.EscapeNonASCII {
				if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
					buf = appendUnicodeEscape(buf, uint16(r1))
					buf = appendUnicodeEscape(buf, uint16(r2))
				} else {
					buf = appendUnicodeEscape(buf, uint16(r))
				}
			} else {
				buf = append(buf, s[i:i+size]...)
			}
			i += size
			continue
		}
		i++
	}
	e.buf = append(buf, '"')
	return nil
}

func appendUnicodeEscape(buf []byte, u uint16) []byte {
	return append(buf, '\\', 'u',
		hexDigit(byte(u>>12)), hexDigit(byte(u>>8)&0x0F),
		hexDigit(byte(u>>4)&0x0F), hexDigit(byte(u)&0x0F))
}

func hexDigit(b byte) byte {
	if b < 10 {
		return '0' + b
	}
	return 'a' + (b - 10)
}

func (e *encoder) array(v *jzcvalue.Value) error {
	e.buf = append(e.buf, '[')
	for i := range v.Elems {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if err := e.value(&v.Elems[i]); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, ']')
	return nil
}

func (e *encoder) object(v *jzcvalue.Value) error {
	members := v.Members
	if len(members) > 1 {
		seen := make(map[string]struct{}, len(members))
		for i := range members {
			if _, dup := seen[members[i].Key]; dup {
				return jzcerr.Newf(jzcerr.SerializeFailed, "duplicate member name %q", members[i].Key)
			}
			seen[members[i].Key] = struct{}{}
		}
	}
	if e.opts.SortKeys {
		members = make([]jzcvalue.Member, len(v.Members))
		copy(members, v.Members)
		sort.SliceStable(members, func(i, j int) bool {
			return compareUTF16(members[i].Key, members[j].Key) < 0
		})
	}

	e.buf = append(e.buf, '{')
	for i := range members {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if err := e.str(members[i].Key); err != nil {
			return fmt.Errorf("member name: %w", err)
		}
		e.buf = append(e.buf, ':')
		if err := e.value(&members[i].Value); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, '}')
	return nil
}

// compareUTF16 compares two Go strings by their UTF-16 code-unit arrays,
// as required by RFC 8785 §3.2.3.
//
// For BMP-only strings, this produces the same order as a simple byte
// comparison. It diverges for supplementary-plane characters (U+10000+),
// where UTF-16 surrogate pair code units sort differently than the
// corresponding UTF-8 byte sequences.
func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	minLen := len(ua)
	if len(ub) < minLen {
		minLen = len(ub)
	}
	for i := 0; i < minLen; i++ {
		if ua[i] < ub[i] {
			return -1
		}
		if ua[i] > ub[i] {
			return 1
		}
	}
	if len(ua) < len(ub) {
		return -1
	}
	if len(ua) > len(ub) {
		return 1
	}
	return 0
}
