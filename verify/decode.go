// Package verify implements the round-trip protocol that certifies an
// extended format against standard JSON, one emitted record at a time:
//
//  1. split the stream strictly on LF
//  2. decode each record natively, keeping numbers exact
//  3. encode the native value with the extended codec and decode it back
//  4. require the two native values to be equal (jzcvalue.Equal)
//
// The final record must additionally be an object holding every earlier
// record as a member value, plus exactly one extra member.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// Decode parses one JSON record into an exact native value. Integers become
// arbitrary-precision integers and every other number an exact decimal.
// Failures are DECODE_FAILED.
func Decode(record []byte, lim jzcnum.Limits) (jzcvalue.Value, error) {
	d := decoder{dec: jsontext.NewDecoder(bytes.NewReader(record)), lim: lim}
	v, err := d.value()
	if err != nil {
		return jzcvalue.Value{}, jzcerr.Wrap(jzcerr.DecodeFailed, "decoding record", err)
	}
	if _, err := d.dec.ReadToken(); !errors.Is(err, io.EOF) {
		return jzcvalue.Value{}, jzcerr.New(jzcerr.DecodeFailed, "trailing content after JSON value")
	}
	return v, nil
}

type decoder struct {
	dec *jsontext.Decoder
	lim jzcnum.Limits
}

func (d *decoder) value() (jzcvalue.Value, error) {
	switch d.dec.PeekKind() {
	case '[':
		return d.array()
	case '{':
		return d.object()
	case '0':
		raw, err := d.dec.ReadValue()
		if err != nil {
			return jzcvalue.Value{}, err
		}
		return d.lim.ParseNumber(string(raw))
	}

	tok, err := d.dec.ReadToken()
	if err != nil {
		return jzcvalue.Value{}, err
	}
	switch tok.Kind() {
	case 'n':
		return jzcvalue.Null(), nil
	case 't':
		return jzcvalue.Bool(true), nil
	case 'f':
		return jzcvalue.Bool(false), nil
	case '"':
		return jzcvalue.String(tok.String()), nil
	default:
		return jzcvalue.Value{}, fmt.Errorf("unexpected token %v", tok.Kind())
	}
}

func (d *decoder) array() (jzcvalue.Value, error) {
	if _, err := d.dec.ReadToken(); err != nil {
		return jzcvalue.Value{}, err
	}
	elems := []jzcvalue.Value{}
	for d.dec.PeekKind() != ']' {
		v, err := d.value()
		if err != nil {
			return jzcvalue.Value{}, err
		}
		elems = append(elems, v)
	}
	if _, err := d.dec.ReadToken(); err != nil {
		return jzcvalue.Value{}, err
	}
	return jzcvalue.Array(elems...), nil
}

func (d *decoder) object() (jzcvalue.Value, error) {
	if _, err := d.dec.ReadToken(); err != nil {
		return jzcvalue.Value{}, err
	}
	members := []jzcvalue.Member{}
	for d.dec.PeekKind() != '}' {
		name, err := d.dec.ReadToken()
		if err != nil {
			return jzcvalue.Value{}, err
		}
		v, err := d.value()
		if err != nil {
			return jzcvalue.Value{}, err
		}
		members = append(members, jzcvalue.Member{Key: name.String(), Value: v})
	}
	if _, err := d.dec.ReadToken(); err != nil {
		return jzcvalue.Value{}, err
	}
	return jzcvalue.Object(members...), nil
}
