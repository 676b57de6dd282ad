// Package jzcvalue is the data model shared by the corpus builder, the
// serializer and the verifier.
//
// A Value is restricted to what portable JSON can carry: null, booleans,
// strings of Unicode scalar values, arbitrary-precision integers and
// decimals, finite doubles, arrays and objects. Objects keep their members in
// insertion order so emission order is reproducible, but equality treats them
// as unordered sets of members.
package jzcvalue

import (
	"fmt"
	"math/big"
)

// Kind identifies the type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindDecimal
	KindFloat
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInteger: "integer",
	KindDecimal: "decimal",
	KindFloat:   "float",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsNumber reports whether k is one of the numeric kinds.
func (k Kind) IsNumber() bool {
	return k == KindInteger || k == KindDecimal || k == KindFloat
}

// Value represents one test value.
type Value struct {
	Kind    Kind
	Bool    bool     // For KindBool
	Str     string   // For KindString
	Int     *big.Int // For KindInteger
	Dec     Decimal  // For KindDecimal
	Float   float64  // For KindFloat: always written in exponential form
	Elems   []Value  // For KindArray
	Members []Member // For KindObject: insertion order
}

// Member is a key-value pair in an object.
type Member struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int returns an integer value. The Value takes ownership of x.
func Int(x *big.Int) Value { return Value{Kind: KindInteger, Int: x} }

// Int64 returns an integer value for a machine integer.
func Int64(n int64) Value { return Int(big.NewInt(n)) }

// Dec returns a decimal value.
func Dec(d Decimal) Value { return Value{Kind: KindDecimal, Dec: d} }

// Float returns a double value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Array returns an array value holding elems.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, Elems: elems}
}

// Object returns an object value holding members in the given order.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{Kind: KindObject, Members: members}
}

// Lookup returns the value of the member named key.
func (v Value) Lookup(key string) (Value, bool) {
	for i := range v.Members {
		if v.Members[i].Key == key {
			return v.Members[i].Value, true
		}
	}
	return Value{}, false
}

// ShallowCopy returns a copy of v whose top-level element or member list has
// its own backing array. Nested values are shared, which is safe because
// values are never mutated after construction.
func (v Value) ShallowCopy() Value {
	switch v.Kind {
	case KindArray:
		v.Elems = append(make([]Value, 0, len(v.Elems)), v.Elems...)
	case KindObject:
		v.Members = append(make([]Member, 0, len(v.Members)), v.Members...)
	}
	return v
}

// Rat returns the exact numeric value of a number. ok is false for
// non-numbers and non-finite doubles.
func (v Value) Rat() (r *big.Rat, ok bool) {
	switch v.Kind {
	case KindInteger:
		return new(big.Rat).SetInt(v.Int), true
	case KindDecimal:
		return v.Dec.Rat(), true
	case KindFloat:
		r = new(big.Rat).SetFloat64(v.Float)
		return r, r != nil
	default:
		return nil, false
	}
}
