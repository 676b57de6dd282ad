// Package cborz maps test values onto CBOR (RFC 8949) and back. It is the
// reference extended format for the round-trip protocol: integers become CBOR
// integers or bignums (tags 2 and 3), decimals become decimal fractions
// (tag 4), floats stay float64.
package cborz

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// TagDecimalFraction is the RFC 8949 tag for [exponent, mantissa] pairs.
const TagDecimalFraction = 4

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		BigIntConvert: cbor.BigIntConvertShortest,
	}.EncMode()
	if err != nil {
		panic("cborz: encoder mode: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		BigIntDec:        cbor.BigIntDecodePointer,
		MaxArrayElements: math.MaxInt32,
		MaxMapPairs:      math.MaxInt32,
	}.DecMode()
	if err != nil {
		panic("cborz: decoder mode: " + err.Error())
	}
}

// Codec is the CBOR extended codec.
type Codec struct{}

func (Codec) Name() string { return "cbor" }

func (Codec) Encode(v jzcvalue.Value) ([]byte, error) { return Marshal(v) }

func (Codec) Decode(data []byte) (jzcvalue.Value, error) { return Unmarshal(data) }

// Marshal encodes v as CBOR.
func Marshal(v jzcvalue.Value) ([]byte, error) {
	item, err := toItem(v)
	if err != nil {
		return nil, jzcerr.Wrap(jzcerr.SerializeFailed, "cbor", err)
	}
	data, err := encMode.Marshal(item)
	if err != nil {
		return nil, jzcerr.Wrap(jzcerr.SerializeFailed, "cbor", err)
	}
	return data, nil
}

// Unmarshal decodes a single CBOR item. Object members come back sorted by
// key since CBOR maps carry no order.
func Unmarshal(data []byte) (jzcvalue.Value, error) {
	var item any
	if err := decMode.Unmarshal(data, &item); err != nil {
		return jzcvalue.Value{}, jzcerr.Wrap(jzcerr.DecodeFailed, "cbor", err)
	}
	v, err := fromItem(item)
	if err != nil {
		return jzcvalue.Value{}, jzcerr.Wrap(jzcerr.DecodeFailed, "cbor", err)
	}
	return v, nil
}

func toItem(v jzcvalue.Value) (any, error) {
	switch v.Kind {
	case jzcvalue.KindNull:
		return nil, nil
	case jzcvalue.KindBool:
		return v.Bool, nil
	case jzcvalue.KindString:
		return v.Str, nil
	case jzcvalue.KindInteger:
		if v.Int == nil {
			return nil, fmt.Errorf("integer without value")
		}
		return v.Int, nil
	case jzcvalue.KindDecimal:
		if v.Dec.Coef == nil {
			return nil, fmt.Errorf("decimal without coefficient")
		}
		mant := new(big.Int).Set(v.Dec.Coef)
		if v.Dec.Neg {
			mant.Neg(mant)
		}
		return cbor.Tag{Number: TagDecimalFraction, Content: []any{int64(-v.Dec.Scale), mant}}, nil
	case jzcvalue.KindFloat:
		return v.Float, nil
	case jzcvalue.KindArray:
		items := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			it, err := toItem(e)
			if err != nil {
				return nil, err
			}
			items[i] = it
		}
		return items, nil
	case jzcvalue.KindObject:
		m := make(map[string]any, len(v.Members))
		for _, mem := range v.Members {
			if _, dup := m[mem.Key]; dup {
				return nil, fmt.Errorf("duplicate key %q", mem.Key)
			}
			it, err := toItem(mem.Value)
			if err != nil {
				return nil, err
			}
			m[mem.Key] = it
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown kind %d", v.Kind)
}

func fromItem(item any) (jzcvalue.Value, error) {
	switch x := item.(type) {
	case nil:
		return jzcvalue.Null(), nil
	case bool:
		return jzcvalue.Bool(x), nil
	case string:
		return jzcvalue.String(x), nil
	case uint64:
		return jzcvalue.Int(new(big.Int).SetUint64(x)), nil
	case int64:
		return jzcvalue.Int64(x), nil
	case *big.Int:
		return jzcvalue.Int(x), nil
	case big.Int:
		return jzcvalue.Int(&x), nil
	case float64:
		return jzcvalue.Float(x), nil
	case float32:
		return jzcvalue.Float(float64(x)), nil
	case cbor.Tag:
		if x.Number != TagDecimalFraction {
			return jzcvalue.Value{}, fmt.Errorf("unsupported tag %d", x.Number)
		}
		return decimalFraction(x.Content)
	case []any:
		elems := make([]jzcvalue.Value, len(x))
		for i, it := range x {
			v, err := fromItem(it)
			if err != nil {
				return jzcvalue.Value{}, err
			}
			elems[i] = v
		}
		return jzcvalue.Array(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]jzcvalue.Member, len(keys))
		for i, k := range keys {
			v, err := fromItem(x[k])
			if err != nil {
				return jzcvalue.Value{}, err
			}
			members[i] = jzcvalue.Member{Key: k, Value: v}
		}
		return jzcvalue.Object(members...), nil
	}
	return jzcvalue.Value{}, fmt.Errorf("unsupported CBOR item %T", item)
}

func decimalFraction(content any) (jzcvalue.Value, error) {
	pair, ok := content.([]any)
	if !ok || len(pair) != 2 {
		return jzcvalue.Value{}, fmt.Errorf("decimal fraction is not an [exponent, mantissa] pair")
	}
	exp, err := fromItem(pair[0])
	if err != nil || exp.Kind != jzcvalue.KindInteger || !exp.Int.IsInt64() {
		return jzcvalue.Value{}, fmt.Errorf("decimal fraction exponent out of range")
	}
	mant, err := fromItem(pair[1])
	if err != nil || mant.Kind != jzcvalue.KindInteger {
		return jzcvalue.Value{}, fmt.Errorf("decimal fraction mantissa is not an integer")
	}
	e := exp.Int.Int64()
	if e > math.MaxInt32 || e < math.MinInt32 {
		return jzcvalue.Value{}, fmt.Errorf("decimal fraction exponent %d out of range", e)
	}
	return jzcvalue.Dec(jzcvalue.Decimal{
		Neg:   mant.Int.Sign() < 0,
		Coef:  new(big.Int).Abs(mant.Int),
		Scale: int(-e),
	}), nil
}
