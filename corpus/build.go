package corpus

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// band is an inclusive integer range sampled uniformly.
type band struct {
	lo, hi *big.Int
}

func (b band) sample(src Source) *big.Int { return Uniform(src, b.lo, b.hi) }

// Width bands. Each one starts just above the maximum of the previous width.
var (
	bandResizing1 = band{Pow2(32), Pow2Minus1(56)}
	bandResizing2 = band{Pow2(64), Pow2Minus1(bigIntegerBits)}
	bandU8        = band{big.NewInt(0), big.NewInt(255)}
	bandU16       = band{big.NewInt(256), big.NewInt(65535)}
	bandU24       = band{Pow2(16), Pow2Minus1(24)}
	bandU32       = band{Pow2(24), Pow2Minus1(32)}
	bandU64       = band{Pow2(56), Pow2Minus1(64)}
)

// widths lists the defined-width integer bands in label order.
var widths = []struct {
	bits int
	band band
}{
	{8, bandU8},
	{16, bandU16},
	{24, bandU24},
	{32, bandU32},
	{64, bandU64},
}

// builder carries the sampling state of one Build call. The first failure
// sticks; later categories still run but the corpus is discarded.
type builder struct {
	cfg    Config
	src    Source
	limits jzcnum.Limits
	big    band // [2^2040, 2^UpperBits]
	upper  *big.Int
	err    error
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// category is one labeled corpus entry and the policy that produces it.
type category struct {
	label string
	build func(b *builder) jzcvalue.Value
}

// Build enumerates every category in order with values sampled from src,
// then appends "multi-type array 3". The configuration, including the digit
// conversion limit, is validated before anything is sampled.
func Build(cfg Config, src Source) (*Corpus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, jzcerr.New(jzcerr.RandomSource, "no random source")
	}
	b := &builder{
		cfg:    cfg,
		src:    src,
		limits: cfg.DigitLimits(),
		upper:  Pow2(cfg.UpperBits),
	}
	b.big = band{Pow2(bigIntegerBits), b.upper}

	cats := categories()
	c := newCorpus(len(cats) + 2)
	for _, cat := range cats {
		v := cat.build(b)
		if b.err != nil {
			return nil, fmt.Errorf("corpus: building %q: %w", cat.label, b.err)
		}
		if err := c.add(cat.label, v); err != nil {
			return nil, err
		}
	}

	flat := make([]jzcvalue.Value, 0, c.Len()+1)
	for _, e := range c.Entries() {
		flat = append(flat, e.Value)
	}
	self := jzcvalue.Array(flat...).ShallowCopy()
	if err := c.add(LabelMultiTypeArray3, jzcvalue.Array(append(flat, self)...)); err != nil {
		return nil, err
	}
	return c, nil
}

// CategoryLabels returns the labels Build produces, in order, including
// "multi-type array 3" but not the "object 4" snapshot.
func CategoryLabels() []string {
	cats := categories()
	labels := make([]string, 0, len(cats)+1)
	for _, cat := range cats {
		labels = append(labels, cat.label)
	}
	return append(labels, LabelMultiTypeArray3)
}

func categories() []category {
	cats := []category{
		{"boolean true", fixed(jzcvalue.Bool(true))},
		{"boolean false", fixed(jzcvalue.Bool(false))},
		{"null", fixed(jzcvalue.Null())},
		{"string 0", fixed(jzcvalue.String(""))},
		{"string ascii", func(b *builder) jzcvalue.Value {
			return jzcvalue.String(b.asciiString(b.cfg.StringLength))
		}},
		{"string utf-8", func(b *builder) jzcvalue.Value {
			return jzcvalue.String(b.unicodeString(b.cfg.StringLength))
		}},
		{"resizing integer 1", sampled(bandResizing1, false)},
		{"resizing integer 2", sampled(bandResizing2, false)},
		{"negative resizing integer 1", sampled(bandResizing1, true)},
		{"negative resizing integer 2", sampled(bandResizing2, true)},
		{"unsigned 8-bit defined integer", sampled(bandU8, false)},
		{"unsigned 8-bit defined integer 2", fixed(jzcvalue.Int64(0))},
	}
	for _, w := range widths[1:] {
		cats = append(cats, category{fmt.Sprintf("unsigned %d-bit defined integer", w.bits), sampled(w.band, false)})
	}
	for _, w := range widths {
		cats = append(cats, category{fmt.Sprintf("negative %d-bit defined integer", w.bits), sampled(w.band, true)})
	}
	cats = append(cats,
		category{"big integer", func(b *builder) jzcvalue.Value { return jzcvalue.Int(b.big.sample(b.src)) }},
		category{"negative big integer", func(b *builder) jzcvalue.Value { return jzcvalue.Int(neg(b.big.sample(b.src))) }},
		category{"decimal 1", func(b *builder) jzcvalue.Value { return b.decimal(false) }},
		category{"decimal 2", func(b *builder) jzcvalue.Value { return b.decimal(true) }},
		category{"decimal 3", func(b *builder) jzcvalue.Value { return jzcvalue.Float(b.float()) }},
		category{"decimal 4", func(b *builder) jzcvalue.Value { return jzcvalue.Float(-b.float()) }},
		category{"object 1", fixed(jzcvalue.Object(jzcvalue.Member{Key: "meow", Value: jzcvalue.String("meow")}))},
		category{"object 2", fixed(jzcvalue.Object())},
		category{"object 3", fixed(jzcvalue.Object(jzcvalue.Member{Key: "meow", Value: jzcvalue.Object()}))},
		category{"multi-type array 1", fixed(jzcvalue.Array())},
		category{"multi-type array 2", func(b *builder) jzcvalue.Value {
			return repeat(jzcvalue.Array(), b.cfg.RepeatedEmpty)
		}},
		category{"null array 1", fixed(jzcvalue.Array(jzcvalue.Null()))},
		category{"null array 2", func(b *builder) jzcvalue.Value { return repeat(jzcvalue.Null(), b.cfg.LongArrayLength) }},
		category{"bool array 1", fixed(jzcvalue.Array(jzcvalue.Bool(true)))},
		category{"bool array 2", func(b *builder) jzcvalue.Value { return repeat(jzcvalue.Bool(true), b.cfg.LongArrayLength) }},
		category{"bool array 3", fixed(jzcvalue.Array(jzcvalue.Bool(false)))},
		category{"bool array 4", func(b *builder) jzcvalue.Value { return repeat(jzcvalue.Bool(false), b.cfg.LongArrayLength) }},
		category{"bool array 5", func(b *builder) jzcvalue.Value {
			return b.array(b.cfg.LongArrayLength, func() jzcvalue.Value { return jzcvalue.Bool(b.src.IntN(2) == 1) })
		}},
		category{"string array 1", func(b *builder) jzcvalue.Value {
			return b.array(b.cfg.LongStrings, func() jzcvalue.Value {
				return jzcvalue.String(b.unicodeString(b.cfg.LongStringLength))
			})
		}},
		category{"string array 2", func(b *builder) jzcvalue.Value {
			return b.array(b.cfg.ShortStrings, func() jzcvalue.Value {
				return jzcvalue.String(b.unicodeString(b.cfg.ShortStringLength))
			})
		}},
		// Array signs follow their labels: only the "negative ..." arrays are negated.
		category{"resizing integer array", sampledArray(bandResizing1, false)},
		category{"negative resizing integer array", sampledArray(bandResizing1, true)},
	)
	for _, w := range widths {
		cats = append(cats, category{fmt.Sprintf("unsigned %d-bit defined integer array", w.bits), sampledArray(w.band, false)})
	}
	for _, w := range widths {
		cats = append(cats, category{fmt.Sprintf("negative %d-bit defined integer array", w.bits), sampledArray(w.band, true)})
	}
	return append(cats,
		// As above, "negative big integer array" is the negated one.
		category{"big integer array", func(b *builder) jzcvalue.Value {
			return b.array(b.cfg.BigArrayLength, func() jzcvalue.Value { return jzcvalue.Int(b.big.sample(b.src)) })
		}},
		category{"negative big integer array", func(b *builder) jzcvalue.Value {
			return b.array(b.cfg.BigArrayLength, func() jzcvalue.Value { return jzcvalue.Int(neg(b.big.sample(b.src))) })
		}},
		category{"decimal array", func(b *builder) jzcvalue.Value {
			signed := band{new(big.Int).Neg(b.upper), b.upper}
			return b.array(b.cfg.BigArrayLength, func() jzcvalue.Value {
				return b.decimalFrom(false, signed.sample(b.src))
			})
		}},
	)
}

func fixed(v jzcvalue.Value) func(*builder) jzcvalue.Value {
	return func(*builder) jzcvalue.Value { return v }
}

func sampled(bd band, negative bool) func(*builder) jzcvalue.Value {
	return func(b *builder) jzcvalue.Value {
		x := bd.sample(b.src)
		if negative {
			x.Neg(x)
		}
		return jzcvalue.Int(x)
	}
}

func sampledArray(bd band, negative bool) func(*builder) jzcvalue.Value {
	one := sampled(bd, negative)
	return func(b *builder) jzcvalue.Value {
		return b.array(b.cfg.LongArrayLength, func() jzcvalue.Value { return one(b) })
	}
}

func repeat(v jzcvalue.Value, n int) jzcvalue.Value {
	elems := make([]jzcvalue.Value, n)
	for i := range elems {
		elems[i] = v
	}
	return jzcvalue.Array(elems...)
}

func (b *builder) array(n int, next func() jzcvalue.Value) jzcvalue.Value {
	elems := make([]jzcvalue.Value, n)
	for i := range elems {
		elems[i] = next()
	}
	return jzcvalue.Array(elems...)
}

func neg(x *big.Int) *big.Int { return x.Neg(x) }

func (b *builder) asciiString(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(byte(b.src.IntN(128)))
	}
	return sb.String()
}

func (b *builder) unicodeString(n int) string {
	var sb strings.Builder
	sb.Grow(n * 3)
	for i := 0; i < n; i++ {
		sb.WriteRune(randScalar(b.src))
	}
	return sb.String()
}

// decimal samples "{a}.{b}" with a and b from [0, 2^UpperBits].
func (b *builder) decimal(negative bool) jzcvalue.Value {
	return b.decimalFrom(negative, Uniform(b.src, bigZero, b.upper))
}

// decimalFrom appends a sampled fraction to intPart. The fraction's digit
// count becomes the scale, so converting it is subject to the digit limit.
func (b *builder) decimalFrom(negative bool, intPart *big.Int) jzcvalue.Value {
	frac := Uniform(b.src, bigZero, b.upper)
	digits, err := b.limits.CountDigits(frac)
	if err != nil {
		b.fail(jzcerr.Wrap(jzcerr.ConfigInvalid, "decimal fraction", err))
		return jzcvalue.Null()
	}
	return jzcvalue.Dec(jzcvalue.NewDecimal(negative, intPart, frac, digits))
}

// float samples an integer from [2^54, 2^FloatMaxBits] and rounds it to the
// nearest double.
func (b *builder) float() float64 {
	n := Uniform(b.src, Pow2(floatMinBits), Pow2(b.cfg.FloatMaxBits))
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

var bigZero = big.NewInt(0)
