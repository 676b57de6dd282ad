package jzcvalue

import (
	"fmt"
	"math"
	"strconv"
)

// Equal reports whether a and b are the same value under the round-trip
// equality rules:
//   - integers equal integers of the same value, whatever their width
//   - an integer never equals a decimal or a double, even of the same value
//   - decimals and doubles compare by exact numeric value; NaN and the
//     infinities equal nothing
//   - strings compare code point for code point
//   - arrays compare element for element, in order
//   - objects compare as sets of members, ignoring member order
func Equal(a, b Value) bool {
	return Diff(a, b) == ""
}

// Diff returns the path of the first difference between a and b, or "" when
// they are equal. Paths look like $[3]["meow"].
func Diff(a, b Value) string {
	return comparer{}.diff("$", a, b)
}

// EqualNearest is Equal, except that a double equals any decimal or integer
// whose nearest double it is. It relates doubles held in memory to the
// shortest decimal text they were written as; round trips use Equal.
func EqualNearest(a, b Value) bool {
	return DiffNearest(a, b) == ""
}

// DiffNearest is Diff under the EqualNearest rules.
func DiffNearest(a, b Value) string {
	return comparer{nearest: true}.diff("$", a, b)
}

type comparer struct {
	nearest bool
}

func (c comparer) diff(path string, a, b Value) string {
	if a.Kind.IsNumber() && b.Kind.IsNumber() {
		if !c.numbersEqual(a, b) {
			return path
		}
		return ""
	}
	if a.Kind != b.Kind {
		return path
	}
	switch a.Kind {
	case KindNull:
		return ""
	case KindBool:
		if a.Bool != b.Bool {
			return path
		}
	case KindString:
		if a.Str != b.Str {
			return path
		}
	case KindArray:
		if len(a.Elems) != len(b.Elems) {
			return path
		}
		for i := range a.Elems {
			if d := c.diff(path+"["+strconv.Itoa(i)+"]", a.Elems[i], b.Elems[i]); d != "" {
				return d
			}
		}
	case KindObject:
		return c.diffObjects(path, a.Members, b.Members)
	default:
		return path
	}
	return ""
}

func (c comparer) diffObjects(path string, a, b []Member) string {
	if len(a) != len(b) {
		return path
	}
	index := make(map[string]int, len(b))
	for i := range b {
		index[b[i].Key] = i
	}
	for i := range a {
		child := path + "[" + strconv.Quote(a[i].Key) + "]"
		j, ok := index[a[i].Key]
		if !ok {
			return child
		}
		if d := c.diff(child, a[i].Value, b[j].Value); d != "" {
			return d
		}
	}
	return ""
}

func (c comparer) numbersEqual(a, b Value) bool {
	if c.nearest && (a.Kind == KindFloat || b.Kind == KindFloat) {
		x, y := nearestDouble(a), nearestDouble(b)
		return x == y && !math.IsInf(x, 0)
	}
	if a.Kind == KindInteger || b.Kind == KindInteger {
		return a.Kind == b.Kind && a.Int.Cmp(b.Int) == 0
	}
	if a.Kind == KindFloat && b.Kind == KindFloat {
		return a.Float == b.Float && !math.IsInf(a.Float, 0)
	}
	ra, ok := a.Rat()
	if !ok {
		return false
	}
	rb, ok := b.Rat()
	if !ok {
		return false
	}
	return ra.Cmp(rb) == 0
}

func nearestDouble(v Value) float64 {
	if v.Kind == KindFloat {
		return v.Float
	}
	r, ok := v.Rat()
	if !ok {
		return math.NaN()
	}
	f, _ := r.Float64()
	return f
}

// Digits returns the number of decimal digits in the positional text of a
// number: integer digits plus fraction digits, excluding sign and point.
// It returns 0 for non-numbers.
func Digits(v Value) int {
	switch v.Kind {
	case KindInteger:
		s := v.Int.String()
		if v.Int.Sign() < 0 {
			return len(s) - 1
		}
		return len(s)
	case KindDecimal:
		i, f := v.Dec.Positional()
		return len(i) + len(f)
	case KindFloat:
		return len(strconv.FormatFloat(math.Abs(v.Float), 'f', -1, 64))
	default:
		return 0
	}
}

// GoString renders a short description of v for test failure messages.
func (v Value) GoString() string {
	switch v.Kind {
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.Elems))
	case KindObject:
		return fmt.Sprintf("object{%d}", len(v.Members))
	case KindString:
		if len(v.Str) > 32 {
			return fmt.Sprintf("string(%d bytes)", len(v.Str))
		}
		return strconv.Quote(v.Str)
	case KindInteger, KindDecimal:
		return fmt.Sprintf("%s(%d digits)", v.Kind, Digits(v))
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Kind.String()
	}
}
