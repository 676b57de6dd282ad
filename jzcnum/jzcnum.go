// Package jzcnum formats corpus numbers as JSON number text under an
// explicit digit-conversion limit.
//
// Big integers in the corpus reach tens of thousands of decimal digits, and
// decimals built from two of them twice that. Converting such values is only
// allowed up to Limits.MaxDigits characters; the limit is a value threaded
// through every call rather than a process-wide setting, and it is derived
// from the largest magnitude the corpus may sample (RequiredDigits).
//
// Doubles are always written in exponential notation with the shortest
// significand that round-trips, e.g. 1.8014398509481984e+16.
package jzcnum

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// DefaultUpperBits is the bit length of the largest integer the corpus
// samples (2^100000).
const DefaultUpperBits = 100_000

var (
	ErrNotFinite  = errors.New("jzcnum: value is not finite (NaN or Infinity)")
	ErrDigitLimit = errors.New("jzcnum: digit conversion limit exceeded")
)

var log10of2 = math.Log10(2)

// Limits bounds number-to-text conversion.
type Limits struct {
	// MaxDigits is the maximum number of characters of a formatted number,
	// excluding its sign. 0 means RequiredDigits(DefaultUpperBits).
	MaxDigits int
}

func (l Limits) maxDigits() int {
	if l.MaxDigits > 0 {
		return l.MaxDigits
	}
	return RequiredDigits(DefaultUpperBits)
}

// RequiredDigits returns the digit limit needed to write the decimal
// "{a}.{b}" where a and b are at most 2^upperBits:
// 2*ceil(log10(2^upperBits)) + 1.
func RequiredDigits(upperBits int) int {
	return 2*int(math.Ceil(float64(upperBits)*log10of2)) + 1
}

// LimitsFor returns the Limits required for a corpus sampling integers up to
// 2^upperBits.
func LimitsFor(upperBits int) Limits {
	return Limits{MaxDigits: RequiredDigits(upperBits)}
}

// Check returns an error when l cannot format every number of a corpus
// sampling integers up to 2^upperBits.
func (l Limits) Check(upperBits int) error {
	if need := RequiredDigits(upperBits); l.maxDigits() < need {
		return fmt.Errorf("%w: limit %d below required %d for 2^%d",
			ErrDigitLimit, l.maxDigits(), need, upperBits)
	}
	return nil
}

// FormatInt formats x in base 10.
func (l Limits) FormatInt(x *big.Int) (string, error) {
	if err := l.precheck(x); err != nil {
		return "", err
	}
	s := x.String()
	n := len(s)
	if x.Sign() < 0 {
		n--
	}
	if n > l.maxDigits() {
		return "", fmt.Errorf("%w: %d digits, limit %d", ErrDigitLimit, n, l.maxDigits())
	}
	return s, nil
}

// CountDigits returns the number of base-10 digits of |x|.
func (l Limits) CountDigits(x *big.Int) (int, error) {
	s, err := l.FormatInt(x)
	if err != nil {
		return 0, err
	}
	if x.Sign() < 0 {
		return len(s) - 1, nil
	}
	return len(s), nil
}

// precheck rejects x from its bit length alone when even the smallest
// number of that length has too many digits, so oversized values are never
// converted.
func (l Limits) precheck(x *big.Int) error {
	bits := x.BitLen()
	if bits == 0 {
		return nil
	}
	minDigits := int(math.Floor(float64(bits-1)*log10of2)) + 1
	if minDigits > l.maxDigits() {
		return fmt.Errorf("%w: at least %d digits, limit %d", ErrDigitLimit, minDigits, l.maxDigits())
	}
	return nil
}

// FormatDecimal formats d in positional notation: [-]int.frac. A decimal
// with no fraction digits (Scale <= 0) is written as [-]coef e+exp instead,
// so that it reads back as a decimal with the same scale rather than as an
// integer.
func (l Limits) FormatDecimal(d jzcvalue.Decimal) (string, error) {
	if err := l.precheck(d.Coef); err != nil {
		return "", err
	}
	if d.Scale <= 0 {
		return l.formatExponent(d)
	}
	intDigits, fracDigits := d.Positional()
	n := len(intDigits) + 1 + len(fracDigits)
	if n > l.maxDigits() {
		return "", fmt.Errorf("%w: %d characters, limit %d", ErrDigitLimit, n, l.maxDigits())
	}

	var sb strings.Builder
	sb.Grow(n + 1)
	if d.Neg {
		sb.WriteByte('-')
	}
	sb.WriteString(intDigits)
	sb.WriteByte('.')
	sb.WriteString(fracDigits)
	return sb.String(), nil
}

func (l Limits) formatExponent(d jzcvalue.Decimal) (string, error) {
	coef := d.Coef.String()
	exp := strconv.Itoa(-d.Scale)
	n := len(coef) + 2 + len(exp)
	if n > l.maxDigits() {
		return "", fmt.Errorf("%w: %d characters, limit %d", ErrDigitLimit, n, l.maxDigits())
	}
	var sb strings.Builder
	sb.Grow(n + 1)
	if d.Neg {
		sb.WriteByte('-')
	}
	sb.WriteString(coef)
	sb.WriteString("e+")
	sb.WriteString(exp)
	return sb.String(), nil
}

// FormatFloat formats a finite double in exponential notation.
//
// Special cases:
//   - NaN and ±Infinity return ErrNotFinite.
//   - Zero is written as 0e+0; negative zero keeps its sign.
func FormatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", ErrNotFinite
	}
	digits, exp := shortestDigits(math.Abs(f))

	buf := make([]byte, 0, 24)
	if math.Signbit(f) {
		buf = append(buf, '-')
	}
	buf = append(buf, digits[0])
	if len(digits) > 1 {
		buf = append(buf, '.')
		buf = append(buf, digits[1:]...)
	}
	buf = append(buf, 'e')
	if exp >= 0 {
		buf = append(buf, '+')
	}
	buf = strconv.AppendInt(buf, int64(exp), 10)
	return string(buf), nil
}

// shortestDigits returns the shortest significand digits that round-trip f
// and the exponent of the first digit, so f = d.ddd × 10^exp.
func shortestDigits(f float64) (string, int) {
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expText, _ := strings.Cut(s, "e")
	exp, err := strconv.Atoi(expText)
	if err != nil {
		panic("jzcnum: unexpected float format " + s)
	}
	return strings.Replace(mant, ".", "", 1), exp
}
