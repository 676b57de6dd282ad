package jzcvalue

import (
	"math/big"
	"strings"
)

var bigTen = big.NewInt(10)

// Decimal is an arbitrary-precision decimal: (-1)^Neg × Coef × 10^-Scale.
//
// Coef is never negative. A negative Scale stands for trailing zeros of an
// integer-valued decimal. Neg with a zero Coef is a negative zero; it is
// numerically equal to zero.
type Decimal struct {
	Neg   bool
	Coef  *big.Int
	Scale int
}

// NewDecimal builds the decimal intPart.fracDigits where fracDigits is the
// exact digit string after the point. intPart carries the sign; neg forces a
// negative sign when intPart is zero.
func NewDecimal(neg bool, intPart *big.Int, frac *big.Int, fracDigits int) Decimal {
	coef := new(big.Int).Abs(intPart)
	coef.Mul(coef, pow10(fracDigits))
	coef.Add(coef, new(big.Int).Abs(frac))
	return Decimal{
		Neg:   neg || intPart.Sign() < 0,
		Coef:  coef,
		Scale: fracDigits,
	}
}

// Rat returns the exact rational value of d.
func (d Decimal) Rat() *big.Rat {
	num := new(big.Int).Set(d.Coef)
	if d.Neg {
		num.Neg(num)
	}
	if d.Scale <= 0 {
		return new(big.Rat).SetInt(num.Mul(num, pow10(-d.Scale)))
	}
	return new(big.Rat).SetFrac(num, pow10(d.Scale))
}

// Sign returns -1, 0 or +1.
func (d Decimal) Sign() int {
	if d.Coef.Sign() == 0 {
		return 0
	}
	if d.Neg {
		return -1
	}
	return 1
}

// Positional returns the integer and fraction digit strings of d in
// positional notation, without sign. The fraction is empty when Scale <= 0.
func (d Decimal) Positional() (intDigits, fracDigits string) {
	s := d.Coef.String()
	switch {
	case d.Scale <= 0:
		return s + strings.Repeat("0", -d.Scale), ""
	case len(s) > d.Scale:
		return s[:len(s)-d.Scale], s[len(s)-d.Scale:]
	default:
		return "0", strings.Repeat("0", d.Scale-len(s)) + s
	}
}

func pow10(n int) *big.Int {
	if n <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}
