package jzcnum

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// ParseNumber converts JSON number text to an exact value: text without a
// fraction or exponent becomes an integer, anything else a decimal. The text
// is assumed to match the JSON number grammar; the digit limit bounds both
// the digit count and the exponent.
func (l Limits) ParseNumber(text string) (jzcvalue.Value, error) {
	s := text
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	mant, expText, hasExp := strings.Cut(strings.ToLower(s), "e")
	intDigits, fracDigits, hasFrac := strings.Cut(mant, ".")

	if len(intDigits)+len(fracDigits) > l.maxDigits() {
		return jzcvalue.Value{}, fmt.Errorf("%w: number with %d digits, limit %d",
			ErrDigitLimit, len(intDigits)+len(fracDigits), l.maxDigits())
	}
	coef, ok := new(big.Int).SetString(intDigits+fracDigits, 10)
	if !ok || intDigits == "" {
		return jzcvalue.Value{}, fmt.Errorf("jzcnum: invalid number %q", text)
	}

	if !hasFrac && !hasExp {
		if neg {
			coef.Neg(coef)
		}
		return jzcvalue.Int(coef), nil
	}

	exp := 0
	if hasExp {
		e, err := strconv.Atoi(expText)
		if err != nil || e > l.maxDigits() || e < -l.maxDigits() {
			return jzcvalue.Value{}, fmt.Errorf("%w: exponent %q", ErrDigitLimit, expText)
		}
		exp = e
	}
	return jzcvalue.Dec(jzcvalue.Decimal{
		Neg:   neg,
		Coef:  coef,
		Scale: len(fracDigits) - exp,
	}), nil
}
