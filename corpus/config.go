package corpus

import (
	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
)

// Default sizes of the reference corpus.
const (
	DefaultStringLength      = 100_000
	DefaultShortStrings      = 10_000
	DefaultShortStringLength = 2
	DefaultLongStrings       = 1_000
	DefaultLongStringLength  = 100
	DefaultRepeatedEmpty     = 100
	DefaultLongArrayLength   = 10_000
	DefaultBigArrayLength    = 100
	DefaultFloatMaxBits      = 1000

	// bigIntegerBits is the lower bound of the big integer band and the
	// exclusive upper bound of the second resizing band.
	bigIntegerBits = 2040
	// floatMinBits pushes sampled doubles above 2^54 so they are always
	// written in exponential form.
	floatMinBits = 54
)

// Config controls corpus sizes and the numeric precision budget.
//
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	StringLength      int // code points in "string ascii" and "string utf-8"
	ShortStrings      int // strings in "string array 2"
	ShortStringLength int
	LongStrings       int // strings in "string array 1"
	LongStringLength  int
	RepeatedEmpty     int // empty arrays in "multi-type array 2"
	LongArrayLength   int // null, bool and machine-width integer arrays
	BigArrayLength    int // big integer and decimal arrays
	UpperBits         int // big integers and decimal parts go up to 2^UpperBits
	FloatMaxBits      int // doubles are sampled from [2^54, 2^FloatMaxBits]

	// Limits bounds number-to-text conversion. The zero value means
	// jzcnum.LimitsFor(UpperBits).
	Limits jzcnum.Limits
}

// DefaultConfig returns the configuration of the reference corpus.
func DefaultConfig() Config {
	return Config{
		StringLength:      DefaultStringLength,
		ShortStrings:      DefaultShortStrings,
		ShortStringLength: DefaultShortStringLength,
		LongStrings:       DefaultLongStrings,
		LongStringLength:  DefaultLongStringLength,
		RepeatedEmpty:     DefaultRepeatedEmpty,
		LongArrayLength:   DefaultLongArrayLength,
		BigArrayLength:    DefaultBigArrayLength,
		UpperBits:         jzcnum.DefaultUpperBits,
		FloatMaxBits:      DefaultFloatMaxBits,
	}
}

// DigitLimits returns the conversion limits the corpus is built and
// serialized with.
func (c Config) DigitLimits() jzcnum.Limits {
	if c.Limits.MaxDigits > 0 {
		return c.Limits
	}
	return jzcnum.LimitsFor(c.UpperBits)
}

// Validate reports a CONFIG_INVALID error for unusable sizes and for a
// digit limit too small for UpperBits.
func (c Config) Validate() error {
	sizes := []struct {
		name string
		n    int
	}{
		{"StringLength", c.StringLength},
		{"ShortStrings", c.ShortStrings},
		{"ShortStringLength", c.ShortStringLength},
		{"LongStrings", c.LongStrings},
		{"LongStringLength", c.LongStringLength},
		{"RepeatedEmpty", c.RepeatedEmpty},
		{"LongArrayLength", c.LongArrayLength},
		{"BigArrayLength", c.BigArrayLength},
	}
	for _, s := range sizes {
		if s.n <= 0 {
			return jzcerr.Newf(jzcerr.ConfigInvalid, "%s must be positive, got %d", s.name, s.n)
		}
	}
	if c.UpperBits <= bigIntegerBits {
		return jzcerr.Newf(jzcerr.ConfigInvalid, "UpperBits must exceed %d, got %d", bigIntegerBits, c.UpperBits)
	}
	if c.FloatMaxBits <= floatMinBits || c.FloatMaxBits > 1023 {
		return jzcerr.Newf(jzcerr.ConfigInvalid, "FloatMaxBits must be in (%d, 1023], got %d", floatMinBits, c.FloatMaxBits)
	}
	if err := c.DigitLimits().Check(c.UpperBits); err != nil {
		return jzcerr.Wrap(jzcerr.ConfigInvalid, "digit conversion limit", err)
	}
	return nil
}

// SmallConfig returns a reduced configuration with the same categories and
// labels as DefaultConfig but small sizes, for smoke runs and tests.
// "multi-type array 2" keeps its 100 empty arrays.
func SmallConfig() Config {
	return Config{
		StringLength:      64,
		ShortStrings:      8,
		ShortStringLength: DefaultShortStringLength,
		LongStrings:       4,
		LongStringLength:  16,
		RepeatedEmpty:     DefaultRepeatedEmpty,
		LongArrayLength:   32,
		BigArrayLength:    3,
		UpperBits:         4096,
		FloatMaxBits:      DefaultFloatMaxBits,
	}
}
