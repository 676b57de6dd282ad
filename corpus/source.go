package corpus

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"math/big"
	mrand "math/rand/v2"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
)

// Source is the randomness capability the builder samples from. A
// *math/rand/v2.Rand satisfies it; tests substitute deterministic sources to
// make the corpus reproducible without changing category coverage.
type Source interface {
	Uint64() uint64
	IntN(n int) int
}

// NewSeededSource returns a deterministic ChaCha8 source derived from seed.
func NewSeededSource(seed uint64) Source {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return mrand.New(mrand.NewChaCha8(key))
}

// NewSystemSource returns a ChaCha8 source keyed from the operating system's
// entropy pool.
func NewSystemSource() (Source, error) {
	return NewSourceFrom(rand.Reader)
}

// NewSourceFrom returns a ChaCha8 source keyed with 32 bytes read from r.
// A short read is a RANDOM_SOURCE failure.
func NewSourceFrom(r io.Reader) (Source, error) {
	var key [32]byte
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, jzcerr.Wrap(jzcerr.RandomSource, "reading seed", err)
	}
	return mrand.New(mrand.NewChaCha8(key)), nil
}

// Uniform returns an integer drawn uniformly from [lo, hi]. It panics if
// hi < lo.
func Uniform(src Source, lo, hi *big.Int) *big.Int {
	span := new(big.Int).Sub(hi, lo)
	if span.Sign() < 0 {
		panic("corpus: Uniform called with hi < lo")
	}
	span.Add(span, bigOne)
	n := randBelow(src, span)
	return n.Add(n, lo)
}

// randBelow draws uniformly from [0, n) by rejection sampling over the
// smallest power of two covering n.
func randBelow(src Source, n *big.Int) *big.Int {
	bits := n.BitLen()
	buf := make([]byte, (bits+7)/8)
	topMask := byte(0xFF >> (uint(len(buf)*8 - bits)))
	x := new(big.Int)
	for {
		fill(src, buf)
		buf[0] &= topMask
		x.SetBytes(buf)
		if x.Cmp(n) < 0 {
			return x
		}
	}
}

func fill(src Source, buf []byte) {
	var word [8]byte
	for i := 0; i < len(buf); i += 8 {
		binary.LittleEndian.PutUint64(word[:], src.Uint64())
		copy(buf[i:], word[:])
	}
}

// Pow2 returns 2^n.
func Pow2(n int) *big.Int {
	return new(big.Int).Lsh(bigOne, uint(n))
}

// Pow2Minus1 returns 2^n - 1.
func Pow2Minus1(n int) *big.Int {
	x := Pow2(n)
	return x.Sub(x, bigOne)
}

var bigOne = big.NewInt(1)

// codePoints is the number of Unicode scalar values: [0, 0x110000) minus
// the surrogate block [0xD800, 0xE000).
const codePoints = 0x110000 - 0x800

// randScalar returns a Unicode scalar value drawn uniformly from the
// non-surrogate range.
func randScalar(src Source) rune {
	n := src.IntN(codePoints)
	if n >= 0xD800 {
		n += 0x800
	}
	return rune(n)
}
