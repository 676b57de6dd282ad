package conformance_test

import (
	"bytes"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/lattice-substrate/jsonz-corpus/cborz"
	"github.com/lattice-substrate/jsonz-corpus/corpus"
	"github.com/lattice-substrate/jsonz-corpus/emit"
	"github.com/lattice-substrate/jsonz-corpus/jzcjson"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
	"github.com/lattice-substrate/jsonz-corpus/verify"
)

// fixture is one emitted corpus together with the values it was built from.
type fixture struct {
	cfg     corpus.Config
	built   *corpus.Corpus
	stream  []byte
	records [][]byte
}

func (f *fixture) limits() jzcnum.Limits { return f.cfg.DigitLimits() }

func (f *fixture) record(t *testing.T, label string) []byte {
	t.Helper()
	for i, l := range f.built.Labels() {
		if l == label {
			return f.records[i]
		}
	}
	t.Fatalf("label %q not emitted", label)
	return nil
}

func (f *fixture) decoded(t *testing.T, label string) jzcvalue.Value {
	t.Helper()
	v, err := verify.Decode(f.record(t, label), f.limits())
	if err != nil {
		t.Fatalf("decode %q: %v", label, err)
	}
	return v
}

func newFixture(t testing.TB, cfg corpus.Config, seed uint64, opts jzcjson.Options) *fixture {
	t.Helper()
	c, err := corpus.Build(cfg, corpus.NewSeededSource(seed))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	opts.Limits = cfg.DigitLimits()
	var out bytes.Buffer
	if err := emit.Emit(&out, c, jzcjson.New(opts)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	return &fixture{cfg: cfg, built: c, stream: out.Bytes(), records: emit.Records(out.Bytes())}
}

var (
	smallOnce    sync.Once
	smallFixture *fixture
)

func small(t *testing.T) *fixture {
	t.Helper()
	smallOnce.Do(func() {
		smallFixture = newFixture(t, corpus.SmallConfig(), 20240601, jzcjson.Options{})
	})
	if smallFixture == nil {
		t.Fatal("small fixture unavailable")
	}
	return smallFixture
}

func TestCorpusProperties(t *testing.T) {
	f := small(t)
	checks := propertyChecks()
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			checks[name](t, f)
		})
	}
}

func propertyChecks() map[string]func(*testing.T, *fixture) {
	return map[string]func(*testing.T, *fixture){
		"completeness/labels":             checkLabelsOnceInOrder,
		"completeness/final-record":       checkFinalRecordHoldsEveryLabel,
		"framing/records":                 checkRecordFraming,
		"round-trip/identity":             checkRoundTripIdentity,
		"round-trip/cbor":                 checkRoundTripCBOR,
		"precision/decode-equals-build":   checkDecodeEqualsBuild,
		"precision/big-integer-digits":    checkBigIntegerDigits,
		"precision/decimal-digits":        checkDecimalDigits,
		"boundary/defined-width-bands":    checkDefinedWidthBands,
		"boundary/negative-is-negated":    checkNegativeCategories,
		"scenario/zero-is-integer":        checkZeroIsInteger,
		"scenario/repeated-empty-arrays":  checkRepeatedEmptyArrays,
		"scenario/multi-type-array-3":     checkMultiTypeArray3,
		"scenario/fixed-records-verbatim": checkFixedRecords,
	}
}

func checkLabelsOnceInOrder(t *testing.T, f *fixture) {
	want := append(corpus.CategoryLabels(), corpus.LabelObject4)
	got := f.built.Labels()
	if len(got) != len(want) {
		t.Fatalf("got %d labels, want %d", len(got), len(want))
	}
	seen := map[string]bool{}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("label %d: got %q, want %q", i, got[i], want[i])
		}
		if seen[got[i]] {
			t.Fatalf("label %q repeated", got[i])
		}
		seen[got[i]] = true
	}
	if len(f.records) != len(want) {
		t.Fatalf("got %d records, want %d", len(f.records), len(want))
	}
}

func checkFinalRecordHoldsEveryLabel(t *testing.T, f *fixture) {
	final, err := verify.Decode(f.records[len(f.records)-1], f.limits())
	if err != nil {
		t.Fatal(err)
	}
	labels := corpus.CategoryLabels()
	if len(final.Members) != len(labels)+1 {
		t.Fatalf("final record has %d members, want %d", len(final.Members), len(labels)+1)
	}
	for _, l := range labels {
		if _, ok := final.Lookup(l); !ok {
			t.Fatalf("final record lacks %q", l)
		}
	}
	mta3, _ := final.Lookup(corpus.LabelMultiTypeArray3)
	extra, ok := final.Lookup(corpus.LabelObject4)
	if !ok {
		t.Fatalf("final record lacks %q", corpus.LabelObject4)
	}
	for _, e := range mta3.Elems {
		if jzcvalue.Equal(e, extra) {
			t.Fatalf("%q appears inside %q", corpus.LabelObject4, corpus.LabelMultiTypeArray3)
		}
	}
	if err := verify.CheckCompleteness(decodeAll(t, f)); err != nil {
		t.Fatal(err)
	}
}

func checkRecordFraming(t *testing.T, f *fixture) {
	if bytes.HasSuffix(f.stream, []byte{'\n'}) {
		t.Fatal("stream ends with LF")
	}
	for i, rec := range f.records {
		if err := emit.CheckRecord(rec); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
}

func checkRoundTripIdentity(t *testing.T, f *fixture) {
	sum, err := verify.Stream(bytes.NewReader(f.stream), verify.JSONCodec{Limits: f.limits()}, verify.Options{Limits: f.limits()})
	if err != nil {
		t.Fatalf("identity round trip: %v (%+v)", err, sum)
	}
}

func checkRoundTripCBOR(t *testing.T, f *fixture) {
	for i, rec := range f.records {
		if _, err := verify.CheckRecord(rec, cborz.Codec{}, f.limits()); err != nil {
			t.Fatalf("record %d (%s): %v", i, f.built.Labels()[i], err)
		}
	}
}

func checkDecodeEqualsBuild(t *testing.T, f *fixture) {
	for i, e := range f.built.Entries() {
		got, err := verify.Decode(f.records[i], f.limits())
		if err != nil {
			t.Fatalf("%s: %v", e.Key, err)
		}
		if path := jzcvalue.DiffNearest(e.Value, got); path != "" {
			t.Fatalf("%s: decoded value differs from built value at %s", e.Key, path)
		}
	}
}

func checkBigIntegerDigits(t *testing.T, f *fixture) {
	for _, label := range []string{"big integer", "negative big integer", "big integer array", "negative big integer array"} {
		built, _ := f.built.Get(label)
		compareDigits(t, label, built, f.decoded(t, label))
	}
}

func checkDecimalDigits(t *testing.T, f *fixture) {
	for _, label := range []string{"decimal 1", "decimal 2", "decimal array"} {
		built, _ := f.built.Get(label)
		compareDigits(t, label, built, f.decoded(t, label))
	}
}

func compareDigits(t *testing.T, label string, built, decoded jzcvalue.Value) {
	t.Helper()
	if built.Kind == jzcvalue.KindArray {
		if len(built.Elems) != len(decoded.Elems) {
			t.Fatalf("%s: %d elements decoded, %d built", label, len(decoded.Elems), len(built.Elems))
		}
		for i := range built.Elems {
			compareDigits(t, label, built.Elems[i], decoded.Elems[i])
		}
		return
	}
	if built.Kind != decoded.Kind {
		t.Fatalf("%s: decoded kind %s, built %s", label, decoded.Kind, built.Kind)
	}
	if b, d := jzcvalue.Digits(built), jzcvalue.Digits(decoded); b != d {
		t.Fatalf("%s: decoded %d digits, built %d", label, d, b)
	}
	if !jzcvalue.Equal(built, decoded) {
		t.Fatalf("%s: decoded value differs", label)
	}
}

// definedWidths mirrors the documented bands: each starts just above the
// previous width's maximum.
var definedWidths = []struct {
	bits   int
	lo, hi *big.Int
}{
	{8, big.NewInt(0), big.NewInt(255)},
	{16, big.NewInt(256), big.NewInt(65535)},
	{24, pow2(16), pow2minus1(24)},
	{32, pow2(24), pow2minus1(32)},
	{64, pow2(56), pow2minus1(64)},
}

func pow2(n int) *big.Int       { return new(big.Int).Lsh(big.NewInt(1), uint(n)) }
func pow2minus1(n int) *big.Int { return new(big.Int).Sub(pow2(n), big.NewInt(1)) }

func checkDefinedWidthBands(t *testing.T, f *fixture) {
	for _, w := range definedWidths {
		for _, sign := range []string{"unsigned", "negative"} {
			for _, suffix := range []string{"", " array"} {
				label := sign + " " + strconv.Itoa(w.bits) + "-bit defined integer" + suffix
				ints := integers(t, label, f.decoded(t, label))
				hits := 0
				for _, x := range ints {
					abs := new(big.Int).Abs(x)
					if abs.Cmp(w.lo) < 0 || abs.Cmp(w.hi) > 0 {
						t.Fatalf("%s: %s outside [%s, %s]", label, x, w.lo, w.hi)
					}
					hits++
				}
				if hits == 0 {
					t.Fatalf("%s: no sampled value in band", label)
				}
			}
		}
	}
}

func checkNegativeCategories(t *testing.T, f *fixture) {
	for _, label := range corpus.CategoryLabels() {
		if !strings.HasPrefix(label, "negative ") {
			continue
		}
		for _, x := range integers(t, label, f.decoded(t, label)) {
			if x.Sign() > 0 {
				t.Fatalf("%s: positive value %s", label, x)
			}
		}
	}
	for _, label := range []string{"resizing integer array", "big integer array", "unsigned 64-bit defined integer array"} {
		for _, x := range integers(t, label, f.decoded(t, label)) {
			if x.Sign() < 0 {
				t.Fatalf("%s: negative value %s", label, x)
			}
		}
	}
}

func integers(t *testing.T, label string, v jzcvalue.Value) []*big.Int {
	t.Helper()
	switch v.Kind {
	case jzcvalue.KindInteger:
		return []*big.Int{v.Int}
	case jzcvalue.KindArray:
		var out []*big.Int
		for _, e := range v.Elems {
			out = append(out, integers(t, label, e)...)
		}
		return out
	}
	t.Fatalf("%s: %s is not an integer", label, v.Kind)
	return nil
}

func checkZeroIsInteger(t *testing.T, f *fixture) {
	for _, v := range []jzcvalue.Value{
		f.decoded(t, "unsigned 8-bit defined integer 2"),
		roundTripCBOR(t, f.record(t, "unsigned 8-bit defined integer 2"), f.limits()),
	} {
		if v.Kind != jzcvalue.KindInteger || v.Int.Sign() != 0 {
			t.Fatalf("want integer 0, got %#v", v)
		}
	}
}

func checkRepeatedEmptyArrays(t *testing.T, f *fixture) {
	v := f.decoded(t, "multi-type array 2")
	if v.Kind != jzcvalue.KindArray || len(v.Elems) != 100 {
		t.Fatalf("want 100 elements, got %#v", v.Kind)
	}
	for i, e := range v.Elems {
		if e.Kind != jzcvalue.KindArray || len(e.Elems) != 0 {
			t.Fatalf("element %d is not an empty array", i)
		}
	}
}

func checkMultiTypeArray3(t *testing.T, f *fixture) {
	v := f.decoded(t, corpus.LabelMultiTypeArray3)
	prior := f.built.Entries()[:len(corpus.CategoryLabels())-1]
	if len(v.Elems) != len(prior)+1 {
		t.Fatalf("got %d elements, want %d", len(v.Elems), len(prior)+1)
	}
	for i, e := range prior {
		if !jzcvalue.EqualNearest(v.Elems[i], e.Value) {
			t.Fatalf("element %d differs from %q", i, e.Key)
		}
	}
	self := v.Elems[len(prior)]
	if self.Kind != jzcvalue.KindArray || len(self.Elems) != len(prior) {
		t.Fatal("last element is not a copy of the preceding values")
	}
}

func checkFixedRecords(t *testing.T, f *fixture) {
	for label, want := range map[string]string{
		"boolean true":                     "true",
		"boolean false":                    "false",
		"null":                             "null",
		"string 0":                         `""`,
		"unsigned 8-bit defined integer 2": "0",
		"object 1":                         `{"meow":"meow"}`,
		"object 2":                         "{}",
		"object 3":                         `{"meow":{}}`,
		"multi-type array 1":               "[]",
		"null array 1":                     "[null]",
		"bool array 1":                     "[true]",
		"bool array 3":                     "[false]",
	} {
		if got := string(f.record(t, label)); got != want {
			t.Errorf("%s: got %s, want %s", label, got, want)
		}
	}
}

func TestSeedIdempotence(t *testing.T) {
	a := newFixture(t, corpus.SmallConfig(), 99, jzcjson.Options{})
	b := newFixture(t, corpus.SmallConfig(), 99, jzcjson.Options{})
	if !bytes.Equal(a.stream, b.stream) {
		t.Fatal("same seed produced different streams")
	}
	c := newFixture(t, corpus.SmallConfig(), 100, jzcjson.Options{})
	if bytes.Equal(a.stream, c.stream) {
		t.Fatal("different seeds produced identical streams")
	}
	if strings.Join(a.built.Labels(), "\n") != strings.Join(c.built.Labels(), "\n") {
		t.Fatal("label sets differ across seeds")
	}
	for i, e := range a.built.Entries() {
		if shape(e.Value) != shape(c.built.Entries()[i].Value) {
			t.Fatalf("%s: structural shape differs across seeds", e.Key)
		}
	}
}

// shape renders the kinds and container sizes of v, ignoring sampled values.
func shape(v jzcvalue.Value) string {
	var sb strings.Builder
	var walk func(jzcvalue.Value)
	walk = func(v jzcvalue.Value) {
		sb.WriteString(v.Kind.String())
		switch v.Kind {
		case jzcvalue.KindArray:
			sb.WriteString("[")
			for _, e := range v.Elems {
				walk(e)
			}
			sb.WriteString("]")
		case jzcvalue.KindObject:
			sb.WriteString("{")
			for _, m := range v.Members {
				sb.WriteString(m.Key)
				walk(m.Value)
			}
			sb.WriteString("}")
		}
	}
	walk(v)
	return sb.String()
}

func TestSerializerOptionsStillVerify(t *testing.T) {
	for name, opts := range map[string]jzcjson.Options{
		"sorted": {SortKeys: true},
		"ascii":  {EscapeNonASCII: true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, corpus.SmallConfig(), 5, opts)
			if _, err := verify.Stream(bytes.NewReader(f.stream), cborz.Codec{}, verify.Options{Limits: f.limits()}); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestDefaultCorpus(t *testing.T) {
	if testing.Short() {
		t.Skip("default corpus is large")
	}
	f := newFixture(t, corpus.DefaultConfig(), 1, jzcjson.Options{})
	for _, label := range []string{"big integer", "negative big integer"} {
		v := f.decoded(t, label)
		if d := jzcvalue.Digits(v); d < 615 || d > 30103 {
			t.Fatalf("%s: %d digits outside [2^2040, 2^100000]", label, d)
		}
	}
	checkBigIntegerDigits(t, f)
	checkDecimalDigits(t, f)
	if _, err := verify.Stream(bytes.NewReader(f.stream), verify.JSONCodec{Limits: f.limits()}, verify.Options{Limits: f.limits()}); err != nil {
		t.Fatal(err)
	}
}

func decodeAll(t *testing.T, f *fixture) []jzcvalue.Value {
	t.Helper()
	out := make([]jzcvalue.Value, len(f.records))
	for i, rec := range f.records {
		v, err := verify.Decode(rec, f.limits())
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		out[i] = v
	}
	return out
}

func roundTripCBOR(t *testing.T, rec []byte, lim jzcnum.Limits) jzcvalue.Value {
	t.Helper()
	native, err := verify.Decode(rec, lim)
	if err != nil {
		t.Fatal(err)
	}
	data, err := cborz.Marshal(native)
	if err != nil {
		t.Fatal(err)
	}
	back, err := cborz.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return back
}
