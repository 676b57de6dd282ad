package conformance_test

import (
	"strconv"
	"strings"
	"testing"

	cyberphone "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/lattice-substrate/jsonz-corpus/corpus"
	"github.com/lattice-substrate/jsonz-corpus/jzcjson"
	"github.com/lattice-substrate/jsonz-corpus/verify"
)

// Records whose numbers all fit in a double must already be in the form the
// Cyberphone RFC 8785 canonicalizer produces, once keys are sorted.
func TestCyberphoneAgreesOnDoubleSafeRecords(t *testing.T) {
	f := small(t)
	ser := jzcjson.New(jzcjson.Options{Limits: f.limits(), SortKeys: true})

	var labels []string
	for _, l := range corpus.CategoryLabels() {
		if doubleSafe(l) {
			labels = append(labels, l)
		}
	}
	if len(labels) < 30 {
		t.Fatalf("only %d double-safe labels", len(labels))
	}

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			rec := f.record(t, label)
			want, err := cyberphone.Transform(rec)
			if err != nil {
				t.Fatalf("cyberphone rejected record: %v", err)
			}
			v, err := verify.Decode(rec, f.limits())
			if err != nil {
				t.Fatal(err)
			}
			got, err := ser.Serialize(v)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != string(want) {
				t.Fatalf("sorted serialization differs from cyberphone\n got: %.120s\nwant: %.120s", got, want)
			}
		})
	}
}

// Cyberphone reformats doubles in ECMAScript style; the value must survive.
func TestCyberphoneReadsDoublesBack(t *testing.T) {
	f := small(t)
	for _, label := range []string{"decimal 3", "decimal 4"} {
		built, _ := f.built.Get(label)
		out, err := cyberphone.Transform(f.record(t, label))
		if err != nil {
			t.Fatalf("%s: cyberphone rejected record: %v", label, err)
		}
		got, err := strconv.ParseFloat(string(out), 64)
		if err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		if got != built.Float {
			t.Fatalf("%s: cyberphone read %v, built %v", label, got, built.Float)
		}
	}
}

func doubleSafe(label string) bool {
	switch {
	case strings.Contains(label, "64-bit"),
		strings.Contains(label, "resizing"),
		strings.Contains(label, "big integer"),
		strings.HasPrefix(label, "decimal"),
		strings.HasPrefix(label, "multi-type array 3"):
		return false
	}
	return true
}
