package verify

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcjson"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// Codec is the extended format under test.
type Codec interface {
	Name() string
	Encode(v jzcvalue.Value) ([]byte, error)
	Decode(data []byte) (jzcvalue.Value, error)
}

// JSONCodec uses standard JSON as its own extended format. It is the
// baseline every corpus must pass.
type JSONCodec struct {
	Limits jzcnum.Limits
}

func (JSONCodec) Name() string { return "identity" }

func (c JSONCodec) Encode(v jzcvalue.Value) ([]byte, error) {
	return jzcjson.SerializeWithOptions(v, jzcjson.Options{Limits: c.Limits})
}

func (c JSONCodec) Decode(data []byte) (jzcvalue.Value, error) {
	return Decode(data, c.Limits)
}

// CheckRecord decodes record natively, round-trips the value through codec
// and compares the results. It returns the native value.
func CheckRecord(record []byte, codec Codec, lim jzcnum.Limits) (jzcvalue.Value, error) {
	native, err := Decode(record, lim)
	if err != nil {
		return jzcvalue.Value{}, err
	}
	if err := CheckValue(native, codec); err != nil {
		return jzcvalue.Value{}, err
	}
	return native, nil
}

// CheckValue round-trips native through codec and compares the results.
func CheckValue(native jzcvalue.Value, codec Codec) error {
	encoded, err := codec.Encode(native)
	if err != nil {
		return jzcerr.Wrap(jzcerr.RoundTripMismatch, codec.Name()+" encode", err)
	}
	back, err := codec.Decode(encoded)
	if err != nil {
		return jzcerr.Wrap(jzcerr.RoundTripMismatch, codec.Name()+" decode", err)
	}
	if path := jzcvalue.Diff(native, back); path != "" {
		return jzcerr.Newf(jzcerr.RoundTripMismatch, "%s round trip differs at %s", codec.Name(), path)
	}
	return nil
}

// Options controls Stream.
type Options struct {
	Limits jzcnum.Limits
	// SkipCompleteness disables the final-record structure check, which
	// keeps every decoded record in memory.
	SkipCompleteness bool
	// Report is called once per record.
	Report func(Result)
}

// Result is the outcome of one record.
type Result struct {
	Index int
	Bytes int
	Final bool
	Err   error
}

// Summary totals a Stream run.
type Summary struct {
	Records  int
	Failures int
	// Completeness is the final-record check outcome; nil when it passed
	// or was skipped.
	Completeness error
}

// Stream verifies every record read from r. Each failing record is reported
// and counted; the returned error is non-nil when any record failed, the
// completeness check failed, or r could not be read.
func Stream(r io.Reader, codec Codec, opts Options) (Summary, error) {
	var (
		sum     Summary
		natives []jzcvalue.Value
	)
	br := bufio.NewReaderSize(r, 1<<20)
	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return sum, jzcerr.Wrap(jzcerr.InternalIO, "reading stream", readErr)
		}
		final := errors.Is(readErr, io.EOF)
		record := bytes.TrimSuffix(line, []byte{'\n'})

		if final && len(record) == 0 {
			if sum.Records == 0 {
				return sum, jzcerr.New(jzcerr.DecodeFailed, "empty stream")
			}
			return sum, jzcerr.New(jzcerr.DecodeFailed, "stream ends with LF; the final record must be unterminated")
		}

		native, err := CheckRecord(record, codec, opts.Limits)
		res := Result{Index: sum.Records, Bytes: len(record), Final: final, Err: err}
		sum.Records++
		if err != nil {
			sum.Failures++
		} else if !opts.SkipCompleteness {
			natives = append(natives, native)
		}
		if opts.Report != nil {
			opts.Report(res)
		}
		if final {
			break
		}
	}

	if !opts.SkipCompleteness && sum.Failures == 0 {
		sum.Completeness = CheckCompleteness(natives)
	}
	switch {
	case sum.Failures > 0:
		return sum, jzcerr.Newf(jzcerr.RoundTripMismatch, "%d of %d records failed", sum.Failures, sum.Records)
	case sum.Completeness != nil:
		return sum, sum.Completeness
	}
	return sum, nil
}

// CheckCompleteness checks the final record against the ones before it: it
// must be an object whose members hold every earlier record as a value, in
// emission order or not, plus exactly one extra member that is an object of
// all the others, keyed and valued as they are.
func CheckCompleteness(records []jzcvalue.Value) error {
	if len(records) == 0 {
		return jzcerr.New(jzcerr.RoundTripMismatch, "no records")
	}
	earlier := records[:len(records)-1]
	final := records[len(records)-1]
	if final.Kind != jzcvalue.KindObject {
		return jzcerr.Newf(jzcerr.RoundTripMismatch, "final record is %s, want object", final.Kind)
	}
	if len(final.Members) != len(earlier)+1 {
		return jzcerr.Newf(jzcerr.RoundTripMismatch,
			"final record has %d members, want %d (one per record plus one)", len(final.Members), len(earlier)+1)
	}

	used := make([]bool, len(final.Members))
	for i, rec := range earlier {
		j := matchMember(final.Members, used, i, rec)
		if j < 0 {
			return jzcerr.Newf(jzcerr.RoundTripMismatch, "record %d is not a member of the final record", i)
		}
		used[j] = true
	}

	others := make([]jzcvalue.Member, 0, len(earlier))
	extra := -1
	for j, m := range final.Members {
		if used[j] {
			others = append(others, m)
		} else {
			extra = j
		}
	}
	snap := final.Members[extra]
	if snap.Value.Kind != jzcvalue.KindObject || len(snap.Value.Members) != len(earlier) {
		return jzcerr.Newf(jzcerr.RoundTripMismatch,
			"extra member %q is not a snapshot of the other %d members", snap.Key, len(earlier))
	}
	if path := jzcvalue.Diff(snap.Value, jzcvalue.Object(others...)); path != "" {
		return jzcerr.Newf(jzcerr.RoundTripMismatch,
			"extra member %q differs from the other members at %s", snap.Key, path)
	}
	return nil
}

// matchMember returns the index of an unused member equal to rec, trying
// the emission-order position first.
func matchMember(members []jzcvalue.Member, used []bool, pos int, rec jzcvalue.Value) int {
	if pos < len(members) && !used[pos] && jzcvalue.Equal(members[pos].Value, rec) {
		return pos
	}
	for j := range members {
		if j != pos && !used[j] && members[j].Value.Kind == rec.Kind && jzcvalue.Equal(members[j].Value, rec) {
			return j
		}
	}
	return -1
}

// Describe renders a result as one human-readable status line.
func (r Result) Describe() string {
	what := fmt.Sprintf("record %d", r.Index)
	if r.Final {
		what = "final record"
	}
	if r.Err != nil {
		return fmt.Sprintf("%s (%d bytes): %v", what, r.Bytes, r.Err)
	}
	return fmt.Sprintf("%s (%d bytes): ok", what, r.Bytes)
}
