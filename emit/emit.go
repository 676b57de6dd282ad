// Package emit writes a corpus as a stream of LF-delimited JSON records.
//
// Stream layout:
//
//	Serialize(entry 1) LF
//	Serialize(entry 2) LF
//	...
//	Serialize(entry n) LF
//	Serialize(corpus as one object, including the "object 4" snapshot)
//
// Labels are not written; only values. The final record has no trailing LF,
// so consumers must split strictly on LF.
//
// Any failure aborts emission. There is no mode that skips or substitutes
// an entry.
package emit

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/lattice-substrate/jsonz-corpus/corpus"
	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// Serializer turns one value into its standard JSON text. It is the single
// external function the emitter depends on.
type Serializer interface {
	Serialize(v jzcvalue.Value) ([]byte, error)
}

// SerializerFunc adapts a function to the Serializer interface.
type SerializerFunc func(v jzcvalue.Value) ([]byte, error)

// Serialize calls f(v).
func (f SerializerFunc) Serialize(v jzcvalue.Value) ([]byte, error) { return f(v) }

// Record describes one emitted record.
type Record struct {
	Index int    // 0-based position in the stream
	Label string // corpus label; empty for the final record
	Bytes int    // serialized length, excluding the LF
	Final bool
}

type options struct {
	progress   func(Record)
	bufferSize int
}

// Option configures Emit.
type Option func(*options)

// WithProgress registers fn to be called after each record is buffered.
func WithProgress(fn func(Record)) Option {
	return func(o *options) { o.progress = fn }
}

// WithBufferSize sets the output buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

const defaultBufferSize = 1 << 20

// Emit writes every entry of c as one record, appends the corpus.LabelObject4
// snapshot to c, and writes the whole corpus as the final record.
//
// Serialization failures are SERIALIZE_FAILED (or the serializer's own
// class, when it reports one) and name the offending label; write failures
// are INTERNAL_IO. Output is flushed only when every record succeeded.
func Emit(w io.Writer, c *corpus.Corpus, s Serializer, opts ...Option) error {
	o := options{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	bw := bufio.NewWriterSize(w, o.bufferSize)

	for i, e := range c.Entries() {
		body, err := serialize(s, e.Value, e.Key)
		if err != nil {
			return err
		}
		if err := writeRecord(bw, body, true); err != nil {
			return err
		}
		o.report(Record{Index: i, Label: e.Key, Bytes: len(body)})
	}

	if err := c.AppendSnapshot(corpus.LabelObject4); err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	body, err := serialize(s, c.Value(), "")
	if err != nil {
		return err
	}
	if err := writeRecord(bw, body, false); err != nil {
		return err
	}
	o.report(Record{Index: c.Len() - 1, Bytes: len(body), Final: true})

	if err := bw.Flush(); err != nil {
		return jzcerr.Wrap(jzcerr.InternalIO, "flushing output", err)
	}
	return nil
}

func (o *options) report(r Record) {
	if o.progress != nil {
		o.progress(r)
	}
}

func serialize(s Serializer, v jzcvalue.Value, label string) ([]byte, error) {
	what := fmt.Sprintf("entry %q", label)
	if label == "" {
		what = "final record"
	}
	body, err := s.Serialize(v)
	if err != nil {
		class := jzcerr.ClassOf(err)
		if class == jzcerr.InternalError {
			class = jzcerr.SerializeFailed
		}
		return nil, jzcerr.Wrap(class, "serializing "+what, err)
	}
	if err := CheckRecord(body); err != nil {
		return nil, jzcerr.Wrap(jzcerr.SerializeFailed, "serializing "+what, err)
	}
	return body, nil
}

func writeRecord(w *bufio.Writer, body []byte, terminate bool) error {
	if _, err := w.Write(body); err != nil {
		return jzcerr.Wrap(jzcerr.InternalIO, "writing record", err)
	}
	if terminate {
		if err := w.WriteByte('\n'); err != nil {
			return jzcerr.Wrap(jzcerr.InternalIO, "writing record", err)
		}
	}
	return nil
}

// FramingError reports serialized text that cannot travel as one record.
type FramingError struct {
	Msg string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("emit: record framing: %s", e.Msg)
}

// CheckRecord validates that body can be framed as a single record:
// non-empty, valid UTF-8, and free of raw LF bytes.
func CheckRecord(body []byte) error {
	if len(body) == 0 {
		return &FramingError{Msg: "empty record"}
	}
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		return &FramingError{Msg: fmt.Sprintf("LF byte in record at offset %d", i)}
	}
	if !utf8.Valid(body) {
		return &FramingError{Msg: fmt.Sprintf("invalid UTF-8 at offset %d", findInvalidUTF8(body))}
	}
	return nil
}

// findInvalidUTF8 returns the byte offset of the first invalid UTF-8 sequence.
func findInvalidUTF8(data []byte) int {
	i := 0
	for i < len(data) {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// Records splits an emitted stream into its records.
func Records(stream []byte) [][]byte {
	if len(stream) == 0 {
		return nil
	}
	return bytes.Split(stream, []byte{'\n'})
}
