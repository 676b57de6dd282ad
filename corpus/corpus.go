// Package corpus builds the reference corpus: an ordered mapping from
// descriptive labels to test values that spans every numeric and structural
// category JSON and the extended format must agree on.
//
// The corpus is built once. Besides construction it changes exactly twice:
// Build appends "multi-type array 3" (every earlier value followed by a
// shallow copy of that list), and AppendSnapshot appends "object 4" (a
// shallow copy of the whole corpus). Both are value copies; no value ever
// refers back to a container holding it.
package corpus

import (
	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcvalue"
)

// Labels of the two self-embedding entries.
const (
	LabelMultiTypeArray3 = "multi-type array 3"
	LabelObject4         = "object 4"
)

// Corpus is an ordered, label-unique collection of test values.
type Corpus struct {
	entries []jzcvalue.Member
	index   map[string]int
}

func newCorpus(capacity int) *Corpus {
	return &Corpus{
		entries: make([]jzcvalue.Member, 0, capacity),
		index:   make(map[string]int, capacity),
	}
}

func (c *Corpus) add(label string, v jzcvalue.Value) error {
	if _, dup := c.index[label]; dup {
		return jzcerr.Newf(jzcerr.InternalError, "duplicate corpus label %q", label)
	}
	c.index[label] = len(c.entries)
	c.entries = append(c.entries, jzcvalue.Member{Key: label, Value: v})
	return nil
}

// Len returns the number of entries.
func (c *Corpus) Len() int { return len(c.entries) }

// Entries returns the entries in insertion order. The slice is shared with
// the corpus and must not be modified.
func (c *Corpus) Entries() []jzcvalue.Member {
	return c.entries[:len(c.entries):len(c.entries)]
}

// Labels returns the entry labels in insertion order.
func (c *Corpus) Labels() []string {
	labels := make([]string, len(c.entries))
	for i := range c.entries {
		labels[i] = c.entries[i].Key
	}
	return labels
}

// Get returns the value stored under label.
func (c *Corpus) Get(label string) (jzcvalue.Value, bool) {
	i, ok := c.index[label]
	if !ok {
		return jzcvalue.Value{}, false
	}
	return c.entries[i].Value, true
}

// Value returns the whole corpus as one object, members in insertion order.
func (c *Corpus) Value() jzcvalue.Value {
	return jzcvalue.Object(c.Entries()...)
}

// AppendSnapshot appends a shallow copy of the corpus, as it is before the
// call, under label.
func (c *Corpus) AppendSnapshot(label string) error {
	return c.add(label, c.Value().ShallowCopy())
}
