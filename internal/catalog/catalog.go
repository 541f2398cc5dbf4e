// Package catalog describes the labeled recordings a validation run is
// scored against: named test sets, each an ordered list of test cases.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Defaults used when a case omits the corresponding field.
const (
	DefaultMinTempo = 40.0
	DefaultMaxTempo = 240.0
	DefaultVariance = 2.0
)

// Window is the portion of the media to analyze, in seconds.
// End == 0 means "to the end of the media".
type Window struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// WholeFile reports whether the window covers the entire recording.
func (w Window) WholeFile() bool {
	return w.Start == 0 && w.End == 0
}

func (w Window) String() string {
	if w.End == 0 {
		return fmt.Sprintf("%gs-end", w.Start)
	}
	return fmt.Sprintf("%gs-%gs", w.Start, w.End)
}

// TempoRange bounds the tempos the detector may report, in BPM.
type TempoRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether bpm lies within the range, bounds included.
func (r TempoRange) Contains(bpm float64) bool {
	return bpm >= r.Min && bpm <= r.Max
}

// TestCase is one recording with its ground truth and acceptance parameters.
type TestCase struct {
	Label           string     `yaml:"label"`
	MediaRef        string     `yaml:"media"`
	ExpectedTempo   float64    `yaml:"expected_tempo"`
	Window          Window     `yaml:"window"`
	TempoRange      TempoRange `yaml:"tempo_range"`
	AllowedVariance float64    `yaml:"variance"`
}

// TestSet is a named group of cases reported as a single accuracy figure.
type TestSet struct {
	Name  string     `yaml:"name"`
	Cases []TestCase `yaml:"cases"`
}

// Catalog is an ordered collection of test sets. It is never modified after
// construction; accessors return copies.
type Catalog struct {
	sets []TestSet
}

// New builds a catalog from sets, in the given order.
func New(sets ...TestSet) *Catalog {
	c := &Catalog{sets: make([]TestSet, len(sets))}
	for i, s := range sets {
		c.sets[i] = TestSet{Name: s.Name, Cases: slices.Clone(s.Cases)}
	}
	return c
}

// Sets returns a copy of the test sets in catalog order.
func (c *Catalog) Sets() []TestSet {
	if c == nil {
		return nil
	}
	out := make([]TestSet, len(c.sets))
	for i, s := range c.sets {
		out[i] = TestSet{Name: s.Name, Cases: slices.Clone(s.Cases)}
	}
	return out
}

// Set returns the set with the given name.
func (c *Catalog) Set(name string) (TestSet, bool) {
	if c == nil {
		return TestSet{}, false
	}
	for _, s := range c.sets {
		if s.Name == name {
			return TestSet{Name: s.Name, Cases: slices.Clone(s.Cases)}, true
		}
	}
	return TestSet{}, false
}

// Names lists set names in catalog order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.sets))
	for i, s := range c.sets {
		names[i] = s.Name
	}
	return names
}

// Select returns a new catalog holding only the named sets, in the order
// they were requested.
func (c *Catalog) Select(names ...string) (*Catalog, error) {
	picked := make([]TestSet, 0, len(names))
	for _, name := range names {
		s, ok := c.Set(name)
		if !ok {
			return nil, fmt.Errorf("unknown test set %q (available: %v)", name, c.Names())
		}
		picked = append(picked, s)
	}
	return New(picked...), nil
}

// Len is the number of test sets.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sets)
}

// CaseCount is the number of test cases across all sets.
func (c *Catalog) CaseCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, s := range c.sets {
		n += len(s.Cases)
	}
	return n
}

// Digest fingerprints the catalog contents. Two runs are comparable when
// their catalogs share a digest.
func (c *Catalog) Digest() string {
	data, err := c.Marshal()
	if err != nil {
		// plain data types only; Marshal cannot fail in practice
		panic(fmt.Sprintf("catalog: marshal for digest: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Marshal encodes the catalog in the same YAML schema Parse reads, with
// every field spelled out.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(document{Sets: c.Sets()})
}
