package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

// defaultSets is the selection run when the caller names no sets.
var defaultSets = []string{"studioSet1", "homeSet1", "utilitySet1", "threesSet1"}

type document struct {
	Sets []TestSet `yaml:"sets"`
}

// rawDocument mirrors document with optional fields so omitted values can
// be told apart from explicit zeros.
type rawDocument struct {
	Sets []struct {
		Name  string    `yaml:"name"`
		Cases []rawCase `yaml:"cases"`
	} `yaml:"sets"`
}

type rawCase struct {
	Label         string      `yaml:"label"`
	MediaRef      string      `yaml:"media"`
	ExpectedTempo float64     `yaml:"expected_tempo"`
	Window        *Window     `yaml:"window"`
	TempoRange    *TempoRange `yaml:"tempo_range"`
	Variance      *float64    `yaml:"variance"`
}

func (r rawCase) testCase() TestCase {
	tc := TestCase{
		Label:           r.Label,
		MediaRef:        r.MediaRef,
		ExpectedTempo:   r.ExpectedTempo,
		TempoRange:      TempoRange{Min: DefaultMinTempo, Max: DefaultMaxTempo},
		AllowedVariance: DefaultVariance,
	}
	if r.Window != nil {
		tc.Window = *r.Window
	}
	if r.TempoRange != nil {
		tc.TempoRange = *r.TempoRange
	}
	if r.Variance != nil {
		tc.AllowedVariance = *r.Variance
	}
	return tc
}

// Parse decodes a YAML catalog and validates it.
func Parse(data []byte) (*Catalog, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	sets := make([]TestSet, 0, len(raw.Sets))
	for _, rs := range raw.Sets {
		set := TestSet{Name: rs.Name, Cases: make([]TestCase, 0, len(rs.Cases))}
		for _, rc := range rs.Cases {
			set.Cases = append(set.Cases, rc.testCase())
		}
		sets = append(sets, set)
	}

	c := New(sets...)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// BuiltinAll returns every set of the embedded reference corpus.
func BuiltinAll() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded corpus is invalid: %v", err))
	}
	return c
}

// Builtin returns the default selection of the embedded reference corpus.
func Builtin() *Catalog {
	c, err := BuiltinAll().Select(defaultSets...)
	if err != nil {
		panic(fmt.Sprintf("catalog: default selection: %v", err))
	}
	return c
}
