package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Error reports malformed catalog data. Problems holds one entry per
// offending field; errors.Is matches ErrInvalid.
type Error struct {
	Problems []error
}

// ErrInvalid is the sentinel every *Error matches.
var ErrInvalid = errors.New("invalid catalog")

func (e *Error) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid catalog: %s", strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() []error {
	return append([]error{ErrInvalid}, e.Problems...)
}

// Validate checks structural invariants. An empty catalog is valid.
func (c *Catalog) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	setNames := make(map[string]bool)
	labels := make(map[string]string)

	for si, s := range c.Sets() {
		switch {
		case s.Name == "":
			add("set #%d has no name", si+1)
		case setNames[s.Name]:
			add("duplicate set name %q", s.Name)
		}
		setNames[s.Name] = true

		for ci, tc := range s.Cases {
			where := fmt.Sprintf("%s[%d]", s.Name, ci)
			if tc.Label == "" {
				add("%s: empty label", where)
			} else {
				if other, dup := labels[tc.Label]; dup {
					add("%s: label %q already used in %s", where, tc.Label, other)
				}
				labels[tc.Label] = s.Name
				where = fmt.Sprintf("%s/%s", s.Name, tc.Label)
			}
			if strings.TrimSpace(tc.MediaRef) == "" {
				add("%s: empty media reference", where)
			}
			if tc.ExpectedTempo <= 0 {
				add("%s: expected tempo must be positive, got %g", where, tc.ExpectedTempo)
			}
			if tc.TempoRange.Min >= tc.TempoRange.Max {
				add("%s: tempo range min %g must be below max %g", where, tc.TempoRange.Min, tc.TempoRange.Max)
			}
			if tc.Window.Start < 0 || tc.Window.End < 0 {
				add("%s: negative window %s", where, tc.Window)
			} else if tc.Window.End != 0 && tc.Window.End <= tc.Window.Start {
				add("%s: window end %g must follow start %g", where, tc.Window.End, tc.Window.Start)
			}
			if tc.AllowedVariance < 0 {
				add("%s: negative variance %g", where, tc.AllowedVariance)
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &Error{Problems: problems}
}

// Warnings lists cases whose expected tempo lies outside the search range
// handed to the detector. They are legal but can never score as correct.
func (c *Catalog) Warnings() []string {
	var out []string
	for _, s := range c.Sets() {
		for _, tc := range s.Cases {
			if !tc.TempoRange.Contains(tc.ExpectedTempo) {
				out = append(out, fmt.Sprintf("%s/%s: expected tempo %g outside search range %g-%g",
					s.Name, tc.Label, tc.ExpectedTempo, tc.TempoRange.Min, tc.TempoRange.Max))
			}
		}
	}
	return out
}
