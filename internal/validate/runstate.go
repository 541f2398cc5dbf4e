package validate

import (
	"github.com/himanishpuri/TempoBench/internal/catalog"
)

// RunState is the mutable bookkeeping of one run. Only the driver goroutine
// touches it.
type RunState struct {
	pendingSets  []catalog.TestSet
	pendingCases []catalog.TestCase
	currentSet   string
	currentCase  *catalog.TestCase

	agg      *Aggregator
	state    State
	observer Observer
}

func newRunState(cat *catalog.Catalog, estimate Estimate, observer Observer) *RunState {
	return &RunState{
		pendingSets: cat.Sets(),
		agg:         NewAggregator(estimate),
		state:       StateIdle,
		observer:    observer,
	}
}

func (rs *RunState) State() State {
	return rs.state
}

func (rs *RunState) transition(to State) error {
	if err := ValidateTransition(rs.state, to); err != nil {
		return err
	}
	from := rs.state
	rs.state = to
	if rs.observer != nil {
		rs.observer(from, to)
	}
	return nil
}

// nextSet pops the next set, loads its cases and resets the counters.
func (rs *RunState) nextSet() (catalog.TestSet, bool) {
	if len(rs.pendingSets) == 0 {
		return catalog.TestSet{}, false
	}
	set := rs.pendingSets[0]
	rs.pendingSets = rs.pendingSets[1:]

	rs.currentSet = set.Name
	rs.pendingCases = append([]catalog.TestCase(nil), set.Cases...)
	rs.currentCase = nil
	rs.agg.BeginSet(set.Name)
	return set, true
}

func (rs *RunState) nextCase() (catalog.TestCase, bool) {
	if len(rs.pendingCases) == 0 {
		rs.currentCase = nil
		return catalog.TestCase{}, false
	}
	tc := rs.pendingCases[0]
	rs.pendingCases = rs.pendingCases[1:]
	rs.currentCase = &tc
	return tc, true
}
