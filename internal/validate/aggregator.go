package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/TempoBench/internal/catalog"
	"github.com/himanishpuri/TempoBench/internal/detector"
	"github.com/himanishpuri/TempoBench/internal/stats"
)

// Estimate selects which detector summary is compared against the expected
// tempo.
type Estimate string

const (
	EstimateMode   Estimate = "mode"
	EstimateMedian Estimate = "median"
	EstimateMean   Estimate = "mean"
)

func ParseEstimate(name string) (Estimate, error) {
	switch e := Estimate(strings.ToLower(strings.TrimSpace(name))); e {
	case "":
		return EstimateMode, nil
	case EstimateMode, EstimateMedian, EstimateMean:
		return e, nil
	}
	return "", fmt.Errorf("unknown tempo estimate %q (want mode, median or mean)", name)
}

func (e Estimate) pick(res detector.Result) float64 {
	switch e {
	case EstimateMedian:
		return res.Median
	case EstimateMean:
		return res.Mean
	default:
		return res.Mode
	}
}

type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeFailed    Outcome = "failed"
)

type CaseResult struct {
	Label         string
	MediaRef      string
	ExpectedTempo float64
	Detected      float64
	Mean          float64
	Median        float64
	Mode          float64

	// Samples is the number of timestamped estimates; SampleAccuracy is the
	// share of them within the allowed variance, in percent.
	Samples        int
	SampleAccuracy float64

	Outcome Outcome
	Err     string
	Elapsed time.Duration
}

type SetResult struct {
	Name     string
	Total    int
	Correct  int
	Failed   int
	Accuracy float64
	Cases    []CaseResult
}

var ErrNoCases = errors.New("accuracy of a set without cases is undefined")

// Aggregator accumulates per-case outcomes into set accuracies and the run
// summary. It is not safe for concurrent use; the sequencer's driver owns it.
type Aggregator struct {
	estimate   Estimate
	current    *SetResult
	accuracies []float64
}

func NewAggregator(estimate Estimate) *Aggregator {
	if estimate == "" {
		estimate = EstimateMode
	}
	return &Aggregator{estimate: estimate}
}

// BeginSet resets the counters for a new set.
func (a *Aggregator) BeginSet(name string) {
	a.current = &SetResult{Name: name}
}

// Record scores one completed case against its ground truth.
func (a *Aggregator) Record(tc catalog.TestCase, res detector.Result, elapsed time.Duration) CaseResult {
	if a.current == nil {
		a.BeginSet("")
	}

	cr := CaseResult{
		Label:         tc.Label,
		MediaRef:      tc.MediaRef,
		ExpectedTempo: tc.ExpectedTempo,
		Elapsed:       elapsed,
	}

	a.current.Total++
	switch {
	case res.Err != nil:
		cr.Outcome = OutcomeFailed
		cr.Err = res.Err.Error()
		a.current.Failed++
	default:
		cr.Mean, cr.Median, cr.Mode = res.Mean, res.Median, res.Mode
		cr.Detected = a.estimate.pick(res)
		cr.Samples = len(res.Samples)
		cr.SampleAccuracy = sampleAccuracy(res.Samples, tc)

		cr.Outcome = OutcomeIncorrect
		if stats.WithinTolerance(cr.Detected, tc.ExpectedTempo, tc.AllowedVariance) {
			cr.Outcome = OutcomeCorrect
			a.current.Correct++
		}
	}

	a.current.Cases = append(a.current.Cases, cr)
	return cr
}

func sampleAccuracy(samples []detector.TempoSample, tc catalog.TestCase) float64 {
	if len(samples) == 0 {
		return 0
	}
	within := 0
	for _, s := range samples {
		if stats.WithinTolerance(s.BPM, tc.ExpectedTempo, tc.AllowedVariance) {
			within++
		}
	}
	return 100 * float64(within) / float64(len(samples))
}

// FinishSet computes the accuracy of the current set and appends it to the
// run's accuracies. A set without cases yields ErrNoCases and contributes
// nothing to the summary.
func (a *Aggregator) FinishSet() (SetResult, error) {
	if a.current == nil {
		return SetResult{}, ErrNoCases
	}
	sr := *a.current
	a.current = nil

	if sr.Total == 0 {
		return sr, fmt.Errorf("set %q: %w", sr.Name, ErrNoCases)
	}
	sr.Accuracy = 100 * float64(sr.Correct) / float64(sr.Total)
	a.accuracies = append(a.accuracies, sr.Accuracy)
	return sr, nil
}

func (a *Aggregator) Accuracies() []float64 {
	return append([]float64(nil), a.accuracies...)
}

// Summary is the mean of the set accuracies. It fails when no set has been
// finished.
func (a *Aggregator) Summary() (float64, error) {
	return stats.Mean(a.accuracies)
}
