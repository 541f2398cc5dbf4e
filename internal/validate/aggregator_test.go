package validate

import (
	"errors"
	"testing"

	"github.com/himanishpuri/TempoBench/internal/detector"
	"github.com/himanishpuri/TempoBench/internal/stats"
)

func TestAggregatorEstimateSelection(t *testing.T) {
	res := detector.Result{Mean: 131, Median: 119, Mode: 100}
	tc := testCase("a", 120)

	tests := []struct {
		estimate Estimate
		want     Outcome
	}{
		{EstimateMode, OutcomeIncorrect},
		{EstimateMedian, OutcomeCorrect},
		{EstimateMean, OutcomeIncorrect},
	}

	for _, tt := range tests {
		agg := NewAggregator(tt.estimate)
		agg.BeginSet("S")
		if got := agg.Record(tc, res, 0); got.Outcome != tt.want {
			t.Errorf("%s: outcome = %s, expected %s", tt.estimate, got.Outcome, tt.want)
		}
	}
}

func TestAggregatorVarianceBoundary(t *testing.T) {
	agg := NewAggregator(EstimateMode)
	agg.BeginSet("S")

	tc := testCase("edge", 120) // variance 2
	if got := agg.Record(tc, detector.Result{Mode: 122}, 0); got.Outcome != OutcomeCorrect {
		t.Errorf("tempo at the variance boundary should be correct, got %s", got.Outcome)
	}
	if got := agg.Record(tc, detector.Result{Mode: 122.5}, 0); got.Outcome != OutcomeIncorrect {
		t.Errorf("tempo past the variance should be incorrect, got %s", got.Outcome)
	}
	// a double-time detection is not forgiven
	if got := agg.Record(tc, detector.Result{Mode: 240}, 0); got.Outcome != OutcomeIncorrect {
		t.Errorf("octave error should be incorrect, got %s", got.Outcome)
	}
}

func TestAggregatorSampleAccuracy(t *testing.T) {
	agg := NewAggregator(EstimateMode)
	agg.BeginSet("S")

	res := detector.Result{
		Mode: 120,
		Samples: []detector.TempoSample{
			{Timestamp: 1, BPM: 119}, {Timestamp: 2, BPM: 120},
			{Timestamp: 3, BPM: 130}, {Timestamp: 4, BPM: 60},
		},
	}
	cr := agg.Record(testCase("a", 120), res, 0)
	if cr.Samples != 4 || cr.SampleAccuracy != 50 {
		t.Errorf("samples = %d, sample accuracy = %v; expected 4, 50", cr.Samples, cr.SampleAccuracy)
	}
}

func TestAggregatorSetsAndSummary(t *testing.T) {
	agg := NewAggregator("")

	if _, err := agg.Summary(); !errors.Is(err, stats.ErrEmptySamples) {
		t.Errorf("summary of no sets should fail, got %v", err)
	}

	agg.BeginSet("first")
	agg.Record(testCase("a", 120), detector.Result{Mode: 120}, 0)
	agg.Record(testCase("b", 120), detector.Result{Mode: 120}, 0)
	if sr, err := agg.FinishSet(); err != nil || sr.Accuracy != 100 {
		t.Fatalf("FinishSet = %+v, %v", sr, err)
	}

	agg.BeginSet("empty")
	if _, err := agg.FinishSet(); !errors.Is(err, ErrNoCases) {
		t.Errorf("expected ErrNoCases, got %v", err)
	}

	agg.BeginSet("second")
	agg.Record(testCase("c", 120), detector.Result{Mode: 90}, 0)
	agg.Record(testCase("d", 120), detector.Failed(errors.New("boom")), 0)
	sr, err := agg.FinishSet()
	if err != nil {
		t.Fatalf("FinishSet failed: %v", err)
	}
	if sr.Accuracy != 0 || sr.Failed != 1 || sr.Total != 2 {
		t.Errorf("unexpected second set: %+v", sr)
	}

	if got := agg.Accuracies(); len(got) != 2 {
		t.Fatalf("expected 2 accuracies, got %v", got)
	}
	mean, err := agg.Summary()
	if err != nil || mean != 50 {
		t.Errorf("Summary = %v, %v; expected 50", mean, err)
	}
}

func TestParseEstimate(t *testing.T) {
	tests := []struct {
		in   string
		want Estimate
		ok   bool
	}{
		{"", EstimateMode, true},
		{"Median", EstimateMedian, true},
		{" mean ", EstimateMean, true},
		{"average", "", false},
	}
	for _, tt := range tests {
		got, err := ParseEstimate(tt.in)
		if got != tt.want || (err == nil) != tt.ok {
			t.Errorf("ParseEstimate(%q) = %q, %v", tt.in, got, err)
		}
	}
}
