// Package detector defines the boundary to the tempo detection engine and
// ships adapters for in-process and external-process engines.
package detector

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/TempoBench/internal/artifact"
	"github.com/himanishpuri/TempoBench/internal/catalog"
)

// Request is what the engine needs to analyze one test case.
type Request struct {
	MediaRef        string
	Window          catalog.Window
	TempoRange      catalog.TempoRange
	AllowedVariance float64

	// Artifacts receives optional flux curves. Never nil when handed out by
	// the sequencer; it may discard everything.
	Artifacts *artifact.Set
}

// NewRequest builds the request for a catalog test case.
func NewRequest(tc catalog.TestCase, artifacts *artifact.Set) Request {
	if artifacts == nil {
		artifacts = artifact.NopSet(tc.Label)
	}
	return Request{
		MediaRef:        tc.MediaRef,
		Window:          tc.Window,
		TempoRange:      tc.TempoRange,
		AllowedVariance: tc.AllowedVariance,
		Artifacts:       artifacts,
	}
}

// TempoSample is one timestamped tempo estimate.
type TempoSample struct {
	Timestamp float64 `json:"t"`
	BPM       float64 `json:"bpm"`
}

// Result is delivered to the completion callback. A non-nil Err marks a
// failed analysis; the tempo fields are then meaningless.
type Result struct {
	Samples []TempoSample
	Mean    float64
	Median  float64
	Mode    float64
	Err     error
}

// Failed is the sentinel result for an analysis that could not complete.
func Failed(err error) Result {
	if err == nil {
		err = ErrFailed
	}
	return Result{Err: err}
}

var (
	ErrFailed  = errors.New("detector: analysis failed")
	ErrNoTempo = errors.New("detector: no tempo samples produced")
)

// CompletionFunc is the one-shot continuation for one analysis.
type CompletionFunc func(Result)

// Detector analyzes a recording asynchronously. Implementations must call
// done exactly once per Analyze call, also when the analysis fails, and may
// do so from any goroutine. Analyze itself should return promptly.
type Detector interface {
	Analyze(req Request, done CompletionFunc)
}

// AnalyzeFunc is a synchronous analysis routine.
type AnalyzeFunc func(req Request) (Result, error)

type asyncDetector struct {
	fn AnalyzeFunc
}

// Async turns a synchronous routine into a Detector that runs each request
// on its own goroutine. Errors and panics are delivered as Failed results.
func Async(fn AnalyzeFunc) Detector {
	return &asyncDetector{fn: fn}
}

func (d *asyncDetector) Analyze(req Request, done CompletionFunc) {
	go func() {
		done(run(d.fn, req))
	}()
}

func run(fn AnalyzeFunc, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Failed(fmt.Errorf("%w: panic: %v", ErrFailed, r))
		}
	}()

	res, err := fn(req)
	if err != nil {
		return Failed(err)
	}
	return res
}
