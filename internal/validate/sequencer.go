// Package validate runs a test catalog through a tempo detector one case at
// a time and aggregates the outcomes into per-set and per-run accuracy.
//
// The detector completes asynchronously, but cases never overlap: case N+1
// is dispatched only after case N's completion has been recorded and its
// artifacts closed. The run is driven by a single goroutine moving through
// the states in state.go; callers block only in Wait.
package validate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/himanishpuri/TempoBench/internal/artifact"
	"github.com/himanishpuri/TempoBench/internal/catalog"
	"github.com/himanishpuri/TempoBench/internal/detector"
	"github.com/himanishpuri/TempoBench/pkg/utils"
)

var (
	ErrAlreadyStarted = errors.New("sequencer already started")
	ErrNotStarted     = errors.New("sequencer not started")
	ErrCaseTimeout    = errors.New("detector did not complete in time")
	ErrNilDetector    = errors.New("sequencer requires a detector")
)

type Sequencer struct {
	det detector.Detector
	cfg config

	mu   sync.Mutex
	gate *Gate
}

func New(det detector.Detector, opts ...Option) *Sequencer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Sequencer{det: det, cfg: cfg}
}

// Run validates cat and blocks until every case has completed.
func Run(ctx context.Context, cat *catalog.Catalog, det detector.Detector, opts ...Option) (*Report, error) {
	s := New(det, opts...)
	if err := s.Start(ctx, cat); err != nil {
		return nil, err
	}
	return s.Wait()
}

// Start validates the catalog and begins the run in the background. A
// Sequencer runs at most once.
func (s *Sequencer) Start(ctx context.Context, cat *catalog.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gate != nil {
		return ErrAlreadyStarted
	}
	if s.det == nil {
		return ErrNilDetector
	}
	if cat == nil {
		cat = catalog.New()
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runID := s.cfg.runID
	if runID == "" {
		runID = utils.NewRunID()
	}
	report := &Report{
		RunID:     runID,
		Digest:    cat.Digest(),
		Estimate:  s.cfg.estimate,
		StartedAt: s.cfg.now(),
	}

	s.gate = NewGate()
	rs := newRunState(cat, s.cfg.estimate, s.cfg.observer)
	go s.drive(ctx, rs, report)
	return nil
}

// Wait blocks until the run has finished and returns its report. After a
// cancellation the report is partial and the error is the context's.
func (s *Sequencer) Wait() (*Report, error) {
	s.mu.Lock()
	g := s.gate
	s.mu.Unlock()

	if g == nil {
		return nil, ErrNotStarted
	}
	return g.Wait()
}

// Done is closed when the run has finished. It is nil before Start.
func (s *Sequencer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil {
		return nil
	}
	return s.gate.Done()
}

func (s *Sequencer) drive(ctx context.Context, rs *RunState, report *Report) {
	err := s.loop(ctx, rs, report)
	if err != nil && rs.state != StateDone {
		_ = rs.transition(StateDone)
	}

	report.Accuracies = rs.agg.Accuracies()
	if mean, merr := rs.agg.Summary(); merr == nil {
		report.Mean, report.HasMean = mean, true
	}
	report.FinishedAt = s.cfg.now()

	log := s.cfg.log
	switch {
	case err != nil:
		log.Errorf("Validation aborted after %d sets: %v", len(report.Sets), err)
	case report.HasMean:
		log.Infof("=== Validation finished: mean accuracy over %d sets: %.01f%%", len(report.Accuracies), report.Mean)
	default:
		log.Infof("=== Validation finished: no sets with cases")
	}

	s.gate.Release(report, err)
}

func (s *Sequencer) loop(ctx context.Context, rs *RunState, report *Report) error {
	log := s.cfg.log

	if err := rs.transition(StateDispatchingSet); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch rs.state {
		case StateDispatchingSet:
			set, ok := rs.nextSet()
			if !ok {
				return rs.transition(StateDone)
			}
			log.Infof("Starting validation set %s (%d cases)", set.Name, len(set.Cases))
			if err := rs.transition(StateDispatchingCase); err != nil {
				return err
			}

		case StateDispatchingCase:
			tc, ok := rs.nextCase()
			if !ok {
				if err := rs.transition(StateDraining); err != nil {
					return err
				}
				continue
			}
			if err := rs.transition(StateAwaitingCompletion); err != nil {
				return err
			}
			if err := s.runCase(ctx, rs, tc); err != nil {
				return err
			}
			if err := rs.transition(StateDispatchingCase); err != nil {
				return err
			}

		case StateDraining:
			sr, err := rs.agg.FinishSet()
			report.Sets = append(report.Sets, sr)
			if err != nil {
				log.Warnf("--- Validation set [%s] has no cases, skipped", sr.Name)
			} else {
				log.Infof("--- Validation set [%s] accuracy: %.01f%% (%d/%d correct, %d failed)",
					sr.Name, sr.Accuracy, sr.Correct, sr.Total, sr.Failed)
			}
			if err := rs.transition(StateDispatchingSet); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: unexpected state %s", ErrInvalidTransition, rs.state)
		}
	}
}

// runCase dispatches one case and blocks until its completion, a timeout or
// cancellation. Artifacts are closed before it returns on every path.
func (s *Sequencer) runCase(ctx context.Context, rs *RunState, tc catalog.TestCase) error {
	log := s.cfg.log

	set := s.openArtifacts(tc.Label)
	defer s.closeArtifacts(set)

	done := make(chan detector.Result, 1)
	var once sync.Once
	deliver := func(res detector.Result) bool {
		delivered := false
		once.Do(func() {
			done <- res
			delivered = true
		})
		return delivered
	}
	complete := func(res detector.Result) {
		if !deliver(res) {
			log.Warnf("Ignoring extra completion for %s", tc.Label)
		}
	}

	log.Infof("Start testing: %s; actual bpm: %v", tc.MediaRef, tc.ExpectedTempo)
	started := s.cfg.now()
	s.dispatch(detector.NewRequest(tc, set), complete)

	var timeout <-chan time.Time
	if s.cfg.caseTimeout > 0 {
		timer := time.NewTimer(s.cfg.caseTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var res detector.Result
	select {
	case res = <-done:
	case <-timeout:
		if deliver(detector.Failed(ErrCaseTimeout)) {
			log.Warnf("%s: no completion after %s", tc.Label, s.cfg.caseTimeout)
		}
		res = <-done
	case <-ctx.Done():
		log.Warnf("%s: cancelled while awaiting completion", tc.Label)
		return ctx.Err()
	}

	cr := rs.agg.Record(tc, res, s.cfg.now().Sub(started))
	switch cr.Outcome {
	case OutcomeFailed:
		log.Errorf("[%s] failed: %s", cr.Label, cr.Err)
	default:
		log.Infof("[%s] accuracy: %.01f%% (detected %.1f, expected %v, %s)",
			cr.Label, cr.SampleAccuracy, cr.Detected, cr.ExpectedTempo, cr.Outcome)
	}
	log.Debugf("Finished testing: %s", tc.MediaRef)
	return nil
}

// dispatch hands the request to the detector. A panicking detector is
// treated as a failed analysis.
func (s *Sequencer) dispatch(req detector.Request, complete detector.CompletionFunc) {
	defer func() {
		if r := recover(); r != nil {
			complete(detector.Failed(fmt.Errorf("%w: panic: %v", detector.ErrFailed, r)))
		}
	}()
	s.det.Analyze(req, complete)
}

func (s *Sequencer) openArtifacts(label string) *artifact.Set {
	set, err := s.cfg.sink.Open(label)
	if err != nil || set == nil {
		s.cfg.log.Warnf("Opening artifacts for %s failed, plots disabled for this case: %v", label, err)
		return artifact.NopSet(label)
	}
	return set
}

func (s *Sequencer) closeArtifacts(set *artifact.Set) {
	if err := set.Close(); err != nil {
		s.cfg.log.Warnf("Closing artifacts for %s: %v", set.Label, err)
	}
}
