package validate

import "time"

// Report is the outcome of one run, in catalog order.
type Report struct {
	RunID      string
	Digest     string
	Estimate   Estimate
	StartedAt  time.Time
	FinishedAt time.Time

	Sets       []SetResult
	Accuracies []float64

	// Mean is the average set accuracy; HasMean is false when no set
	// produced an accuracy.
	Mean    float64
	HasMean bool
}

func (r *Report) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Totals sums case counts over all sets.
func (r *Report) Totals() (total, correct, failed int) {
	if r == nil {
		return 0, 0, 0
	}
	for _, s := range r.Sets {
		total += s.Total
		correct += s.Correct
		failed += s.Failed
	}
	return total, correct, failed
}

// Set returns the result for the named set.
func (r *Report) Set(name string) (SetResult, bool) {
	if r == nil {
		return SetResult{}, false
	}
	for _, s := range r.Sets {
		if s.Name == name {
			return s, true
		}
	}
	return SetResult{}, false
}
