// Package artifact provides the per-case diagnostic sample channels a
// detector may write flux curves into for later plotting.
package artifact

import "errors"

// Writer is an append-only numeric sample channel.
type Writer interface {
	Append(value float64)
	AppendAt(timestamp, value float64)
}

// Set holds the three channels opened for one test case.
type Set struct {
	Label                string
	Flux                 Writer
	FluxWithTime         Writer
	FullBandFluxWithTime Writer

	close func() error
}

// NewSet assembles a Set. close finalizes all three channels and may be nil.
func NewSet(label string, flux, fluxWithTime, fullBand Writer, close func() error) *Set {
	return &Set{
		Label:                label,
		Flux:                 flux,
		FluxWithTime:         fluxWithTime,
		FullBandFluxWithTime: fullBand,
		close:                close,
	}
}

// Close flushes and releases the channels. Calling Close more than once is
// a no-op.
func (s *Set) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	fn := s.close
	s.close = nil
	return fn()
}

// Sink opens channel sets keyed by case label. Opening a label discards any
// samples previously stored under it.
type Sink interface {
	Open(label string) (*Set, error)
}

var ErrInvalidLabel = errors.New("artifact: invalid label")

type nopWriter struct{}

func (nopWriter) Append(float64)           {}
func (nopWriter) AppendAt(float64, float64) {}

type nopSink struct{}

// Nop returns the sink used when diagnostics are disabled.
func Nop() Sink { return nopSink{} }

func (nopSink) Open(label string) (*Set, error) {
	return NopSet(label), nil
}

// NopSet returns a Set whose channels discard everything.
func NopSet(label string) *Set {
	return NewSet(label, nopWriter{}, nopWriter{}, nopWriter{}, nil)
}
