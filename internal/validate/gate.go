package validate

import (
	"sync"
	"sync/atomic"
)

// Gate is a single-use promise for the outcome of a run. The first Release
// wins; later calls are counted and ignored.
type Gate struct {
	once     sync.Once
	done     chan struct{}
	releases atomic.Int32

	report *Report
	err    error
}

func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Release stores the outcome and unblocks every waiter. It reports whether
// this call was the one that released the gate.
func (g *Gate) Release(report *Report, err error) bool {
	g.releases.Add(1)

	released := false
	g.once.Do(func() {
		g.report = report
		g.err = err
		close(g.done)
		released = true
	})
	return released
}

// Wait blocks until the gate is released.
func (g *Gate) Wait() (*Report, error) {
	<-g.done
	return g.report, g.err
}

// Done is closed once the gate has been released.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Releases counts every Release call, including ignored ones.
func (g *Gate) Releases() int {
	return int(g.releases.Load())
}
