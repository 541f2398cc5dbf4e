package validate

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/himanishpuri/TempoBench/internal/catalog"
	"github.com/himanishpuri/TempoBench/internal/detector"
	"github.com/himanishpuri/TempoBench/pkg/logger"
)

func testCase(label string, expected float64) catalog.TestCase {
	return catalog.TestCase{
		Label:           label,
		MediaRef:        label + ".wav",
		ExpectedTempo:   expected,
		TempoRange:      catalog.TempoRange{Min: catalog.DefaultMinTempo, Max: catalog.DefaultMaxTempo},
		AllowedVariance: catalog.DefaultVariance,
	}
}

func testLogger(t *testing.T) (*logger.Logger, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	return logger.New(logger.Config{Level: logger.DEBUG, Output: buf}), buf
}

// syncBuffer lets late detector goroutines log while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// stubDetector completes every request on a new goroutine after delay with
// the mode configured for its media ref. It records the order of
// invocations and completions and the peak number of cases in flight.
type stubDetector struct {
	delay time.Duration
	modes map[string]float64
	fail  map[string]error

	mu       sync.Mutex
	events   []string
	inFlight int
	peak     int
}

func (d *stubDetector) Analyze(req detector.Request, done detector.CompletionFunc) {
	d.mu.Lock()
	d.events = append(d.events, "start:"+req.MediaRef)
	d.inFlight++
	if d.inFlight > d.peak {
		d.peak = d.inFlight
	}
	d.mu.Unlock()

	go func() {
		time.Sleep(d.delay)

		res := detector.Result{Mode: d.modes[req.MediaRef]}
		if err := d.fail[req.MediaRef]; err != nil {
			res = detector.Failed(err)
		}
		req.Artifacts.Flux.Append(res.Mode)

		d.mu.Lock()
		d.events = append(d.events, "done:"+req.MediaRef)
		d.inFlight--
		d.mu.Unlock()

		done(res)
	}()
}

func (d *stubDetector) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func (d *stubDetector) Calls() int {
	n := 0
	for _, e := range d.Events() {
		if len(e) > 6 && e[:6] == "start:" {
			n++
		}
	}
	return n
}

// blockingDetector never completes unless released.
type blockingDetector struct {
	started chan string
	release chan struct{}
}

func newBlockingDetector() *blockingDetector {
	return &blockingDetector{started: make(chan string, 16), release: make(chan struct{})}
}

func (d *blockingDetector) Analyze(req detector.Request, done detector.CompletionFunc) {
	d.started <- req.MediaRef
	go func() {
		<-d.release
		done(detector.Result{Mode: 1})
	}()
}

func waitReport(t *testing.T, s *Sequencer) (*Report, error) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	return s.Wait()
}

func labels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("case-%d", i+1)
	}
	return out
}
