package validate

import (
	"errors"
	"sync"
	"testing"
)

func TestGateReleaseOnce(t *testing.T) {
	g := NewGate()
	first := &Report{RunID: "first"}

	if !g.Release(first, nil) {
		t.Fatal("first Release should win")
	}
	if g.Release(&Report{RunID: "second"}, errors.New("late")) {
		t.Error("second Release should be ignored")
	}

	report, err := g.Wait()
	if report != first || err != nil {
		t.Errorf("Wait = %v, %v; expected the first release", report.RunID, err)
	}
	if g.Releases() != 2 {
		t.Errorf("Releases = %d, expected 2 attempts", g.Releases())
	}
}

func TestGateWakesAllWaiters(t *testing.T) {
	g := NewGate()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r, _ := g.Wait(); r == nil || r.RunID != "r" {
				t.Errorf("waiter got %+v", r)
			}
		}()
	}

	select {
	case <-g.Done():
		t.Fatal("gate done before release")
	default:
	}

	g.Release(&Report{RunID: "r"}, nil)
	wg.Wait()
}

func TestGateConcurrentRelease(t *testing.T) {
	g := NewGate()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Release(&Report{}, nil) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one winning release, got %d", wins)
	}
}
