package artifact

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNopSink(t *testing.T) {
	set, err := Nop().Open("anything")
	if err != nil {
		t.Fatalf("Nop().Open returned error: %v", err)
	}
	set.Flux.Append(1)
	set.FluxWithTime.AppendAt(0.5, 2)
	set.FullBandFluxWithTime.AppendAt(0.5, 3)
	if err := set.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}

func TestFileSinkWritesThreeChannels(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}

	set, err := sink.Open("louie-louie")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	set.Flux.Append(0.25)
	set.Flux.Append(1.5)
	set.FluxWithTime.AppendAt(0.1, 0.25)
	set.FullBandFluxWithTime.AppendAt(0.2, 3)
	if err := set.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	paths := sink.Paths("louie-louie")
	want := []string{
		"0.250000\n1.500000\n",
		"0.100000 0.250000\n",
		"0.200000 3.000000\n",
	}
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if string(data) != want[i] {
			t.Errorf("%s = %q, expected %q", path, data, want[i])
		}
	}
}

func TestFileSinkDropsWritesAfterClose(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	set, err := sink.Open("late")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	set.Flux.Append(1)
	if err := set.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// a detector that timed out keeps writing
	set.Flux.Append(2)
	set.FluxWithTime.AppendAt(1, 2)

	data, err := os.ReadFile(sink.Paths("late")[0])
	if err != nil {
		t.Fatalf("reading flux file: %v", err)
	}
	if string(data) != "1.000000\n" {
		t.Errorf("flux file = %q, expected only the pre-close value", data)
	}
}

func TestFileSinkTruncatesPreviousData(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, _ := sink.Open("possum1")
	first.Flux.Append(9)
	first.Close()

	second, err := sink.Open("possum1")
	if err != nil {
		t.Fatal(err)
	}
	second.Close()

	data, err := os.ReadFile(sink.Paths("possum1")[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected reopened channel to be empty, got %q", data)
	}
}

func TestFileSinkRejectsPathLabels(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, label := range []string{"", "../escape", `a\b`, ".."} {
		if _, err := sink.Open(label); !errors.Is(err, ErrInvalidLabel) {
			t.Errorf("Open(%q) = %v, expected ErrInvalidLabel", label, err)
		}
	}
}

func TestSetCloseIsIdempotent(t *testing.T) {
	calls := 0
	set := NewSet("x", nopWriter{}, nopWriter{}, nopWriter{}, func() error {
		calls++
		return nil
	})
	set.Close()
	set.Close()
	if calls != 1 {
		t.Errorf("expected close func to run once, ran %d times", calls)
	}
}

func TestMemorySink(t *testing.T) {
	m := NewMemory()

	a, _ := m.Open("a")
	a.Flux.Append(1)
	a.FluxWithTime.AppendAt(0.5, 2)
	if got := m.OpenLabels(); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected a to be open, got %v", got)
	}
	a.Close()

	b, _ := m.Open("b")
	b.Close()

	want := []Event{{"open", "a"}, {"close", "a"}, {"open", "b"}, {"close", "b"}}
	if diff := cmp.Diff(want, m.Events()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Sample{{Timestamp: 0.5, Value: 2}}, m.Samples("a", 1)); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	if len(m.OpenLabels()) != 0 {
		t.Errorf("expected no open labels, got %v", m.OpenLabels())
	}
}
