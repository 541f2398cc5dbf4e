package artifact

import "sync"

// Sample is one recorded value. Timestamp is zero for untimed channels.
type Sample struct {
	Timestamp float64
	Value     float64
}

// Event records an Open or Close, in the order they happened.
type Event struct {
	Op    string // "open" or "close"
	Label string
}

// Memory is an in-process sink that keeps every sample. Useful for tests
// and for inspecting detector output without touching disk.
type Memory struct {
	mu       sync.Mutex
	events   []Event
	channels map[string]*[3][]Sample
	open     map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		channels: make(map[string]*[3][]Sample),
		open:     make(map[string]bool),
	}
}

func (m *Memory) Open(label string) (*Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, Event{Op: "open", Label: label})
	m.channels[label] = &[3][]Sample{}
	m.open[label] = true

	writer := func(ch int) Writer { return &memWriter{m: m, label: label, ch: ch} }
	return NewSet(label, writer(0), writer(1), writer(2), func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.events = append(m.events, Event{Op: "close", Label: label})
		delete(m.open, label)
		return nil
	}), nil
}

// Events returns the open/close history.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// OpenLabels lists labels whose set has not been closed yet.
func (m *Memory) OpenLabels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.open))
	for l := range m.open {
		out = append(out, l)
	}
	return out
}

// Samples returns the samples stored for label on channel 0 (flux),
// 1 (flux with time) or 2 (full-band flux with time).
func (m *Memory) Samples(label string, ch int) []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.channels[label]
	if !ok || ch < 0 || ch > 2 {
		return nil
	}
	return append([]Sample(nil), c[ch]...)
}

type memWriter struct {
	m     *Memory
	label string
	ch    int
}

func (w *memWriter) Append(value float64) { w.AppendAt(0, value) }

func (w *memWriter) AppendAt(timestamp, value float64) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	if c, ok := w.m.channels[w.label]; ok {
		c[w.ch] = append(c[w.ch], Sample{Timestamp: timestamp, Value: value})
	}
}
