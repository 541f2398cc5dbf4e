package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/himanishpuri/TempoBench/internal/artifact"
)

// Channel numbers of the three flux curves.
const (
	ChannelFlux = iota
	ChannelFluxWithTime
	ChannelFullBandFluxWithTime
)

// ArtifactSink stores flux curves in the plot_samples table instead of text
// files. Samples are buffered per case and inserted when the set is closed.
func (c *DBClient) ArtifactSink() artifact.Sink {
	return &plotSink{c: c}
}

type plotSink struct {
	c *DBClient
}

func (s *plotSink) Open(label string) (*artifact.Set, error) {
	if s.c == nil || s.c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	if strings.TrimSpace(label) == "" {
		return nil, artifact.ErrInvalidLabel
	}

	if err := s.c.DB.Where("label = ?", label).Delete(&PlotSample{}).Error; err != nil {
		return nil, fmt.Errorf("clearing plot samples for %s: %w", label, err)
	}

	buf := &plotBuffer{c: s.c, label: label}
	return artifact.NewSet(label,
		&plotWriter{buf: buf, channel: ChannelFlux},
		&plotWriter{buf: buf, channel: ChannelFluxWithTime},
		&plotWriter{buf: buf, channel: ChannelFullBandFluxWithTime},
		buf.flush,
	), nil
}

type plotBuffer struct {
	c     *DBClient
	label string

	mu      sync.Mutex
	samples []PlotSample
	seq     [3]int
	closed  bool
}

func (b *plotBuffer) add(channel int, timestamp, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.samples = append(b.samples, PlotSample{
		Label:     b.label,
		Channel:   channel,
		Seq:       b.seq[channel],
		Timestamp: timestamp,
		Value:     value,
	})
	b.seq[channel]++
}

func (b *plotBuffer) flush() error {
	b.mu.Lock()
	samples := b.samples
	b.samples = nil
	b.closed = true
	b.mu.Unlock()

	if len(samples) == 0 {
		return nil
	}
	if err := b.c.DB.CreateInBatches(samples, 500).Error; err != nil {
		return fmt.Errorf("batch insert plot samples: %w", err)
	}
	return nil
}

type plotWriter struct {
	buf     *plotBuffer
	channel int
}

func (w *plotWriter) Append(value float64) { w.buf.add(w.channel, 0, value) }

func (w *plotWriter) AppendAt(timestamp, value float64) { w.buf.add(w.channel, timestamp, value) }

// PlotSamples returns the stored samples of one channel in write order.
func (c *DBClient) PlotSamples(label string, channel int) ([]PlotSample, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []PlotSample
	err := c.DB.Where("label = ? AND channel = ?", label, channel).Order("seq").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying plot samples: %w", err)
	}
	return rows, nil
}
