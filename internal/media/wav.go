package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/himanishpuri/TempoBench/internal/catalog"
)

var ErrNotWAV = errors.New("not a WAV/RIFF file")

// WAVInfo reads the format header of a WAV file without decoding samples.
func WAVInfo(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotWAV)
	}

	duration, err := dec.Duration()
	if err != nil {
		return nil, fmt.Errorf("reading WAV duration: %w", err)
	}

	return &Metadata{
		Filename:   filepath.Base(path),
		Duration:   duration,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Format:     "wav",
	}, nil
}

// Inspect returns metadata for path, reading WAV headers directly and
// falling back to ffprobe for every other container.
func Inspect(ctx context.Context, path string) (*Metadata, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return WAVInfo(path)
	}
	return Probe(ctx, path)
}

// CheckWindow verifies that an analysis window fits inside a recording of
// the given duration.
func CheckWindow(duration time.Duration, w catalog.Window) error {
	total := duration.Seconds()
	if w.Start >= total {
		return fmt.Errorf("window start %gs is past the end of the %.2fs recording", w.Start, total)
	}
	if w.End > total {
		return fmt.Errorf("window end %gs is past the end of the %.2fs recording", w.End, total)
	}
	return nil
}
