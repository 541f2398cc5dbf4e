package artifact

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/himanishpuri/TempoBench/pkg/utils"
)

// File name suffixes, one per channel.
const (
	FluxSuffix                 = "-fluxValues.txt"
	FluxWithTimeSuffix         = "-fluxValuesWithTimeStamps.txt"
	FullBandFluxWithTimeSuffix = "-fluxFullBandValuesWithTimeStamps.txt"
)

// FileSink writes plot data files into a directory, three per case.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := utils.MakeDir(dir); err != nil {
		return nil, fmt.Errorf("creating plot dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Paths returns the three plot file paths for label.
func (s *FileSink) Paths(label string) [3]string {
	return [3]string{
		filepath.Join(s.dir, label+FluxSuffix),
		filepath.Join(s.dir, label+FluxWithTimeSuffix),
		filepath.Join(s.dir, label+FullBandFluxWithTimeSuffix),
	}
}

func (s *FileSink) Open(label string) (*Set, error) {
	if label == "" || strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	var writers []*fileWriter
	closeAll := func() error {
		var errs []error
		for _, w := range writers {
			errs = append(errs, w.close())
		}
		return errors.Join(errs...)
	}

	for _, path := range s.Paths(label) {
		if err := utils.RemoveIfExists(path); err != nil {
			closeAll()
			return nil, err
		}
		f, err := os.Create(path)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("creating plot file: %w", err)
		}
		writers = append(writers, &fileWriter{f: f, w: bufio.NewWriter(f)})
	}

	return NewSet(label, writers[0], writers[1], writers[2], closeAll), nil
}

// fileWriter keeps the first write error and reports it on close. Writes
// after close are dropped; a detector that outlived its case timeout may
// still be appending.
type fileWriter struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	err    error
	closed bool
}

func (fw *fileWriter) Append(value float64) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.err == nil && !fw.closed {
		_, fw.err = fmt.Fprintf(fw.w, "%f\n", value)
	}
}

func (fw *fileWriter) AppendAt(timestamp, value float64) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.err == nil && !fw.closed {
		_, fw.err = fmt.Fprintf(fw.w, "%f %f\n", timestamp, value)
	}
}

func (fw *fileWriter) close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return nil
	}
	fw.closed = true

	err := fw.err
	if ferr := fw.w.Flush(); err == nil {
		err = ferr
	}
	if cerr := fw.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", fw.f.Name(), err)
	}
	return nil
}
