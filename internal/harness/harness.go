// Package harness wires a detector, artifact sink and run history around the
// validation sequencer.
package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/himanishpuri/TempoBench/internal/artifact"
	"github.com/himanishpuri/TempoBench/internal/catalog"
	"github.com/himanishpuri/TempoBench/internal/config"
	"github.com/himanishpuri/TempoBench/internal/detector"
	"github.com/himanishpuri/TempoBench/internal/storage"
	"github.com/himanishpuri/TempoBench/internal/validate"
	"github.com/himanishpuri/TempoBench/pkg/logger"
)

var (
	ErrNoDetector = errors.New("no detector configured")
	ErrNoStorage  = errors.New("run history is not available")
)

type Harness struct {
	storage Storage
	sink    artifact.Sink
	det     detector.Detector
	log     Logger
	config  *Config
}

func New(opts ...Option) (*Harness, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	// Open storage only when something needs it
	stor := cfg.Storage
	if stor == nil && (cfg.Record || cfg.SQLiteArtifacts) {
		db, err := storage.NewDBClientWithPath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		stor = db
	}

	var sink artifact.Sink
	switch {
	case cfg.Sink != nil:
		sink = cfg.Sink
	case cfg.SQLiteArtifacts:
		sink = stor.ArtifactSink()
	case cfg.ArtifactDir != "":
		fs, err := artifact.NewFileSink(cfg.ArtifactDir)
		if err != nil {
			if stor != nil {
				stor.Close()
			}
			return nil, err
		}
		sink = fs
	default:
		sink = artifact.Nop()
	}

	return &Harness{
		storage: stor,
		sink:    sink,
		det:     cfg.Detector,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// FromConfig builds a harness from a loaded configuration file. Options are
// applied after the file settings.
func FromConfig(cfg *config.Config, opts ...Option) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{
		WithDBPath(cfg.Storage.DBPath),
		WithRecord(cfg.Storage.Record),
		WithCaseTimeout(cfg.Harness.CaseTimeout.Duration),
		WithEstimate(validate.Estimate(cfg.Harness.Estimate)),
	}

	if cfg.Detector.Command != "" {
		cmd := &detector.Command{
			Path:       cfg.Detector.Command,
			Args:       cfg.Detector.Args,
			MediaDir:   cfg.Harness.MediaDir,
			SampleRate: cfg.Detector.SampleRate,
			Timeout:    cfg.Detector.Timeout.Duration,
		}
		if cfg.Detector.ConvertWAV {
			cmd.ConvertDir = cfg.Detector.TempDir
		}
		base = append(base, WithDetector(cmd))
	}

	if cfg.Artifacts.Enabled {
		switch cfg.Artifacts.Backend {
		case config.BackendSQLite:
			base = append(base, WithSQLiteArtifacts())
		default:
			base = append(base, WithArtifactDir(cfg.Artifacts.Dir))
		}
	}

	return New(append(base, opts...)...)
}

// LoadCatalog reads the catalog at path, or the built-in corpus when path is
// empty, and narrows it to the named sets.
func LoadCatalog(path string, sets []string) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	switch {
	case path != "":
		c, err := catalog.Load(path)
		if err != nil {
			return nil, err
		}
		cat = c
	case len(sets) > 0:
		cat = catalog.BuiltinAll()
	default:
		return catalog.Builtin(), nil
	}

	if len(sets) == 0 {
		return cat, nil
	}
	return cat.Select(sets...)
}

// Run validates cat and records the report when recording is enabled. A
// cancelled run returns its partial report and is not recorded.
func (h *Harness) Run(ctx context.Context, cat *catalog.Catalog) (*validate.Report, error) {
	if h.det == nil {
		return nil, ErrNoDetector
	}

	for _, w := range cat.Warnings() {
		h.log.Warnf("%s", w)
	}

	h.log.Infof("Validating %d sets, %d cases", cat.Len(), cat.CaseCount())
	report, err := validate.Run(ctx, cat, h.det,
		validate.WithSink(h.sink),
		validate.WithLogger(h.log),
		validate.WithCaseTimeout(h.config.CaseTimeout),
		validate.WithEstimate(h.config.Estimate),
	)
	if err != nil {
		return report, err
	}

	if h.config.Record && h.storage != nil {
		if err := h.storage.SaveReport(report); err != nil {
			return report, fmt.Errorf("saving report: %w", err)
		}
		h.log.Debugf("Recorded run %s", report.RunID)
	}
	return report, nil
}

func (h *Harness) History(limit int) ([]storage.Run, error) {
	if h.storage == nil {
		return nil, ErrNoStorage
	}
	return h.storage.ListRuns(limit)
}

// Report loads a recorded run.
func (h *Harness) Report(runID string) (*validate.Report, error) {
	if h.storage == nil {
		return nil, ErrNoStorage
	}
	run, err := h.storage.GetRun(runID)
	if err != nil {
		return nil, err
	}
	return run.Report(), nil
}

// Trend lists a set's recorded accuracy for runs of the catalog with the
// given digest.
func (h *Harness) Trend(setName, digest string) ([]storage.TrendPoint, error) {
	if h.storage == nil {
		return nil, ErrNoStorage
	}
	return h.storage.SetTrend(setName, digest)
}

func (h *Harness) DeleteRun(runID string) error {
	if h.storage == nil {
		return ErrNoStorage
	}
	return h.storage.DeleteRun(runID)
}

func (h *Harness) Close() error {
	if h.storage == nil {
		return nil
	}
	return h.storage.Close()
}
