package harness

import (
	"time"

	"github.com/himanishpuri/TempoBench/internal/artifact"
	"github.com/himanishpuri/TempoBench/internal/detector"
	"github.com/himanishpuri/TempoBench/internal/storage"
	"github.com/himanishpuri/TempoBench/internal/validate"
)

type Config struct {
	DBPath          string
	ArtifactDir     string
	SQLiteArtifacts bool
	Logger          Logger
	Storage         Storage
	Detector        detector.Detector
	Sink            artifact.Sink
	CaseTimeout     time.Duration
	Estimate        validate.Estimate
	Record          bool
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithArtifactDir writes flux plots as text files under dir.
func WithArtifactDir(dir string) Option {
	return func(c *Config) {
		c.ArtifactDir = dir
	}
}

// WithSQLiteArtifacts stores flux plots in the history database.
func WithSQLiteArtifacts() Option {
	return func(c *Config) {
		c.SQLiteArtifacts = true
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithDetector(det detector.Detector) Option {
	return func(c *Config) {
		c.Detector = det
	}
}

func WithSink(sink artifact.Sink) Option {
	return func(c *Config) {
		c.Sink = sink
	}
}

func WithCaseTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CaseTimeout = d
	}
}

func WithEstimate(e validate.Estimate) Option {
	return func(c *Config) {
		c.Estimate = e
	}
}

// WithRecord controls whether finished runs are saved to the history.
func WithRecord(record bool) Option {
	return func(c *Config) {
		c.Record = record
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:   storage.DefaultDBFile,
		Estimate: validate.EstimateMode,
		Record:   true,
	}
}
