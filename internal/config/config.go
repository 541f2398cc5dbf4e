// Package config loads the tempobench TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/himanishpuri/TempoBench/internal/media"
	"github.com/himanishpuri/TempoBench/internal/storage"
	"github.com/himanishpuri/TempoBench/internal/validate"
	"github.com/himanishpuri/TempoBench/pkg/logger"
)

// Config holds all application configuration
type Config struct {
	Harness   HarnessConfig   `toml:"harness"`
	Detector  DetectorConfig  `toml:"detector"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
	Storage   StorageConfig   `toml:"storage"`
	Log       LogConfig       `toml:"log"`
}

// HarnessConfig selects what gets validated
type HarnessConfig struct {
	MediaDir    string   `toml:"media_dir"`
	Catalog     string   `toml:"catalog"` // empty means the built-in corpus
	Sets        []string `toml:"sets"`
	CaseTimeout Duration `toml:"case_timeout"`
	Estimate    string   `toml:"estimate"`
}

// DetectorConfig describes the external tempo engine
type DetectorConfig struct {
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
	ConvertWAV bool     `toml:"convert_wav"`
	SampleRate int      `toml:"sample_rate"`
	TempDir    string   `toml:"temp_dir"`
	Timeout    Duration `toml:"timeout"`
}

type ArtifactsConfig struct {
	Enabled bool   `toml:"enabled"`
	Backend string `toml:"backend"` // "file" or "sqlite"
	Dir     string `toml:"dir"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
	Record bool   `toml:"record"`
}

type LogConfig struct {
	Level    string `toml:"level"`
	Colorize bool   `toml:"colorize"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Duration is a time.Duration written as "30s" or "2m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Harness: HarnessConfig{
			MediaDir: "Test Media",
			Estimate: string(validate.EstimateMode),
		},
		Detector: DetectorConfig{
			SampleRate: media.DefaultSampleRate,
			TempDir:    filepath.Join(os.TempDir(), "tempobench"),
			Timeout:    Duration{2 * time.Minute},
		},
		Artifacts: ArtifactsConfig{
			Backend: BackendFile,
			Dir:     "Plots",
		},
		Storage: StorageConfig{
			DBPath: storage.DefaultDBFile,
			Record: true,
		},
		Log: LogConfig{
			Level:    "info",
			Colorize: true,
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Harness.MediaDir = ExpandPath(cfg.Harness.MediaDir)
	cfg.Harness.Catalog = ExpandPath(cfg.Harness.Catalog)
	cfg.Detector.Command = ExpandPath(cfg.Detector.Command)
	cfg.Detector.TempDir = ExpandPath(cfg.Detector.TempDir)
	cfg.Artifacts.Dir = ExpandPath(cfg.Artifacts.Dir)
	cfg.Storage.DBPath = ExpandPath(cfg.Storage.DBPath)

	return cfg, nil
}

// ApplyEnv overrides file settings with TEMPO_DB_PATH, TEMPO_MEDIA_DIR,
// TEMPO_ARTIFACT_DIR and LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TEMPO_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("TEMPO_MEDIA_DIR"); v != "" {
		c.Harness.MediaDir = v
	}
	if v := os.Getenv("TEMPO_ARTIFACT_DIR"); v != "" {
		c.Artifacts.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	if _, err := validate.ParseEstimate(c.Harness.Estimate); err != nil {
		errs = append(errs, err)
	}
	if c.Harness.CaseTimeout.Duration < 0 {
		errs = append(errs, errors.New("harness.case_timeout must not be negative"))
	}
	if c.Detector.Timeout.Duration < 0 {
		errs = append(errs, errors.New("detector.timeout must not be negative"))
	}
	if c.Detector.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("detector.sample_rate must be positive, got %d", c.Detector.SampleRate))
	}
	if c.Detector.ConvertWAV && c.Detector.TempDir == "" {
		errs = append(errs, errors.New("detector.temp_dir is required when convert_wav is set"))
	}
	switch c.Artifacts.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("artifacts.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Artifacts.Backend))
	}
	if c.Artifacts.Enabled && c.Artifacts.Backend == BackendFile && c.Artifacts.Dir == "" {
		errs = append(errs, errors.New("artifacts.dir is required for the file backend"))
	}
	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured level, INFO when unrecognized.
func (c *Config) LogLevel() logger.LogLevel {
	lvl, _ := logger.ParseLevel(c.Log.Level)
	return lvl
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tempobench", "config.toml")
}
