package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/himanishpuri/TempoBench/pkg/logger"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.Harness.Estimate != "mode" {
		t.Errorf("Estimate = %q, want mode", cfg.Harness.Estimate)
	}
	if cfg.Artifacts.Enabled {
		t.Error("Artifacts should be disabled by default")
	}
	if cfg.Detector.Timeout.Duration != 2*time.Minute {
		t.Errorf("Detector.Timeout = %v, want 2m", cfg.Detector.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Missing file should fall back to defaults, got %v", err)
	}
	if cfg.Storage.DBPath != Default().Storage.DBPath {
		t.Errorf("DBPath = %q", cfg.Storage.DBPath)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[harness]
media_dir = "/corpus"
sets = ["studioSet1", "threesSet1"]
case_timeout = "45s"
estimate = "median"

[detector]
command = "/usr/local/bin/tempo-engine"
args = ["--json"]
convert_wav = true
timeout = "90s"

[artifacts]
enabled = true
backend = "sqlite"

[log]
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Harness.MediaDir != "/corpus" {
		t.Errorf("MediaDir = %q, want /corpus", cfg.Harness.MediaDir)
	}
	if len(cfg.Harness.Sets) != 2 || cfg.Harness.Sets[1] != "threesSet1" {
		t.Errorf("Sets = %v", cfg.Harness.Sets)
	}
	if cfg.Harness.CaseTimeout.Duration != 45*time.Second {
		t.Errorf("CaseTimeout = %v, want 45s", cfg.Harness.CaseTimeout)
	}
	if cfg.Detector.Timeout.Duration != 90*time.Second {
		t.Errorf("Detector.Timeout = %v, want 90s", cfg.Detector.Timeout)
	}
	if !cfg.Detector.ConvertWAV || cfg.Detector.Args[0] != "--json" {
		t.Errorf("Detector = %+v", cfg.Detector)
	}
	if cfg.Artifacts.Backend != BackendSQLite || !cfg.Artifacts.Enabled {
		t.Errorf("Artifacts = %+v", cfg.Artifacts)
	}
	// untouched sections keep their defaults
	if !cfg.Storage.Record {
		t.Error("Storage.Record should keep its default")
	}
	if cfg.LogLevel() != logger.DEBUG {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[harness]\ncase_timeout = \"soon\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TEMPO_DB_PATH", "/tmp/runs.db")
	t.Setenv("TEMPO_MEDIA_DIR", "/media")
	t.Setenv("TEMPO_ARTIFACT_DIR", "/plots")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Storage.DBPath != "/tmp/runs.db" || cfg.Harness.MediaDir != "/media" || cfg.Artifacts.Dir != "/plots" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel() != logger.WARN {
		t.Errorf("LogLevel = %v, want WARN", cfg.LogLevel())
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Harness.Estimate = "average"
	cfg.Artifacts.Backend = "s3"
	cfg.Log.Level = "loud"
	cfg.Detector.Timeout = Duration{-time.Second}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	for _, want := range []string{"average", "s3", "loud", "detector.timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error %q does not mention %q", err, want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/corpus", filepath.Join(home, "corpus")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
