package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/TempoBench/internal/config"
	"github.com/himanishpuri/TempoBench/internal/harness"
	"github.com/himanishpuri/TempoBench/pkg/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	dbPath     string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tempobench",
	Short: "Validate a tempo detector against a labeled corpus",
	Long: "tempobench runs a tempo detection engine over a catalog of labeled recordings,\n" +
		"one case at a time, and reports per-set and overall accuracy.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", getEnvOrDefault("TEMPO_CONFIG", config.DefaultConfigPath()), "Path to the TOML config file")
	pf.StringVar(&dbPath, "db", "", "Path to the SQLite run history (env: TEMPO_DB_PATH)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.Version = version
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.ApplyEnv()
	if dbPath != "" {
		c.Storage.DBPath = dbPath
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	logger.SetLevel(c.LogLevel())
	logger.SetColorize(c.Log.Colorize)
	logger.SetOutput(cmd.ErrOrStderr())

	cfg = c
	return nil
}

// openHarness builds a harness for commands that only read the history.
func openHarness(opts ...harness.Option) (*harness.Harness, error) {
	opts = append([]harness.Option{harness.WithRecord(true)}, opts...)
	h, err := harness.FromConfig(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create harness: %w", err)
	}
	return h, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
