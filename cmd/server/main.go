package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/TempoBench/internal/config"
	"github.com/himanishpuri/TempoBench/internal/harness"
	"github.com/himanishpuri/TempoBench/pkg/logger"
)

var (
	port           int
	configPath     string
	dbPath         string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&configPath, "config", getEnvOrDefault("TEMPO_CONFIG", config.DefaultConfigPath()), "Path to the TOML config file")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite run history (env: TEMPO_DB_PATH)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	// the server exists to serve history, so runs it starts are always recorded
	cfg.Storage.Record = true
	logger.SetLevel(cfg.LogLevel())

	h, err := harness.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to create harness: %v", err)
	}
	defer h.Close()

	server := NewServer(h, &ServerConfig{
		Port:           port,
		DBPath:         cfg.Storage.DBPath,
		CatalogPath:    cfg.Harness.Catalog,
		DefaultSets:    cfg.Harness.Sets,
		AllowedOrigins: origins,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
