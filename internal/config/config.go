package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"recimpact/internal/causal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration. Relative dataset paths are
// resolved against DATA_PATH at load time.
type AppConfig struct {
	DatasetA            string
	DatasetB            string
	MaxShownRecs        int
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	maxShown, err := strconv.Atoi(getEnv("RECIMPACT_MAX_SHOWN_RECS", strconv.Itoa(causal.DefaultMaxShownRecs)))
	if err != nil {
		return nil, fmt.Errorf("invalid RECIMPACT_MAX_SHOWN_RECS: %w", err)
	}
	if maxShown < 1 {
		return nil, fmt.Errorf("invalid RECIMPACT_MAX_SHOWN_RECS %d: %w", maxShown, causal.ErrInvalidCutoff)
	}

	cfg := &AppConfig{
		DatasetA:            resolve(dataPath, getEnv("DATASET_A", filepath.Join("datasets", "user_app_visits_A.csv"))),
		DatasetB:            resolve(dataPath, getEnv("DATASET_B", filepath.Join("datasets", "user_app_visits_B.csv"))),
		MaxShownRecs:        maxShown,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	return cfg, nil
}

// ResolveDataset maps the "A"/"B" aliases to the configured paths; anything else is a path.
func (c *AppConfig) ResolveDataset(name string) string {
	switch strings.ToUpper(name) {
	case "A":
		return c.DatasetA
	case "B":
		return c.DatasetB
	}
	return name
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
