package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Postgres. Empty keeps documents and templates in memory.
	DatabaseURL   string
	RunMigrations bool

	// AI collaborator
	AIServiceURL string
	AILanguage   string

	// Headless Chrome used for PDF export and page measurement
	ChromePath     string
	RenderAttempts int

	// Export artifacts
	OutputDir string

	// Pagination
	PaginationDebounce    time.Duration
	PaginationTolerancePx float64
	PaginationMaxTicks    int

	BodyLimitBytes int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "3000"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RunMigrations: envBool("RUN_MIGRATIONS", true),

		AIServiceURL: envOr("AI_SERVICE_URL", "http://ai-service:8000"),
		AILanguage:   envOr("AI_LANGUAGE", "english"),

		ChromePath:     os.Getenv("CHROME_PATH"),
		RenderAttempts: envInt("RENDER_ATTEMPTS", 3),

		OutputDir: envOr("OUTPUT_DIR", "resume-data"),

		PaginationDebounce:    envDuration("PAGINATION_DEBOUNCE", 100*time.Millisecond),
		PaginationTolerancePx: envFloat("PAGINATION_TOLERANCE_PX", 2),
		PaginationMaxTicks:    envInt("PAGINATION_MAX_TICKS", 500),

		BodyLimitBytes: envInt("BODY_LIMIT_BYTES", 4<<20),
	}

	if cfg.RenderAttempts <= 0 {
		cfg.RenderAttempts = 3
	}
	if cfg.PaginationDebounce <= 0 {
		cfg.PaginationDebounce = 100 * time.Millisecond
	}
	if cfg.PaginationMaxTicks <= 0 {
		cfg.PaginationMaxTicks = 500
	}
	if cfg.BodyLimitBytes <= 0 {
		cfg.BodyLimitBytes = 4 << 20
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.PaginationTolerancePx < 0 {
		return fmt.Errorf("PAGINATION_TOLERANCE_PX must not be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
