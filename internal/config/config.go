// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/llm"
	"github.com/abhisek/quizly/internal/remote"
)

// Config is the application configuration shared by the CLI commands.
type Config struct {
	// Addr is the listen address for `serve`.
	Addr string

	// DBPath is the sqlite database path. Empty means store.DefaultDBPath.
	DBPath string

	// RedisURL enables the grade cache when set.
	RedisURL string

	// APIURL is the backend used by `take`.
	APIURL string

	// CORSOrigins lists allowed browser origins for `serve`.
	CORSOrigins []string

	GradeDebounce time.Duration

	// LogFormat is "text" or "json".
	LogFormat string
	LogLevel  slog.Level

	LLM llm.Config
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:          ":8000",
		APIURL:        remote.DefaultBaseURL,
		GradeDebounce: grading.DefaultDebounce,
		LogFormat:     "text",
		LogLevel:      slog.LevelInfo,
		LLM:           llm.DefaultConfig(),
	}
}

// Load reads the given .env files into the process environment, then builds
// a Config from QUIZLY_* variables. Named files must exist. With no names the
// optional ".env" in the working directory is read. Variables already set
// are never overridden.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
		return FromEnv()
	}

	if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from QUIZLY_* environment variables.
func FromEnv() (Config, error) {
	cfg := Default()

	setFromEnv(&cfg.Addr, "QUIZLY_ADDR")
	setFromEnv(&cfg.DBPath, "QUIZLY_DB")
	setFromEnv(&cfg.RedisURL, "QUIZLY_REDIS_URL")
	setFromEnv(&cfg.APIURL, "QUIZLY_API_URL")
	setFromEnv(&cfg.LogFormat, "QUIZLY_LOG_FORMAT")

	if v := os.Getenv("QUIZLY_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if v := os.Getenv("QUIZLY_GRADE_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("QUIZLY_GRADE_DEBOUNCE: %w", err)
		}
		cfg.GradeDebounce = d
	}

	if v := os.Getenv("QUIZLY_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("QUIZLY_LOG_LEVEL: %w", err)
		}
	}

	cfg.LLM = llm.ConfigFromEnv()
	return cfg, cfg.Validate()
}

// Validate checks the non-LLM settings. LLM credentials are checked when a
// provider is built, since only `serve` needs one.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.GradeDebounce <= 0 {
		return fmt.Errorf("grade debounce must be positive, got %s", c.GradeDebounce)
	}
	return nil
}

// NewLogger builds the process logger.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
