// Package config loads runtime settings from the environment (optionally
// seeded from a .env file) and configures the global zerolog logger.
package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scenario-engine/pkg/platform"
)

// Config is the settings shared by the server and the CLI.
type Config struct {
	Env         string
	LogLevel    string
	Port        int
	StoreKind   string
	DSN         string
	APIKey      string
	PoliciesDir string
	SaveTimeout time.Duration
	CORSOrigins []string
}

// LoadEnv reads the given .env files (".env" when none are given). A missing
// file is not an error; real environment variables always win.
func LoadEnv(files ...string) bool {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Strs("files", files).Msg("no .env file found, using system environment")
		return false
	}
	log.Debug().Strs("files", files).Msg("loaded environment from .env")
	return true
}

// FromEnv builds a Config from SCENARIO_* variables.
func FromEnv() *Config {
	return &Config{
		Env:         platform.GetEnv("ENV", "production"),
		LogLevel:    platform.GetEnv("LOG_LEVEL", "info"),
		Port:        platform.GetEnvInt("PORT", 8080),
		StoreKind:   platform.GetEnv("SCENARIO_STORE", "sqlite"),
		DSN:         platform.GetEnv("SCENARIO_DSN", "scenarios.db"),
		APIKey:      platform.GetEnv("SCENARIO_API_KEY", ""),
		PoliciesDir: platform.GetEnv("POLICIES_DIR", ""),
		SaveTimeout: platform.GetEnvDuration("SCENARIO_SAVE_TIMEOUT", 10*time.Second),
		CORSOrigins: platform.GetEnvList("CORS_ORIGINS", []string{"*"}),
	}
}

// IsDevelopment reports whether human-readable logs should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// SetupLogger configures the global logger. Development gets a console
// writer on w; everything else gets JSON with unix timestamps.
func SetupLogger(env, level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}
	return log.Logger
}
