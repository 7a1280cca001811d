package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "SCENARIO_STORE", "SCENARIO_DSN", "SCENARIO_SAVE_TIMEOUT", "CORS_ORIGINS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg := FromEnv()
	if cfg.Port != 8080 || cfg.StoreKind != "sqlite" || cfg.DSN != "scenarios.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SaveTimeout != 10*time.Second {
		t.Fatalf("SaveTimeout = %v", cfg.SaveTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.IsDevelopment() {
		t.Fatal("default env should not be development")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("SCENARIO_STORE", "postgres")
	t.Setenv("SCENARIO_SAVE_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ENV", "development")

	cfg := FromEnv()
	if cfg.Port != 9191 || cfg.StoreKind != "postgres" || cfg.SaveTimeout != 3*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("SCENARIO_TEST_FROM_FILE=yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCENARIO_TEST_FROM_FILE", "")
	os.Unsetenv("SCENARIO_TEST_FROM_FILE")

	if !LoadEnv(path) {
		t.Fatal("LoadEnv returned false for existing file")
	}
	if got := os.Getenv("SCENARIO_TEST_FROM_FILE"); got != "yes" {
		t.Fatalf("SCENARIO_TEST_FROM_FILE = %q", got)
	}
	if LoadEnv(filepath.Join(t.TempDir(), "missing.env")) {
		t.Fatal("LoadEnv returned true for missing file")
	}
}

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	prev := log.Logger
	defer func() { log.Logger = prev }()

	var buf bytes.Buffer
	SetupLogger("production", "warn", &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"message":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
