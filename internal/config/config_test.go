package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "CONFIG_FILE", "MAX_UPLOAD_BYTES", "RESULT_TTL_SECONDS", "NATS_SUBJECT", "POSTGRES_DSN", "MODEL_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxUploadBytes != 32<<20 {
		t.Fatalf("expected 32 MiB upload cap, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ResultTTLSeconds != 900 {
		t.Fatalf("expected default ttl 900, got %d", cfg.ResultTTLSeconds)
	}
	if cfg.NATSSubject != "screenings.completed" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("audit store must be disabled by default, got %q", cfg.PostgresDSN)
	}
	if cfg.ModelFile != "rf_parkinsons_v1.json" {
		t.Fatalf("unexpected model file %q", cfg.ModelFile)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t, "CONFIG_FILE")
	t.Setenv("API_MAX_IN_FLIGHT", "3")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("LOG_COMPRESS", "false")
	t.Setenv("RESULT_CACHE_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIMaxInFlight != 3 {
		t.Fatalf("expected max in flight 3, got %d", cfg.APIMaxInFlight)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.LogCompressOld {
		t.Fatalf("expected compression disabled")
	}
	if cfg.ResultCacheSize != 128 {
		t.Fatalf("invalid int must fall back to default, got %d", cfg.ResultCacheSize)
	}
}

func TestLoadFileIsOverriddenByEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screening.yaml")
	content := "artifact_dir: /srv/artifacts\nAPI_PORT: 9000\nresult_ttl_seconds: 60\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	clearEnv(t, "ARTIFACT_DIR", "RESULT_TTL_SECONDS")
	t.Setenv("API_PORT", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ArtifactDir != "/srv/artifacts" {
		t.Fatalf("expected artifact dir from file, got %q", cfg.ArtifactDir)
	}
	if cfg.ResultTTLSeconds != 60 {
		t.Fatalf("expected ttl from file, got %d", cfg.ResultTTLSeconds)
	}
	if cfg.APIPort != "7000" {
		t.Fatalf("env must win over file, got %q", cfg.APIPort)
	}
}

func TestLoadRejectsNestedFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("nats:\n  url: nats://x\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for nested value")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
