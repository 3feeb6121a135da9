package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/intake/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Addr:          ":8080",
		JWTSecret:     "strongsecret",
		APITimeout:    5 * time.Second,
		DatabasePath:  "intake.db",
		TokenDuration: 1 * time.Hour,
		Upload: config.UploadConfig{
			Dir:           "uploads",
			PublicBaseURL: "http://localhost:8080/uploads",
		},
	}
}

func TestValidate_InsecureJWT_FailsWhenNotDevelopment(t *testing.T) {
	t.Setenv("INTAKE_ENV", "production")

	cfg := validConfig()
	cfg.JWTSecret = config.DefaultJWTSecret

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	t.Setenv("INTAKE_ENV", "development")

	cfg := validConfig()
	cfg.JWTSecret = config.DefaultJWTSecret

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_DefaultsPopulated(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}

	if cfg.Upload.MaxBytes != 10<<20 {
		t.Fatalf("expected 10 MiB upload limit, got %d", cfg.Upload.MaxBytes)
	}
	if strings.Join(cfg.Upload.AllowedExtensions, ",") != "pdf,jpg,jpeg,png" {
		t.Fatalf("unexpected extensions: %v", cfg.Upload.AllowedExtensions)
	}
	if cfg.Upload.OrphanRetention <= 0 {
		t.Fatalf("expected orphan retention default")
	}
	if cfg.Workers.Count == 0 || cfg.Workers.PollInterval <= 0 {
		t.Fatalf("expected worker defaults, got %+v", cfg.Workers)
	}
	if cfg.RateLimit.PerMinute == 0 {
		t.Fatalf("expected rate limit default")
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := map[string]func(c *config.Config){
		"missing addr":       func(c *config.Config) { c.Addr = "" },
		"zero timeout":       func(c *config.Config) { c.APITimeout = 0 },
		"bad public url":     func(c *config.Config) { c.Upload.PublicBaseURL = "uploads" },
		"missing upload dir": func(c *config.Config) { c.Upload.Dir = "" },
		"bad log format":     func(c *config.Config) { c.Log.Format = "xml" },
		"bad log level":      func(c *config.Config) { c.Log.Level = "chatty" },
		"empty extension":    func(c *config.Config) { c.Upload.AllowedExtensions = []string{"pdf", ""} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure environment does not interfere
	for _, k := range []string{"INTAKE_ADDR", "INTAKE_JWT_SECRET", "INTAKE_DATABASE_PATH", "INTAKE_UPLOAD_DIR", "INTAKE_PUBLIC_BASE_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.JWTSecret != config.DefaultJWTSecret {
		t.Fatalf("unexpected JWTSecret: got %q", cfg.JWTSecret)
	}
	if cfg.DatabasePath != "intake.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "intake.db")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Fatalf("unexpected upload limit: %d", cfg.Upload.MaxBytes)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("INTAKE_ADDR", ":7070")
	t.Setenv("INTAKE_UPLOAD_EXTENSIONS", "pdf, dxf")
	t.Setenv("INTAKE_RATE_PER_MINUTE", "30")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("unexpected Addr: %q", cfg.Addr)
	}
	if strings.Join(cfg.Upload.AllowedExtensions, ",") != "pdf,dxf" {
		t.Fatalf("unexpected extensions: %v", cfg.Upload.AllowedExtensions)
	}
	if cfg.RateLimit.PerMinute != 30 {
		t.Fatalf("unexpected rate: %d", cfg.RateLimit.PerMinute)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`addr: ":9090"
jwt_secret: "filekey"
timeout: "30s"
database_path: "test.db"
token_duration: "2h"
upload:
  max_bytes: 5242880
  allowed_extensions: [pdf]
  dir: /var/lib/intake/uploads
  public_base_url: https://example.com/uploads
  orphan_retention: 48h
workers:
  count: 4
  poll_interval: 2s
log:
  format: tint
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" || cfg.JWTSecret != "filekey" || cfg.DatabasePath != "test.db" {
		t.Fatalf("unexpected top-level values: %+v", cfg)
	}
	if cfg.APITimeout != 30*time.Second || cfg.TokenDuration != 2*time.Hour {
		t.Fatalf("unexpected durations: %v %v", cfg.APITimeout, cfg.TokenDuration)
	}
	if cfg.Upload.MaxBytes != 5<<20 || len(cfg.Upload.AllowedExtensions) != 1 || cfg.Upload.OrphanRetention != 48*time.Hour {
		t.Fatalf("unexpected upload section: %+v", cfg.Upload)
	}
	if cfg.Workers.Count != 4 || cfg.Workers.PollInterval != 2*time.Second {
		t.Fatalf("unexpected workers section: %+v", cfg.Workers)
	}
	if cfg.Log.Format != "tint" {
		t.Fatalf("unexpected log format: %q", cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("file config should validate: %v", err)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(path); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}
