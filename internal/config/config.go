package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/garnizeh/intake/internal/validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is only accepted when INTAKE_ENV=development.
const DefaultJWTSecret = "supersecretkey"

type Config struct {
	Addr          string          `yaml:"addr" validate:"required"`
	JWTSecret     string          `yaml:"jwt_secret" validate:"required"`
	APITimeout    time.Duration   `yaml:"timeout" validate:"gt=0"`
	DatabasePath  string          `yaml:"database_path" validate:"required"`
	TokenDuration time.Duration   `yaml:"token_duration" validate:"gt=0"`
	Upload        UploadConfig    `yaml:"upload"`
	Workers       WorkerConfig    `yaml:"workers"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	Log           LogConfig       `yaml:"log"`
}

type UploadConfig struct {
	MaxBytes          int64         `yaml:"max_bytes" validate:"gte=0"`
	AllowedExtensions []string      `yaml:"allowed_extensions" validate:"dive,required"`
	Dir               string        `yaml:"dir" validate:"required"`
	PublicBaseURL     string        `yaml:"public_base_url" validate:"required,url"`
	OrphanRetention   time.Duration `yaml:"orphan_retention" validate:"gte=0"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count" validate:"gte=0"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0"`
}

type RateLimitConfig struct {
	PerMinute  int  `yaml:"per_minute" validate:"gte=0"`
	Burst      int  `yaml:"burst" validate:"gte=0"`
	TrustProxy bool `yaml:"trust_proxy"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text tint"`
}

// LoadConfig reads an optional .env file, then environment variables, then
// the YAML file at path when one is given.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Addr:          getEnv("INTAKE_ADDR", ":8080"),
		JWTSecret:     getEnv("INTAKE_JWT_SECRET", DefaultJWTSecret),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("INTAKE_DATABASE_PATH", "intake.db"),
		TokenDuration: 8 * time.Hour,
		Upload: UploadConfig{
			MaxBytes:          10 << 20,
			AllowedExtensions: splitList(getEnv("INTAKE_UPLOAD_EXTENSIONS", "pdf,jpg,jpeg,png")),
			Dir:               getEnv("INTAKE_UPLOAD_DIR", "uploads"),
			PublicBaseURL:     getEnv("INTAKE_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			OrphanRetention:   24 * time.Hour,
		},
		Workers: WorkerConfig{Count: 2, PollInterval: 5 * time.Second},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("INTAKE_RATE_PER_MINUTE", 10),
			Burst:     getEnvInt("INTAKE_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  getEnv("INTAKE_LOG_LEVEL", "info"),
			Format: getEnv("INTAKE_LOG_FORMAT", "json"),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate fills zero values with defaults, checks field rules and refuses
// the built-in JWT secret outside development.
func (c *Config) Validate() error {
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 10 << 20
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{"pdf", "jpg", "jpeg", "png"}
	}
	if c.Upload.OrphanRetention == 0 {
		c.Upload.OrphanRetention = 24 * time.Hour
	}
	if c.Workers.Count == 0 {
		c.Workers.Count = 2
	}
	if c.Workers.PollInterval == 0 {
		c.Workers.PollInterval = 5 * time.Second
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 10
	}

	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.JWTSecret == DefaultJWTSecret && os.Getenv("INTAKE_ENV") != "development" {
		return errors.New("invalid config: jwt_secret is the built-in default; set INTAKE_JWT_SECRET or INTAKE_ENV=development")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
