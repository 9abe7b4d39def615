package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`
	CORSOrigins     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	// Remote project table. Sync stays disabled unless both are set to real values.
	RemoteURL  string `mapstructure:"REMOTE_URL"`
	RemoteKey  string `mapstructure:"REMOTE_KEY"`
	ChangeFeed string `mapstructure:"CHANGE_FEED" validate:"required,oneof=postgres redis"`

	MirrorPath string `mapstructure:"MIRROR_PATH" validate:"required"`
	MirrorSlot string `mapstructure:"MIRROR_SLOT" validate:"required"`

	// Slot opened by the worker. Must differ from MirrorSlot.
	WorkerMirrorSlot string `mapstructure:"WORKER_MIRROR_SLOT" validate:"required,nefield=MirrorSlot"`

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AsynqConcurrency int `mapstructure:"ASYNQ_CONCURRENCY" validate:"gte=1,lte=1000"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`

	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	BlueprintModel    string        `mapstructure:"BLUEPRINT_MODEL" validate:"required"`
	BlueprintTimeout  time.Duration `mapstructure:"BLUEPRINT_TIMEOUT" validate:"required"`
	BlueprintCacheTTL time.Duration `mapstructure:"BLUEPRINT_CACHE_TTL"`

	VaultKey string `mapstructure:"VAULT_KEY" validate:"omitempty,base64"`

	ExpertReplyDelay  time.Duration `mapstructure:"EXPERT_REPLY_DELAY" validate:"required"`
	ReconcileSchedule string        `mapstructure:"RECONCILE_SCHEDULE"`
}

var (
	cfg      *Config
	validate = validator.New(validator.WithRequiredStructEnabled())
)

var durationKeys = []string{
	"SHUTDOWN_TIMEOUT",
	"BLUEPRINT_TIMEOUT",
	"BLUEPRINT_CACHE_TTL",
	"EXPERT_REPLY_DELAY",
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	// Load .env if present (non-fatal)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CHANGE_FEED", "postgres")
	v.SetDefault("MIRROR_PATH", "shipit.db")
	v.SetDefault("MIRROR_SLOT", "shipit_projects")
	v.SetDefault("WORKER_MIRROR_SLOT", "shipit_projects_worker")
	v.SetDefault("ASYNQ_CONCURRENCY", 10)
	v.SetDefault("GOMAXPROCS", 0)
	v.SetDefault("BLUEPRINT_MODEL", "gemini-2.5-pro")
	v.SetDefault("BLUEPRINT_TIMEOUT", "20s")
	v.SetDefault("BLUEPRINT_CACHE_TTL", "24h")
	v.SetDefault("EXPERT_REPLY_DELAY", "2500ms")
	v.SetDefault("RECONCILE_SCHEDULE", "@every 5m")

	// Optional config file
	_ = v.ReadInConfig()

	keys := []string{
		"APP_ENV",
		"HTTP_ADDR",
		"SHUTDOWN_TIMEOUT",
		"CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"REMOTE_URL",
		"REMOTE_KEY",
		"CHANGE_FEED",
		"MIRROR_PATH",
		"MIRROR_SLOT",
		"WORKER_MIRROR_SLOT",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"ASYNQ_CONCURRENCY",
		"GOMAXPROCS",
		"GEMINI_API_KEY",
		"BLUEPRINT_MODEL",
		"BLUEPRINT_TIMEOUT",
		"BLUEPRINT_CACHE_TTL",
		"VAULT_KEY",
		"EXPERT_REPLY_DELAY",
		"RECONCILE_SCHEDULE",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	for _, key := range durationKeys {
		s := v.GetString(key)
		if s == "" {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		setDuration(&c, key, d)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	cfg = &c
	return cfg, nil
}

func setDuration(c *Config, key string, d time.Duration) {
	switch key {
	case "SHUTDOWN_TIMEOUT":
		c.ShutdownTimeout = d
	case "BLUEPRINT_TIMEOUT":
		c.BlueprintTimeout = d
	case "BLUEPRINT_CACHE_TTL":
		c.BlueprintCacheTTL = d
	case "EXPERT_REPLY_DELAY":
		c.ExpertReplyDelay = d
	}
}

var placeholderMarkers = []string{"your-project", "your_project", "placeholder", "changeme"}

// RemoteConfigured reports whether remote sync may be activated: both the
// endpoint and the access key must be present and neither may be a
// template placeholder.
func (c *Config) RemoteConfigured() bool {
	if c == nil {
		return false
	}
	url := strings.TrimSpace(c.RemoteURL)
	key := strings.TrimSpace(c.RemoteKey)
	if url == "" || key == "" {
		return false
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(strings.ToLower(url), marker) || strings.Contains(strings.ToLower(key), marker) {
			return false
		}
	}
	return true
}

// QueueConfigured reports whether a Redis broker is available for deferred work.
func (c *Config) QueueConfigured() bool {
	return c != nil && c.RedisAddr != ""
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas. Empty means any origin.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ForWorker returns a copy of c that opens the worker's mirror slot.
func (c *Config) ForWorker() *Config {
	w := *c
	w.MirrorSlot = c.WorkerMirrorSlot
	return &w
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}
