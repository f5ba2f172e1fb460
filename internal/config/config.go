package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Reasoning ReasoningConfig
	Pipeline  PipelineConfig
	S3        S3Config
}

// ProviderConfig holds settings for a single reasoning backend provider.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	Endpoint     string `mapstructure:"endpoint"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ReasoningConfig holds the language model backends, tried in order.
type ReasoningConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	// Client-side request rate limit shared by all providers. Zero disables it.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Providers returns the configured providers in fallback order.
func (r *ReasoningConfig) Providers() []*ProviderConfig {
	var out []*ProviderConfig
	for _, p := range []*ProviderConfig{&r.Primary, &r.Secondary, &r.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// PipelineConfig holds settings for the extraction/interpretation/Q&A pipeline.
type PipelineConfig struct {
	MaxRetries    int           `mapstructure:"max_retries"`
	BackoffBase   time.Duration `mapstructure:"backoff_base"`
	HistoryLimit  int           `mapstructure:"history_limit"`
	MaxDocumentMB int64         `mapstructure:"max_document_mb"`
}

// MaxDocumentBytes returns the document size limit in bytes.
func (p *PipelineConfig) MaxDocumentBytes() int64 {
	return p.MaxDocumentMB * 1024 * 1024
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// S3Config holds AWS S3 settings for importing documents.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from a .env file (if present) and environment
// variables with the LABASSIST_ prefix.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("LABASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Reasoning defaults
	v.SetDefault("reasoning.primary.provider", "gemini")
	v.SetDefault("reasoning.primary.api_key", "")
	v.SetDefault("reasoning.primary.default_model", "")
	v.SetDefault("reasoning.primary.endpoint", "")
	v.SetDefault("reasoning.primary.timeout_secs", 120)
	v.SetDefault("reasoning.secondary.provider", "")
	v.SetDefault("reasoning.secondary.api_key", "")
	v.SetDefault("reasoning.secondary.default_model", "")
	v.SetDefault("reasoning.secondary.endpoint", "")
	v.SetDefault("reasoning.secondary.timeout_secs", 120)
	v.SetDefault("reasoning.tertiary.provider", "")
	v.SetDefault("reasoning.tertiary.api_key", "")
	v.SetDefault("reasoning.tertiary.default_model", "")
	v.SetDefault("reasoning.tertiary.endpoint", "")
	v.SetDefault("reasoning.tertiary.timeout_secs", 120)
	v.SetDefault("reasoning.requests_per_second", 0)
	v.SetDefault("reasoning.burst", 1)

	// Pipeline defaults
	v.SetDefault("pipeline.max_retries", 2)
	v.SetDefault("pipeline.backoff_base", "1s")
	v.SetDefault("pipeline.history_limit", 10)
	v.SetDefault("pipeline.max_document_mb", 20)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "LABASSIST_SERVER_PORT",
		"server.read_timeout":               "LABASSIST_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "LABASSIST_SERVER_WRITE_TIMEOUT",
		"server.environment":                "LABASSIST_SERVER_ENVIRONMENT",
		"server.cors_origins":               "LABASSIST_SERVER_CORS_ORIGINS",
		"log.level":                         "LABASSIST_LOG_LEVEL",
		"log.format":                        "LABASSIST_LOG_FORMAT",
		"reasoning.primary.provider":        "LABASSIST_REASONING_PRIMARY_PROVIDER",
		"reasoning.primary.api_key":         "LABASSIST_REASONING_PRIMARY_API_KEY",
		"reasoning.primary.default_model":   "LABASSIST_REASONING_PRIMARY_DEFAULT_MODEL",
		"reasoning.primary.endpoint":        "LABASSIST_REASONING_PRIMARY_ENDPOINT",
		"reasoning.primary.timeout_secs":    "LABASSIST_REASONING_PRIMARY_TIMEOUT_SECS",
		"reasoning.secondary.provider":      "LABASSIST_REASONING_SECONDARY_PROVIDER",
		"reasoning.secondary.api_key":       "LABASSIST_REASONING_SECONDARY_API_KEY",
		"reasoning.secondary.default_model": "LABASSIST_REASONING_SECONDARY_DEFAULT_MODEL",
		"reasoning.secondary.endpoint":      "LABASSIST_REASONING_SECONDARY_ENDPOINT",
		"reasoning.secondary.timeout_secs":  "LABASSIST_REASONING_SECONDARY_TIMEOUT_SECS",
		"reasoning.tertiary.provider":       "LABASSIST_REASONING_TERTIARY_PROVIDER",
		"reasoning.tertiary.api_key":        "LABASSIST_REASONING_TERTIARY_API_KEY",
		"reasoning.tertiary.default_model":  "LABASSIST_REASONING_TERTIARY_DEFAULT_MODEL",
		"reasoning.tertiary.endpoint":       "LABASSIST_REASONING_TERTIARY_ENDPOINT",
		"reasoning.tertiary.timeout_secs":   "LABASSIST_REASONING_TERTIARY_TIMEOUT_SECS",
		"reasoning.requests_per_second":     "LABASSIST_REASONING_REQUESTS_PER_SECOND",
		"reasoning.burst":                   "LABASSIST_REASONING_BURST",
		"pipeline.max_retries":              "LABASSIST_PIPELINE_MAX_RETRIES",
		"pipeline.backoff_base":             "LABASSIST_PIPELINE_BACKOFF_BASE",
		"pipeline.history_limit":            "LABASSIST_PIPELINE_HISTORY_LIMIT",
		"pipeline.max_document_mb":          "LABASSIST_PIPELINE_MAX_DOCUMENT_MB",
		"s3.region":                         "LABASSIST_S3_REGION",
		"s3.bucket":                         "LABASSIST_S3_BUCKET",
		"s3.endpoint":                       "LABASSIST_S3_ENDPOINT",
		"s3.access_key":                     "LABASSIST_S3_ACCESS_KEY",
		"s3.secret_key":                     "LABASSIST_S3_SECRET_KEY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if LABASSIST_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LABASSIST_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetStringSlice("server.cors_origins")),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Reasoning = ReasoningConfig{
		Primary:           providerConfig(v, "reasoning.primary"),
		Secondary:         providerConfig(v, "reasoning.secondary"),
		Tertiary:          providerConfig(v, "reasoning.tertiary"),
		RequestsPerSecond: v.GetFloat64("reasoning.requests_per_second"),
		Burst:             v.GetInt("reasoning.burst"),
	}
	cfg.Pipeline = PipelineConfig{
		MaxRetries:    v.GetInt("pipeline.max_retries"),
		BackoffBase:   v.GetDuration("pipeline.backoff_base"),
		HistoryLimit:  v.GetInt("pipeline.history_limit"),
		MaxDocumentMB: v.GetInt64("pipeline.max_document_mb"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		Endpoint:     v.GetString(prefix + ".endpoint"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList flattens comma-separated entries, since env values arrive as one string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
