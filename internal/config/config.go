package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir     string        `mapstructure:"MIGRATIONS_DIR"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	AuthSigningKey    string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer        string        `mapstructure:"AUTH_ISSUER"`
	ClassifierURL     string        `mapstructure:"CLASSIFIER_URL"`
	ClassifierTimeout time.Duration `mapstructure:"CLASSIFIER_TIMEOUT"`
	CatalogFile       string        `mapstructure:"CATALOG_FILE"`
	KafkaBrokers      []string      `mapstructure:"KAFKA_BROKERS"`
	AlertTopic        string        `mapstructure:"ALERT_TOPIC"`
	OTelEnabled       bool          `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint      string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplerRatio  float64       `mapstructure:"OTEL_SAMPLER_RATIO"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	AnalysisBodyLimit string        `mapstructure:"ANALYSIS_BODY_LIMIT"`
	AnalysisRateRPS   float64       `mapstructure:"ANALYSIS_RATE_RPS"`
	AnalysisRateBurst int           `mapstructure:"ANALYSIS_RATE_BURST"`
}

const DefaultClassifierURL = "https://smartdent-ai.onrender.com/analisar-uso"

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
	"CORS_ORIGINS", "AUTH_SIGNING_KEY", "AUTH_ISSUER",
	"CLASSIFIER_URL", "CLASSIFIER_TIMEOUT", "CATALOG_FILE",
	"KAFKA_BROKERS", "ALERT_TOPIC",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLER_RATIO",
	"REQUEST_TIMEOUT", "BODY_LIMIT", "ANALYSIS_BODY_LIMIT",
	"ANALYSIS_RATE_RPS", "ANALYSIS_RATE_BURST",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("AUTH_ISSUER", "smartdent")
	v.SetDefault("CLASSIFIER_URL", DefaultClassifierURL)
	v.SetDefault("CLASSIFIER_TIMEOUT", "60s")
	v.SetDefault("ALERT_TOPIC", "smartdent.alerts")
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("ANALYSIS_BODY_LIMIT", "5M")
	v.SetDefault("ANALYSIS_RATE_RPS", 0.5)
	v.SetDefault("ANALYSIS_RATE_BURST", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// PublicURL is the base URL advertised in the API document.
func (c *Config) PublicURL() string {
	return "http://localhost:" + c.Port
}

// EventsEnabled reports whether alert events should go to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Validate refuses configurations that would run without authentication
// or with unusable classifier settings.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.ClassifierURL == "" {
		return fmt.Errorf("CLASSIFIER_URL must not be empty")
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive, got %s", c.ClassifierTimeout)
	}
	if c.OTelSamplerRatio < 0 || c.OTelSamplerRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLER_RATIO must be within [0, 1], got %v", c.OTelSamplerRatio)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.AnalysisRateRPS <= 0 || c.AnalysisRateBurst <= 0 {
		return fmt.Errorf("ANALYSIS_RATE_RPS and ANALYSIS_RATE_BURST must be positive")
	}
	if c.EventsEnabled() && c.AlertTopic == "" {
		return fmt.Errorf("ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
