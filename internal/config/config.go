package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the client configuration.
type Config struct {
	BaseURL       string          `mapstructure:"base_url"`
	Timeout       time.Duration   `mapstructure:"timeout"`
	RateLimit     float64         `mapstructure:"rate_limit"`
	Burst         int             `mapstructure:"burst"`
	SessionCookie string          `mapstructure:"session_cookie"`
	AssumeYes     bool            `mapstructure:"assume_yes"`
	Timezone      string          `mapstructure:"timezone"`
	CheckImages   bool            `mapstructure:"check_images"`
	MaxBodyBytes  int64           `mapstructure:"max_body_bytes"`
	Log           LogConfig       `mapstructure:"log"`
	Telemetry     TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

const (
	DefaultBaseURL = "http://localhost:5000"
	envPrefix      = "BOOKBANK"
	configName     = "bookbank"
)

// SetDefaults registers every key so that environment variables are picked up
// by Unmarshal even without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("burst", 1)
	v.SetDefault("session_cookie", "")
	v.SetDefault("assume_yes", false)
	v.SetDefault("timezone", "Local")
	v.SetDefault("check_images", false)
	v.SetDefault("max_body_bytes", int64(16<<20))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "bookbank")
}

// New returns a viper instance with defaults and BOOKBANK_* environment support.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file when given, otherwise bookbank.yaml from the usual places.
// A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(filepath.Join("$HOME", ".config", "bookbank"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative, got %d", c.MaxBodyBytes)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
