// Package config loads service configuration from the environment and an
// optional config file.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port            string        `mapstructure:"APP_PORT"`
	UpstreamBaseURL string        `mapstructure:"UPSTREAM_BASE_URL"`
	TempleID        string        `mapstructure:"TEMPLE_ID"`
	APIToken        string        `mapstructure:"API_TOKEN"` // fallback bearer token
	WebhookURL      string        `mapstructure:"SLACK_WEBHOOK_URL"`
	DashboardURL    string        `mapstructure:"APP_URL"` // linked in notification footers
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
}

// Load reads config.yaml if present and overlays environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("UPSTREAM_BASE_URL", "https://online.srjbtkshetra.org/api/v1")
	v.SetDefault("TEMPLE_ID", "100001")
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("SLACK_WEBHOOK_URL", "")
	v.SetDefault("APP_URL", "")
	v.SetDefault("UPSTREAM_TIMEOUT", 30*time.Second)

	// A missing config file is fine; environment variables cover everything.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
