// internal/config/config.go
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	DBURL                string        `mapstructure:"DB_URL"`
	ListenAddr           string        `mapstructure:"LISTEN_ADDR"`
	GithubAPIURL         string        `mapstructure:"GITHUB_API_URL"`
	WorkflowCacheTTL     time.Duration `mapstructure:"WORKFLOW_CACHE_TTL"`
	DashboardConcurrency int           `mapstructure:"DASHBOARD_CONCURRENCY"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout      time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MigrationsURL        string        `mapstructure:"MIGRATIONS_URL"`
	SessionCookieName    string        `mapstructure:"SESSION_COOKIE_NAME"`
	GithubBaseURL        *url.URL      `mapstructure:"-"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_URL", "")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	v.SetDefault("WORKFLOW_CACHE_TTL", "5m")
	v.SetDefault("DASHBOARD_CONCURRENCY", 5)
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MIGRATIONS_URL", "file://migrations")
	v.SetDefault("SESSION_COOKIE_NAME", "next-auth.session-token")

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.WorkflowCacheTTL <= 0 {
		return nil, errors.New("WORKFLOW_CACHE_TTL must be a positive duration")
	}
	if cfg.DashboardConcurrency < 1 {
		return nil, errors.New("DASHBOARD_CONCURRENCY must be at least 1")
	}

	// go-github resolves request paths relative to the base URL, so it must end in a slash.
	apiURL := cfg.GithubAPIURL
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("GITHUB_API_URL must be an absolute URL (e.g. https://api.github.com/)")
	}
	cfg.GithubBaseURL = u

	return &cfg, nil
}
