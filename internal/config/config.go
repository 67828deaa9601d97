package config

import (
	"fmt"
	"time"
)

// Config is the application configuration tree.
type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Database   DatabaseConfig            `mapstructure:"database"`
	Redis      RedisConfig               `mapstructure:"redis_service"`
	Auth       AuthConfig                `mapstructure:"auth"`
	CORS       CORSConfig                `mapstructure:"cors"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Generation GenerationConfig          `mapstructure:"generation"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

// GetAddress returns the host:port listen address.
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig optional Redis settings. An empty host disables Redis and
// the orchestrator falls back to in-process limits only.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// GetAddress returns the host:port Redis address.
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a Redis host was configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// AuthConfig JWT settings plus the bootstrap evaluator account.
type AuthConfig struct {
	SecretKey     string          `mapstructure:"secret_key"`
	Algorithm     string          `mapstructure:"algorithm"`
	ExpireMinutes int             `mapstructure:"expire_minutes"`
	Evaluator     EvaluatorConfig `mapstructure:"evaluator"`
}

// GetExpireDuration returns the token lifetime.
func (a *AuthConfig) GetExpireDuration() time.Duration {
	return time.Duration(a.ExpireMinutes) * time.Minute
}

// EvaluatorConfig bootstrap evaluator credentials.
type EvaluatorConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// ProviderConfig settings for one generation backend.
type ProviderConfig struct {
	APIBase        string        `mapstructure:"api_base"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Pricing        PricingConfig `mapstructure:"pricing"`
}

// GetTimeout returns the per-call HTTP timeout.
func (p *ProviderConfig) GetTimeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// PricingConfig per-1K-token rates in USD. Pricing is injected
// configuration, never hard-coded in the adapters.
type PricingConfig struct {
	InputPer1K  float64 `mapstructure:"input_per_1k"`
	OutputPer1K float64 `mapstructure:"output_per_1k"`
}

// GenerationConfig run parameters shared by all providers.
type GenerationConfig struct {
	Temperature   float64 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	MaxRetries    int     `mapstructure:"max_retries"`
	BackoffBaseMS int     `mapstructure:"backoff_base_ms"`
	BackoffMaxMS  int     `mapstructure:"backoff_max_ms"`
}

// GetBackoffBase returns the first retry delay.
func (g *GenerationConfig) GetBackoffBase() time.Duration {
	return time.Duration(g.BackoffBaseMS) * time.Millisecond
}

// GetBackoffMax returns the retry delay ceiling.
func (g *GenerationConfig) GetBackoffMax() time.Duration {
	return time.Duration(g.BackoffMaxMS) * time.Millisecond
}
