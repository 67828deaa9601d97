package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LoadConfig loads and validates the configuration file.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults fills zero values with sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 18080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./database/app.db"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.Algorithm == "" {
		cfg.Auth.Algorithm = "HS256"
	}
	if cfg.Auth.ExpireMinutes == 0 {
		cfg.Auth.ExpireMinutes = 1440
	}
	if cfg.Auth.Evaluator.Username == "" {
		cfg.Auth.Evaluator.Username = "evaluator"
	}
	if cfg.CORS.AllowMethods == nil {
		cfg.CORS.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if cfg.CORS.AllowHeaders == nil {
		cfg.CORS.AllowHeaders = []string{"*"}
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.7
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 500
	}
	if cfg.Generation.MaxRetries == 0 {
		cfg.Generation.MaxRetries = 3
	}
	if cfg.Generation.BackoffBaseMS == 0 {
		cfg.Generation.BackoffBaseMS = 500
	}
	if cfg.Generation.BackoffMaxMS == 0 {
		cfg.Generation.BackoffMaxMS = 8000
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	// The stub provider is always available so a fresh checkout can run
	// a full experiment offline.
	if _, ok := cfg.Providers["stub"]; !ok {
		cfg.Providers["stub"] = ProviderConfig{Model: "stub-1"}
	}
	for name, pc := range cfg.Providers {
		if pc.MaxConcurrent == 0 {
			pc.MaxConcurrent = 2
		}
		if pc.TimeoutSeconds == 0 {
			pc.TimeoutSeconds = 60
		}
		cfg.Providers[name] = pc
	}
}

// validateConfig rejects configurations the server cannot run with.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("auth secret_key must not be empty")
	}

	if cfg.Auth.Evaluator.Password == "" {
		return fmt.Errorf("evaluator password must not be empty")
	}

	for name, pc := range cfg.Providers {
		if name != "stub" && pc.Model == "" {
			return fmt.Errorf("provider %s: model must not be empty", name)
		}
	}

	dbDir := filepath.Dir(cfg.Database.Path)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	return nil
}
