// Package config содержит логику чтения конфигурации сервиса bizdesk.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultTaxRate        = "18"
	defaultSearchCacheTTL = 30 * time.Second
	defaultRefreshEvery   = time.Minute
)

// Config содержит параметры конфигурации сервиса bizdesk.
type Config struct {
	RunAddress            string        `env:"RUN_ADDRESS"`
	DatabaseURI           string        `env:"DATABASE_URI"`
	RedisAddress          string        `env:"REDIS_ADDRESS"`
	DefaultTaxRate        string        `env:"DEFAULT_TAX_RATE"`
	SearchCacheTTL        time.Duration `env:"SEARCH_CACHE_TTL"`
	StatusRefreshInterval time.Duration `env:"STATUS_REFRESH_INTERVAL"`
}

// TaxRate возвращает ставку налога по умолчанию в виде десятичного числа.
func (c *Config) TaxRate() decimal.Decimal {
	return decimal.RequireFromString(c.DefaultTaxRate)
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for the search cache")
	flag.StringVar(&cfg.DefaultTaxRate, "t", defaultTaxRate, "default tax rate, percent")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.RedisAddress != "" {
		cfg.RedisAddress = envCfg.RedisAddress
	}
	if envCfg.DefaultTaxRate != "" {
		cfg.DefaultTaxRate = envCfg.DefaultTaxRate
	}
	cfg.SearchCacheTTL = envCfg.SearchCacheTTL
	cfg.StatusRefreshInterval = envCfg.StatusRefreshInterval

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.DefaultTaxRate == "" {
		cfg.DefaultTaxRate = defaultTaxRate
	}
	if cfg.SearchCacheTTL <= 0 {
		cfg.SearchCacheTTL = defaultSearchCacheTTL
	}
	if cfg.StatusRefreshInterval <= 0 {
		cfg.StatusRefreshInterval = defaultRefreshEvery
	}

	rate, err := decimal.NewFromString(cfg.DefaultTaxRate)
	if err != nil {
		return nil, fmt.Errorf("parse default tax rate %q: %w", cfg.DefaultTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("default tax rate %s out of range 0..100", cfg.DefaultTaxRate)
	}

	return cfg, nil
}
