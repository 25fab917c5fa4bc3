package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultServerAddress = "http://localhost:8080"
	defaultSearchTimeout = 5 * time.Second
	defaultDebounce      = 300 * time.Millisecond
)

// SearchConfig содержит параметры консольного клиента поиска.
type SearchConfig struct {
	ServerAddress string        `env:"BIZDESK_ADDRESS"`
	Timeout       time.Duration `env:"SEARCH_TIMEOUT"`
	Debounce      time.Duration `env:"SEARCH_DEBOUNCE"`
}

// ParseSearch считывает конфигурацию клиента поиска. Переменные окружения имеют приоритет над флагами.
func ParseSearch() (*SearchConfig, error) {
	cfg := &SearchConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.ServerAddress, "s", defaultServerAddress, "bizdesk server base URL")
	flag.DurationVar(&cfg.Timeout, "timeout", defaultSearchTimeout, "search request timeout")
	flag.DurationVar(&cfg.Debounce, "debounce", defaultDebounce, "pause in typing before a search is sent")

	flag.Parse()

	if envCfg.ServerAddress != "" {
		cfg.ServerAddress = envCfg.ServerAddress
	}
	if envCfg.Timeout > 0 {
		cfg.Timeout = envCfg.Timeout
	}
	if envCfg.Debounce > 0 {
		cfg.Debounce = envCfg.Debounce
	}

	if cfg.ServerAddress == "" {
		cfg.ServerAddress = defaultServerAddress
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSearchTimeout
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}

	return cfg, nil
}
