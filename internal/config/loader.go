package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// An empty path falls back to the TBSIM_CONFIG environment variable.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if a path is given or TBSIM_CONFIG is set
//  3. env (prefix TBSIM_)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("TBSIM_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TBSIM_SCENARIO, TBSIM_DURATION_DAYS, ...
	// Map env keys like TBSIM_DURATION_DAYS -> duration_days (flat keys).
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("TBSIM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tbsim_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy.
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation; the engine range-checks the disease parameters at
	// construction.
	if cfg.Scenario == "" {
		return nil, fmt.Errorf("%w: scenario must not be empty", ErrInvalidConfig)
	}
	if cfg.TimeStep < 0 || cfg.TimeStep > 1 {
		return nil, fmt.Errorf("%w: time_step must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
