// Package config defines process configuration for the simulator and the
// hooks that load it.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/tbsim/internal/engine"
	"github.com/okian/tbsim/internal/scenario"
)

// Config contains process configuration. Simulation fields left at zero
// defer to the selected scenario preset.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Listen, if non-empty, serves Prometheus metrics on this address.
	Listen string `koanf:"listen"`

	// Scenario names the preset the run starts from.
	Scenario string `koanf:"scenario"`

	// Simulation overrides on top of the scenario preset.
	Population          float64 `koanf:"population"`
	DurationDays        int     `koanf:"duration_days"`
	TimeStep            float64 `koanf:"time_step"`
	InitialInfected     float64 `koanf:"initial_infected"`
	InitialLatent       float64 `koanf:"initial_latent"`
	ImportedCasesPerDay float64 `koanf:"imported_cases_per_day"`

	// HistoryLimit and MaxEvents bound the engine's retained state.
	HistoryLimit int `koanf:"history_limit"`
	MaxEvents    int `koanf:"max_events"`

	// Workers sets the batch runner's concurrency.
	Workers int `koanf:"workers"`
}

// New creates a Config using defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:     "info",
		Scenario:     "baseline",
		HistoryLimit: 5000,
		MaxEvents:    1000,
		Workers:      runtime.NumCPU(),
	}
}

// EngineConfig resolves the scenario preset and applies any non-zero
// overrides, yielding the configuration an engine is built from.
func (c *Config) EngineConfig(_ context.Context) (engine.Config, error) {
	preset, err := scenario.Get(c.Scenario)
	if err != nil {
		return engine.Config{}, fmt.Errorf("%w: scenario %q", ErrInvalidConfig, c.Scenario)
	}

	ec := preset.Config
	if c.Population > 0 {
		ec.Population = c.Population
	}
	if c.DurationDays > 0 {
		ec.DurationDays = c.DurationDays
	}
	if c.TimeStep > 0 {
		ec.TimeStep = c.TimeStep
	}
	if c.InitialInfected > 0 {
		ec.InitialInfected = c.InitialInfected
	}
	if c.InitialLatent > 0 {
		ec.InitialLatent = c.InitialLatent
	}
	if c.ImportedCasesPerDay > 0 {
		ec.ImportedCasesPerDay = c.ImportedCasesPerDay
	}
	return ec, nil
}
