package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/config"
	"github.com/ziadkadry99/krishi-mitra/internal/credentials"
	"github.com/ziadkadry99/krishi-mitra/internal/flows"
	"github.com/ziadkadry99/krishi-mitra/internal/llm"
	"github.com/ziadkadry99/krishi-mitra/internal/logging"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
	"github.com/ziadkadry99/krishi-mitra/internal/weather"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `krishi init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose switches to the development
// encoder at debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if verbose {
		return logging.New("debug", true)
	}
	return logging.New(cfg.LogLevel, false)
}

// createLLMProviderFromConfig creates the generation provider, rate limited
// when rate_limit_rpm is set. A missing API key is a ConfigurationError.
func createLLMProviderFromConfig(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	apiKey := credentials.APIKey(string(cfg.Provider))
	p, err := llm.NewProvider(ctx, string(cfg.Provider), cfg.Model, apiKey)
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return nil, &pipeline.ConfigurationError{Component: "llm", Reason: "no API key for " + string(cfg.Provider), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return llm.NewRateLimitedProvider(p, cfg.RateLimitRPM), nil
}

// newFlowService wires the provider, runner and weather client into a flow
// service. A missing weather key is not an error here; the weather flow
// reports it when called.
func newFlowService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*flows.Service, error) {
	provider, err := createLLMProviderFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	runner := pipeline.NewRunner(provider, cfg.Model,
		pipeline.WithTemperature(cfg.Temperature),
		pipeline.WithLogger(logger),
	)
	ws := weather.New(credentials.APIKey(credentials.OpenWeather), cfg.Weather.BaseURL, cfg.Weather.Units)
	return flows.NewService(runner, ws, flows.Options{TTSModel: cfg.TTSModel, Voice: cfg.Voice})
}
