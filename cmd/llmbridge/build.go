package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/llmbridge"
	"github.com/hupe1980/llmbridge/config"
	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/credential"
	"github.com/hupe1980/llmbridge/logging"
	"github.com/hupe1980/llmbridge/model"
	"github.com/hupe1980/llmbridge/model/anthropic"
	"github.com/hupe1980/llmbridge/model/gemini"
	"github.com/hupe1980/llmbridge/model/openai"
	"github.com/hupe1980/llmbridge/session"
	"github.com/hupe1980/llmbridge/session/redis"
	"github.com/hupe1980/llmbridge/session/sqlite"
)

// loadConfig reads the config file named by --config and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.BridgeLogger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.New(func(o *logging.Options) {
		o.Level = level
		o.Format = cfg.Log.Format
		o.Output = os.Stderr
		o.AddSource = level <= slog.LevelDebug
	})
	return logger.WithComponent("llmbridge"), nil
}

// newBinder registers a binder per provider. SDK retries stay disabled so a
// failed send surfaces immediately.
func newBinder(cfg *config.Config) *model.Registry {
	p := cfg.Providers

	return model.NewRegistry().
		Register(core.ProviderOpenAI, openai.NewBinder(func(o *openai.Options) {
			o.BaseURL = p.OpenAI.BaseURL
			o.Temperature = p.OpenAI.Temperature
			if p.OpenAI.MaxTokens > 0 {
				o.MaxCompletionTokens = p.OpenAI.MaxTokens
			}
			o.MaxRetries = 0
		})).
		Register(core.ProviderAnthropic, anthropic.NewBinder(func(o *anthropic.Options) {
			o.BaseURL = p.Anthropic.BaseURL
			o.Temperature = p.Anthropic.Temperature
			if p.Anthropic.MaxTokens > 0 {
				o.MaxTokens = p.Anthropic.MaxTokens
			}
			o.MaxRetries = 0
		})).
		Register(core.ProviderGemini, gemini.NewBinder(func(o *gemini.Options) {
			o.BaseURL = p.Gemini.BaseURL
			o.Temperature = p.Gemini.Temperature
			if p.Gemini.MaxTokens > 0 {
				o.MaxOutputTokens = int32(p.Gemini.MaxTokens)
			}
		}))
}

// openStore opens the configured session store and returns its closer.
func openStore(ctx context.Context, cfg *config.Config) (core.SessionStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.DriverMemory:
		return session.NewInMemoryStore(), noop, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverRedis:
		store, err := redis.New(ctx, redis.Config{
			Address:  cfg.Store.Redis.Address,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildBridge wires the façade from cfg. The returned closer releases the store.
func buildBridge(ctx context.Context, cfg *config.Config, logger logging.Logger) (*llmbridge.Bridge, func() error, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	resolver := credential.NewResolver(cfg.DefaultProvider(), cfg.Credentials.Default)
	if !resolver.HasDefault() {
		logger.Warn("No ambient credential configured; sessions must supply their own keys",
			"provider", resolver.DefaultProvider().String(), "env", config.AmbientKeyEnv(resolver.DefaultProvider()))
	}

	binder := newBinder(cfg)
	for _, p := range binder.Missing() {
		logger.Warn("No client registered for provider", "provider", p.String())
	}

	bridge := llmbridge.New(func(o *llmbridge.Options) {
		o.SessionStore = store
		o.Binder = binder
		o.Resolver = resolver
		o.Logger = logger
	})

	return bridge, closeStore, nil
}
