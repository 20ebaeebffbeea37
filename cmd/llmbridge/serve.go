package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/llmbridge/api"
)

var serveAddr string

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the JSON API under /api. Settings come from --config and the
environment (OPENAI_API_KEY, LLMBRIDGE_ADDR, LLMBRIDGE_STORE,
LLMBRIDGE_SQLITE_PATH, LLMBRIDGE_REDIS_ADDR, LLMBRIDGE_LOG_LEVEL).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Address = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge, closeStore, err := buildBridge(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close session store", "error", err.Error())
		}
	}()

	server := api.NewServer(cfg.Server.Address, bridge, func(o *api.Options) {
		o.RateLimit = cfg.Server.RateLimit
		o.RateBurst = cfg.Server.RateBurst
		o.Logger = logger.WithComponent("api")
	})

	logger.Info("Starting llmbridge", "store", cfg.Store.Driver, "default_provider", cfg.DefaultProvider().String())

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("llmbridge stopped")
	return nil
}
