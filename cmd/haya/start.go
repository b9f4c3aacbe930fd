package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/agent"
	"github.com/sunggeunkim/haya/internal/config"
	"github.com/sunggeunkim/haya/internal/cron"
	"github.com/sunggeunkim/haya/internal/gateway"
	"github.com/sunggeunkim/haya/internal/pairing"
	"github.com/sunggeunkim/haya/internal/processor"
	"github.com/sunggeunkim/haya/internal/sessions"
)

func buildStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the gateway, channel dock, scheduler, and agent runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context())
		},
	}
}

func runStart(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := buildLogger(cfg.Logging)

	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}

	store := sessions.NewMemoryStore()

	runtime := agent.NewRuntime(provider, store)

	registry := buildChannelRegistry(cfg.Channels, logger)

	scheduler, err := cron.NewScheduler(cfg.Cron)
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	pairingStore := pairing.NewStore("data")

	pipeline := processor.New(runtime, store, pairingStore, registry, cfg.Channels)
	pipeline.Logger = logger

	srv := gateway.NewServer(cfg.Gateway, runtime, store, registry, gateway.WithScheduler(scheduler), gateway.WithLogger(logger))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := registry.StartAll(ctx); err != nil {
		logger.Warn("channels: some adapters failed to start", "error", err)
	}

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	go pipeline.Run(ctx)

	logger.Info("haya gateway starting", "bind", cfg.Gateway.Bind, "port", cfg.Gateway.Port)
	err = srv.ListenAndServe(ctx)

	_ = registry.StopAll(context.Background())
	_ = scheduler.Stop(context.Background())

	return err
}
