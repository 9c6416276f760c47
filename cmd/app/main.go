package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/app"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/infra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		return 1
	}

	logger, flush, err := infra.NewLogger(cfg)
	if err != nil {
		slog.Error("Failed to build logger", slog.Any("error", err))
		return 1
	}
	defer flush()
	slog.SetDefault(logger)

	infra.PrintBanner(os.Stdout, cfg)

	bootstrap, err := app.NewBootstrap(cfg, infra.GetWorkspaceDir())
	if err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := infra.NewMetricsServer(cfg.Metrics.Addr).Run(ctx); err != nil {
				slog.Error("Metrics server failed", slog.Any("error", err))
			}
		}()
	}

	if err := bootstrap.Start(ctx); err != nil {
		slog.Error("Startup failed", slog.Any("error", err))
		bootstrap.Close()
		return 1
	}

	slog.Info("Trading bot running, press Ctrl+C to exit",
		slog.String("mode", cfg.Trading.Mode),
		slog.Int("pairs", len(cfg.Pairs)))

	<-ctx.Done()
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.Shutdown(shutdownCtx)
	return 0
}
