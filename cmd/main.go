package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lautis/ruuvitag-listener/internal/app"
	"github.com/lautis/ruuvitag-listener/internal/config"
	"github.com/lautis/ruuvitag-listener/internal/logging"
	_ "github.com/lautis/ruuvitag-listener/internal/scanner/bluez"
	_ "github.com/lautis/ruuvitag-listener/internal/scanner/hci"
)

var version = "dev"
var appName = "ruuvitag-listener"

func main() {
	cfg, err := config.LoadFromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
