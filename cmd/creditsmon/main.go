// Command creditsmon checks the funding runway of every container chain
// registered on an orchestration network and alerts owning teams over
// Telegram when a chain drops below the configured threshold.
//
// Usage:
//
//	creditsmon monitor --network dancebox [--threshold 7] [--config config.toml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/papermoonio/credits-monitor/internal/app"
	"github.com/papermoonio/credits-monitor/internal/config"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "monitor" {
		fmt.Fprintln(os.Stderr, "usage: creditsmon monitor --network <name> [--threshold <days>] [--config <path>]")
		os.Exit(2)
	}

	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	network := fs.String("network", "", "network to monitor (e.g. dancebox, flashbox)")
	threshold := fs.Float64("threshold", 0, "override the configured alert threshold, in days")
	configPath := fs.String("config", "config.toml", "path to configuration file")
	_ = fs.Parse(os.Args[2:])

	// Setup structured JSON logger; level is refined once config is loaded.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if _, ok := cfg.Networks[*network]; !ok {
		names := make([]string, 0, len(cfg.Networks))
		for name := range cfg.Networks {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(os.Stderr, "unknown --network %q (configured: %s)\n", *network, strings.Join(names, ", "))
		os.Exit(2)
	}

	logger.Info("credits monitor starting",
		slog.String("network", *network),
		slog.String("config", *configPath),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Exit code 0 on completed runs regardless of how many chains alerted;
	// non-zero only when the run itself could not proceed.
	if err := application.RunMonitor(ctx, *network, *threshold); err != nil {
		logger.Error("monitoring run failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
