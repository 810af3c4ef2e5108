// Package app wires the monitor's dependencies (config, secrets, chain
// data source, dispatcher) and owns their lifecycle for one invocation.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papermoonio/credits-monitor/internal/config"
	"github.com/papermoonio/credits-monitor/internal/domain"
	"github.com/papermoonio/credits-monitor/internal/monitor"
	"github.com/papermoonio/credits-monitor/internal/notify"
)

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions run in reverse order on Close.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// RunMonitor executes one monitoring cycle for the named network.
// thresholdDays > 0 overrides the configured alert threshold. Secrets
// absence degrades to report-only mode; a data source that cannot be
// reached is a setup failure and returns an error.
func (a *App) RunMonitor(ctx context.Context, networkName string, thresholdDays float64) error {
	net, ok := a.cfg.Networks[networkName]
	if !ok {
		return fmt.Errorf("app: %w: %q", domain.ErrUnknownNetwork, networkName)
	}
	if thresholdDays > 0 {
		net.Cost.AlertThresholdDays = thresholdDays
	}

	secrets, err := config.LoadSecrets(a.cfg.SecretsPath)
	if err != nil {
		return fmt.Errorf("app: load secrets: %w", err)
	}
	if secrets == nil {
		a.logger.Warn("no secrets configured, running in report-only mode",
			slog.String("secrets_path", a.cfg.SecretsPath),
		)
	} else {
		a.logger.Info("secrets loaded",
			slog.Int("teams", len(secrets.Teams)),
			slog.String("bot_token", secrets.Redacted().BotToken),
		)
	}

	source, err := newSource(net, a.logger)
	if err != nil {
		return fmt.Errorf("app: open chain data source: %w", err)
	}
	// Released on every exit path, including a run over zero entities.
	a.closers = append(a.closers, source.Close)

	var dispatcher notify.Dispatcher
	if secrets != nil && secrets.BotToken != "" {
		dispatcher = notify.NewTelegramSender(secrets.BotToken, notify.Options{
			MaxAttempts:    a.cfg.Notify.MaxAttempts,
			AttemptTimeout: a.cfg.Notify.AttemptTimeout.Duration,
			Verbose:        a.cfg.Notify.Verbose,
		}, a.logger)
	} else if secrets != nil {
		a.logger.Warn("secrets present but bot token empty, alert dispatch disabled")
		secrets = nil
	}

	mon := monitor.New(networkName, net, secrets, source, dispatcher, a.logger)
	sum, err := mon.Run(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("monitoring cycle finished",
		slog.String("run_id", sum.RunID),
		slog.String("network", networkName),
		slog.Int("entities", sum.Entities),
		slog.Int("low_credit", sum.LowCredit),
		slog.Int("alerts_sent", sum.AlertsSent),
		slog.Int("alerts_failed", sum.AlertsFailed),
	)
	return nil
}

// Close tears down all resources in reverse registration order. Safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
