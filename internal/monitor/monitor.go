// Package monitor runs one evaluation cycle over every registered
// container chain of a network: derive the funding tank, read balance and
// credits, project the runway, and dispatch alerts for chains below the
// threshold.
package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/papermoonio/credits-monitor/internal/alert"
	"github.com/papermoonio/credits-monitor/internal/chain"
	"github.com/papermoonio/credits-monitor/internal/config"
	"github.com/papermoonio/credits-monitor/internal/domain"
	"github.com/papermoonio/credits-monitor/internal/notify"
	"github.com/papermoonio/credits-monitor/internal/runway"
)

// Summary aggregates the outcome of one run.
type Summary struct {
	RunID        string
	Entities     int
	LowCredit    int
	AlertsSent   int
	AlertsFailed int
}

// Monitor evaluates every registered container chain of one network,
// strictly sequentially. The data source is shared read-only across all
// queries of a run and released by the caller.
type Monitor struct {
	networkName string
	network     config.Network
	secrets     *config.Secrets
	source      domain.ChainDataSource
	dispatcher  notify.Dispatcher
	logger      *slog.Logger
}

// New creates a Monitor. secrets may be nil, which disables alert dispatch
// while leaving balance reporting intact; dispatcher must be non-nil
// whenever secrets is.
func New(networkName string, network config.Network, secrets *config.Secrets, source domain.ChainDataSource, dispatcher notify.Dispatcher, logger *slog.Logger) *Monitor {
	return &Monitor{
		networkName: networkName,
		network:     network,
		secrets:     secrets,
		source:      source,
		dispatcher:  dispatcher,
		logger:      logger.With(slog.String("component", "monitor")),
	}
}

// Run processes every registered container chain in the order the chain
// returns them. One report line is emitted per chain regardless of alert
// state. A failed notification never aborts later chains; a failed chain
// query aborts the run, since a missing balance must not read as zero.
func (m *Monitor) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	log := m.logger.With(
		slog.String("run_id", sum.RunID),
		slog.String("network", m.networkName),
	)

	ids, err := m.source.RegisteredParaIDs(ctx)
	if err != nil {
		return sum, fmt.Errorf("monitor: list registered para ids: %w", err)
	}
	log.Info("run started", slog.Int("registered", len(ids)))

	for _, id := range ids {
		tank := chain.DeriveTankAccount(id)
		address := chain.SS58Address(tank, m.network.SS58Prefix)

		bal, err := m.source.FreeBalance(ctx, tank)
		if err != nil {
			return sum, fmt.Errorf("monitor: para %d: %w", id, err)
		}
		credits, err := m.source.BlockProductionCredits(ctx, id)
		if err != nil {
			return sum, fmt.Errorf("monitor: para %d: %w", id, err)
		}

		res := runway.Compute(bal, credits, m.network.Cost)
		sum.Entities++

		log.Info("container chain evaluated",
			slog.Uint64("para_id", uint64(id)),
			slog.String("tank_address", address),
			slog.String("free_balance", bal.Free.String()),
			slog.String("token", bal.TokenSymbol),
			slog.String("credits", credits.BlockProductionCredits.String()),
			slog.Float64("days_from_credits", res.DaysFromCredits),
			slog.Float64("days_from_balance", res.DaysFromBalance),
			slog.Float64("remaining_days", res.TotalRemainingDays),
			slog.Bool("low", res.IsLow),
		)

		if !res.IsLow {
			continue
		}
		sum.LowCredit++

		if m.secrets == nil {
			log.Warn("low credits but alerting is disabled (no secrets configured)",
				slog.Uint64("para_id", uint64(id)),
			)
			continue
		}

		m.sendAlerts(ctx, log, id, res, &sum)
	}

	log.Info("run complete",
		slog.Int("entities", sum.Entities),
		slog.Int("low_credit", sum.LowCredit),
		slog.Int("alerts_sent", sum.AlertsSent),
		slog.Int("alerts_failed", sum.AlertsFailed),
	)
	return sum, nil
}

// sendAlerts routes and dispatches notifications for one low-runway chain.
// The broadcast body is composed after the owner dispatch so it can carry
// the delivery outcome.
func (m *Monitor) sendAlerts(ctx context.Context, log *slog.Logger, id domain.ParaID, res domain.RunwayResult, sum *Summary) {
	dec := alert.Route(id, res, m.secrets.Teams, m.networkName, m.network.DashboardURL)

	ownerDelivered := false
	if dec.Owner != nil {
		ownerDelivered = m.dispatcher.Send(ctx, dec.Owner.ChatID, dec.OwnerText)
		if ownerDelivered {
			sum.AlertsSent++
		} else {
			sum.AlertsFailed++
			log.Warn("owner notification failed",
				slog.Uint64("para_id", uint64(id)),
				slog.String("team", dec.Owner.Name),
			)
		}
	}

	text := dec.BroadcastText(ownerDelivered)
	for _, team := range dec.Broadcast {
		if m.dispatcher.Send(ctx, team.ChatID, text) {
			sum.AlertsSent++
		} else {
			sum.AlertsFailed++
			log.Warn("broadcast notification failed",
				slog.Uint64("para_id", uint64(id)),
				slog.String("team", team.Name),
			)
		}
	}

	if dec.Owner == nil && len(dec.Broadcast) == 0 {
		log.Warn("low credits with no notification recipients",
			slog.Uint64("para_id", uint64(id)),
		)
	}
}
