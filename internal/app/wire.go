package app

import (
	"log/slog"

	"github.com/papermoonio/credits-monitor/internal/chain"
	"github.com/papermoonio/credits-monitor/internal/config"
	"github.com/papermoonio/credits-monitor/internal/domain"
)

// newSource builds the production chain data source. Kept behind the
// domain.ChainDataSource interface so tests can substitute a fake.
var newSource = func(net config.Network, logger *slog.Logger) (domain.ChainDataSource, error) {
	return chain.NewSource(net.RPCURL, net.TokenSymbol, net.TokenDecimals, logger)
}
