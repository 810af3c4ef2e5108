// Package domain defines the shared types of the credits monitor: para
// identifiers, point-in-time chain snapshots, runway results, and the team
// directory used for alert routing.
package domain

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParaID identifies a registered container chain on the orchestration
// network. IDs are assigned by the chain, never by this tool.
type ParaID uint32

// BroadcastParaID is the sentinel para ID marking a team entry as a
// broadcast recipient: it receives alerts for every container chain.
const BroadcastParaID ParaID = 0

// UnmarshalJSON accepts both numeric and string-encoded para IDs. Team
// directories arrive from hand-edited secret files where the ID is sometimes
// quoted; everything is normalized to uint32 here so internal comparisons
// are always same-typed.
func (p *ParaID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fmt.Errorf("domain: invalid para id %s: %w", string(b), err)
	}
	*p = ParaID(n)
	return nil
}

// BalanceSnapshot is a point-in-time read of a funding tank's free balance.
// It lives for one evaluation cycle and is never cached.
type BalanceSnapshot struct {
	Free          *big.Int
	TokenDecimals uint32
	TokenSymbol   string
}

// CreditSnapshot is a point-in-time read of a container chain's prepaid
// block-production credits. Same lifecycle as BalanceSnapshot.
type CreditSnapshot struct {
	BlockProductionCredits *big.Int
}

// RunwayResult is the projected funding runway for one container chain,
// recomputed every cycle and never persisted.
type RunwayResult struct {
	DaysFromCredits    float64
	DaysFromBalance    float64
	TotalRemainingDays float64
	IsLow              bool
}

// TeamConfig names the owner (or broadcast subscriber, when ParaID is the
// sentinel 0) of a container chain together with its Telegram chat.
type TeamConfig struct {
	Name   string `json:"name"`
	ParaID ParaID `json:"para_id"`
	ChatID string `json:"chat_id"`
}

// ChainDataSource is the read-only view of the orchestration chain the
// monitor needs. The connection behind it is opened once per run, shared
// across all queries, and released by the caller on every exit path.
type ChainDataSource interface {
	// RegisteredParaIDs lists every registered container chain in the
	// order the chain returns them.
	RegisteredParaIDs(ctx context.Context) ([]ParaID, error)
	// FreeBalance returns the free balance of the given funding-tank
	// account. A query failure is an error, never a zero balance.
	FreeBalance(ctx context.Context, tank [32]byte) (BalanceSnapshot, error)
	// BlockProductionCredits returns the prepaid credit units of the
	// given container chain.
	BlockProductionCredits(ctx context.Context, id ParaID) (CreditSnapshot, error)
	// Close releases the underlying connection.
	Close()
}
