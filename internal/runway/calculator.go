// Package runway projects how many days of funding a container chain has
// left, combining prepaid block-production credits with the free balance of
// its funding tank.
package runway

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/papermoonio/credits-monitor/internal/config"
	"github.com/papermoonio/credits-monitor/internal/domain"
)

// Compute combines a balance snapshot, a credit snapshot, and the static
// cost model into a runway projection. Pure: no error conditions.
//
// Credits are consumed one unit per produced block, so credits divided by
// the daily block rate gives the days covered by prepaid credits alone. The
// balance is truncated to whole tokens before dividing by the daily cost;
// rounding down keeps the runway from ever being overstated. The two
// funding sources are additive for alerting purposes.
//
// A zero daily cost (or zero block rate) means the runway is effectively
// infinite: the result is +Inf and IsLow is false, never a NaN.
func Compute(bal domain.BalanceSnapshot, credits domain.CreditSnapshot, cost config.ChainCost) domain.RunwayResult {
	var res domain.RunwayResult

	res.DaysFromCredits = daysFromCredits(credits.BlockProductionCredits, cost.BlocksPerDay)

	wholeTokens := decimal.NewFromBigInt(bigOrZero(bal.Free), -int32(bal.TokenDecimals)).Floor()
	dailyCost := cost.CostPerBlock*cost.BlocksPerDay + cost.CostCollatorAssignment*cost.CollatorAssignmentsPerDay
	if dailyCost <= 0 {
		res.DaysFromBalance = math.Inf(1)
	} else {
		res.DaysFromBalance = wholeTokens.InexactFloat64() / dailyCost
	}

	res.TotalRemainingDays = res.DaysFromCredits + res.DaysFromBalance
	res.IsLow = res.TotalRemainingDays < cost.AlertThresholdDays
	return res
}

func daysFromCredits(credits *big.Int, blocksPerDay float64) float64 {
	c := bigOrZero(credits)
	if blocksPerDay <= 0 {
		if c.Sign() > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return decimal.NewFromBigInt(c, 0).InexactFloat64() / blocksPerDay
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
