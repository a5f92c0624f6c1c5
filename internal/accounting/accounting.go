// Package accounting converts raw per-bin position snapshots into
// human-readable token amounts and USD-valued fee and reward totals. Every
// function here is pure: no I/O, no clock, and identical input always yields
// identical output.
package accounting

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// PositionSummary is the per-position accounting breakdown.
type PositionSummary struct {
	Position     solana.PublicKey `json:"position"`
	TokenXAmount decimal.Decimal  `json:"tokenXAmount"`
	TokenYAmount decimal.Decimal  `json:"tokenYAmount"`
	SwapFeeX     decimal.Decimal  `json:"swapFeeX"`
	SwapFeeY     decimal.Decimal  `json:"swapFeeY"`
	SwapFeesUSD  decimal.Decimal  `json:"swapFeesUsd"`
	LMRewardsUSD decimal.Decimal  `json:"lmRewardsUsd"`

	// PriceIncomplete is set when one or more USD fields were computed
	// with a missing price (taken as zero) rather than failing the whole
	// position.
	PriceIncomplete bool `json:"priceIncomplete,omitempty"`
}

// PortfolioSummary aggregates every position of a wallet in one pool.
type PortfolioSummary struct {
	TotalSwapFeesUSD  decimal.Decimal   `json:"totalSwapFees"`
	TotalLMRewardsUSD decimal.Decimal   `json:"totalLMRewards"`
	Positions         []PositionSummary `json:"positionFees"`
	PriceIncomplete   bool              `json:"priceIncomplete,omitempty"`
}

// Summarize computes the accounting breakdown for each position and the
// portfolio totals. Prices are USD per human unit, keyed by mint; a missing
// price degrades the affected USD fields to zero and flags the result
// instead of aborting. Missing fee or reward fields in the snapshot are
// typed zeros, so a position with no reward enrolment still produces a
// valid result.
func Summarize(pool domain.Pool, positions []domain.Position, prices map[solana.PublicKey]decimal.Decimal) PortfolioSummary {
	out := PortfolioSummary{
		TotalSwapFeesUSD:  decimal.Zero,
		TotalLMRewardsUSD: decimal.Zero,
		Positions:         make([]PositionSummary, 0, len(positions)),
	}

	for _, pos := range positions {
		summary := SummarizePosition(pool, pos, prices)
		out.TotalSwapFeesUSD = out.TotalSwapFeesUSD.Add(summary.SwapFeesUSD)
		out.TotalLMRewardsUSD = out.TotalLMRewardsUSD.Add(summary.LMRewardsUSD)
		out.PriceIncomplete = out.PriceIncomplete || summary.PriceIncomplete
		out.Positions = append(out.Positions, summary)
	}

	return out
}

// SummarizePosition computes one position's breakdown by walking every bin
// in the snapshot. Totals are derived from the bins themselves so no bin can
// be silently dropped.
func SummarizePosition(pool domain.Pool, pos domain.Position, prices map[solana.PublicKey]decimal.Decimal) PositionSummary {
	summary := PositionSummary{
		Position:     pos.Address,
		TokenXAmount: decimal.Zero,
		TokenYAmount: decimal.Zero,
		SwapFeeX:     decimal.Zero,
		SwapFeeY:     decimal.Zero,
		SwapFeesUSD:  decimal.Zero,
		LMRewardsUSD: decimal.Zero,
	}

	var feeX, feeY uint64
	var rewards [2]uint64
	for _, b := range pos.Bins {
		summary.TokenXAmount = summary.TokenXAmount.Add(domain.HumanAmount(b.AmountX, pool.TokenXDecimals))
		summary.TokenYAmount = summary.TokenYAmount.Add(domain.HumanAmount(b.AmountY, pool.TokenYDecimals))
		feeX += b.FeeX
		feeY += b.FeeY
		rewards[0] += b.Rewards[0]
		rewards[1] += b.Rewards[1]
	}

	summary.SwapFeeX = domain.HumanAmount(feeX, pool.TokenXDecimals)
	summary.SwapFeeY = domain.HumanAmount(feeY, pool.TokenYDecimals)

	usdX, okX := valueUSD(summary.SwapFeeX, pool.TokenXMint, prices)
	usdY, okY := valueUSD(summary.SwapFeeY, pool.TokenYMint, prices)
	summary.SwapFeesUSD = usdX.Add(usdY)
	summary.PriceIncomplete = !okX || !okY

	for slot := range pool.RewardMints {
		mint := pool.RewardMints[slot]
		if mint.IsZero() {
			// Reward slot not enrolled: a typed zero, not an error.
			continue
		}
		// Reward mints share the pool's tokenX precision unless they are
		// the pool's own tokens.
		dec := rewardDecimals(pool, mint)
		usd, ok := valueUSD(domain.HumanAmount(rewards[slot], dec), mint, prices)
		summary.LMRewardsUSD = summary.LMRewardsUSD.Add(usd)
		summary.PriceIncomplete = summary.PriceIncomplete || !ok
	}

	return summary
}

func valueUSD(amount decimal.Decimal, mint solana.PublicKey, prices map[solana.PublicKey]decimal.Decimal) (decimal.Decimal, bool) {
	if amount.IsZero() {
		// Zero amounts need no price; do not flag them incomplete.
		return decimal.Zero, true
	}
	price, ok := prices[mint]
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(price), true
}

func rewardDecimals(pool domain.Pool, mint solana.PublicKey) uint8 {
	switch mint {
	case pool.TokenXMint:
		return pool.TokenXDecimals
	case pool.TokenYMint:
		return pool.TokenYDecimals
	default:
		return pool.TokenXDecimals
	}
}
