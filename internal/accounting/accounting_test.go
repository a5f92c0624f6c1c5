package accounting

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

var (
	rhunMint   = solana.MustPublicKeyFromBase58("Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr")
	solMint    = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	rewardMint = solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")
)

func testPool() domain.Pool {
	p := domain.Pool{
		Address:        solana.NewWallet().PublicKey(),
		TokenXMint:     rhunMint,
		TokenYMint:     solMint,
		TokenXDecimals: 6,
		TokenYDecimals: 9,
		BinStep:        25,
	}
	p.RewardMints[0] = rewardMint
	return p
}

func testPosition() domain.Position {
	return domain.Position{
		Address:    solana.NewWallet().PublicKey(),
		Pool:       solana.NewWallet().PublicKey(),
		LowerBinID: -1,
		UpperBinID: 1,
		Bins: []domain.Bin{
			{BinID: -1, AmountX: 0, AmountY: 2_000_000_000, FeeY: 50_000_000},
			{BinID: 0, AmountX: 1_500_000, AmountY: 1_000_000_000, FeeX: 30_000, FeeY: 10_000_000, Rewards: [2]uint64{200_000, 0}},
			{BinID: 1, AmountX: 2_500_000, FeeX: 70_000},
		},
	}
}

func testPrices() map[solana.PublicKey]decimal.Decimal {
	return map[solana.PublicKey]decimal.Decimal{
		rhunMint:   decimal.RequireFromString("0.05"),
		solMint:    decimal.RequireFromString("150"),
		rewardMint: decimal.RequireFromString("2"),
	}
}

func TestSummarizePositionAmounts(t *testing.T) {
	pool := testPool()
	pos := testPosition()

	s := SummarizePosition(pool, pos, testPrices())

	// No bin silently dropped: output totals equal the position totals.
	assert.True(t, s.TokenXAmount.Equal(domain.HumanAmount(pos.TotalAmountX(), pool.TokenXDecimals)),
		"tokenX %s", s.TokenXAmount)
	assert.True(t, s.TokenYAmount.Equal(domain.HumanAmount(pos.TotalAmountY(), pool.TokenYDecimals)),
		"tokenY %s", s.TokenYAmount)

	// Fee math: 0.1 RHUN * 0.05 + 0.06 SOL * 150 = 0.005 + 9 = 9.005 USD.
	assert.True(t, s.SwapFeesUSD.Equal(decimal.RequireFromString("9.005")), "swap fees %s", s.SwapFeesUSD)

	// Rewards: 0.2 RHUN-denominated reward * 2 USD = 0.4.
	assert.True(t, s.LMRewardsUSD.Equal(decimal.RequireFromString("0.4")), "rewards %s", s.LMRewardsUSD)
	assert.False(t, s.PriceIncomplete)
}

func TestSummarizeIsPure(t *testing.T) {
	pool := testPool()
	pos := testPosition()
	prices := testPrices()

	first := Summarize(pool, []domain.Position{pos}, prices)
	second := Summarize(pool, []domain.Position{pos}, prices)

	require.Equal(t, first, second)
}

func TestSummarizeMissingRewardEnrolment(t *testing.T) {
	pool := testPool()
	pool.RewardMints = [2]solana.PublicKey{} // no reward program

	pos := testPosition()
	s := SummarizePosition(pool, pos, testPrices())

	// Absent rewards degrade to a valid zero, not an error.
	assert.True(t, s.LMRewardsUSD.IsZero())
	assert.False(t, s.PriceIncomplete)
}

func TestSummarizeMissingPriceDegrades(t *testing.T) {
	pool := testPool()
	pos := testPosition()

	prices := testPrices()
	delete(prices, solMint)

	s := SummarizePosition(pool, pos, prices)

	// The SOL-denominated fee leg degrades to zero; the RHUN leg survives.
	assert.True(t, s.SwapFeesUSD.Equal(decimal.RequireFromString("0.005")), "swap fees %s", s.SwapFeesUSD)
	assert.True(t, s.PriceIncomplete)
}

func TestSummarizePortfolioTotals(t *testing.T) {
	pool := testPool()
	a := testPosition()
	b := testPosition()

	out := Summarize(pool, []domain.Position{a, b}, testPrices())

	require.Len(t, out.Positions, 2)
	want := out.Positions[0].SwapFeesUSD.Add(out.Positions[1].SwapFeesUSD)
	assert.True(t, out.TotalSwapFeesUSD.Equal(want))
}
