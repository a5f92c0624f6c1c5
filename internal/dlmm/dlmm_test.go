package dlmm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinIDToArrayIndex(t *testing.T) {
	cases := []struct {
		binID int32
		want  int64
	}{
		{0, 0},
		{69, 0},
		{70, 1},
		{140, 2},
		{-1, -1},
		{-70, -1},
		{-71, -2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BinIDToArrayIndex(c.binID), "binID %d", c.binID)
	}
}

func TestBinPrice(t *testing.T) {
	// Bin 0 is always price 1 regardless of step.
	assert.True(t, BinPrice(0, 25).Equal(decimal.NewFromInt(1)))

	// One bin up at 100 bps step is exactly 1.01.
	p := BinPrice(1, 100)
	assert.True(t, p.Equal(decimal.RequireFromString("1.01")), "got %s", p)

	// Negative bins invert: price(-1) * price(1) ~= 1.
	product := BinPrice(-1, 100).Mul(BinPrice(1, 100))
	diff := product.Sub(decimal.NewFromInt(1)).Abs()
	assert.True(t, diff.LessThan(decimal.RequireFromString("0.000000000001")), "got %s", product)
}

func TestPositionAccountRoundTrip(t *testing.T) {
	var pos PositionV2
	pos.LowerBinID = -35
	pos.UpperBinID = 34
	pos.LastUpdatedAt = 1700000000
	pos.FeeInfos[0].FeeXPending = 123
	pos.FeeInfos[69].FeeYPending = 456
	pos.RewardInfos[3].RewardPendings[1] = 789

	raw, err := EncodeAccount(DiscPositionV2, pos)
	require.NoError(t, err)

	decoded, err := DecodePositionV2(raw)
	require.NoError(t, err)
	assert.Equal(t, int32(-35), decoded.LowerBinID)
	assert.Equal(t, int32(34), decoded.UpperBinID)
	assert.Equal(t, 70, decoded.Width())
	assert.Equal(t, uint64(123), decoded.FeeInfos[0].FeeXPending)
	assert.Equal(t, uint64(456), decoded.FeeInfos[69].FeeYPending)
	assert.Equal(t, uint64(789), decoded.RewardInfos[3].RewardPendings[1])

	// Wrong discriminator must be rejected.
	_, err = DecodeLbPair(raw)
	require.Error(t, err)
}

func TestDistributionWeights(t *testing.T) {
	spot := DistributionWeights(StrategySpotBalanced, -2, 2, 0)
	require.Len(t, spot, 5)
	for _, w := range spot {
		assert.True(t, w.Equal(decimal.NewFromInt(1)))
	}

	curve := DistributionWeights(StrategyCurveBalanced, -2, 2, 0)
	require.Len(t, curve, 5)
	// Peak at the active bin, symmetric falloff.
	assert.True(t, curve[2].GreaterThan(curve[0]))
	assert.True(t, curve[0].Equal(curve[4]))

	bidask := DistributionWeights(StrategyBidAskBalanced, -2, 2, 0)
	require.Len(t, bidask, 5)
	// Heaviest at the edges.
	assert.True(t, bidask[0].GreaterThan(bidask[2]))
	assert.True(t, bidask[0].Equal(bidask[4]))
}

func TestAutoFillAmountY(t *testing.T) {
	// Symmetric spot range around the active bin at price 1: the Y leg
	// mirrors the X leg.
	y := AutoFillAmountY(decimal.NewFromInt(100), StrategySpotBalanced, -5, 5, 0, 25)
	diff := y.Sub(decimal.NewFromInt(100)).Abs()
	assert.True(t, diff.LessThan(decimal.RequireFromString("0.0001")), "got %s", y)

	// Range entirely below the active bin: everything lands on the Y side.
	y = AutoFillAmountY(decimal.NewFromInt(100), StrategySpotBalanced, -10, -1, 0, 25)
	assert.True(t, y.GreaterThan(decimal.Zero))
}
