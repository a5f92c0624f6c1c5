package dlmm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BinPrice computes the price of a bin: (1 + binStep/BasisPointMax)^binID,
// as tokenY per tokenX. Exponentiation by squaring over big.Float keeps
// precision for deep negative or positive bin ids.
func BinPrice(binID int32, binStep uint16) decimal.Decimal {
	step := new(big.Float).Quo(
		new(big.Float).SetUint64(uint64(binStep)),
		new(big.Float).SetUint64(BasisPointMax),
	)
	base := new(big.Float).SetPrec(256).Add(big.NewFloat(1), step)

	res := new(big.Float).SetPrec(256).SetInt64(1)
	exp := int64(binID)
	neg := exp < 0
	if neg {
		exp = -exp
	}
	for exp > 0 {
		if exp&1 == 1 {
			res.Mul(res, base)
		}
		base.Mul(base, base)
		exp >>= 1
	}
	if neg {
		res.Quo(new(big.Float).SetPrec(256).SetInt64(1), res)
	}

	out, err := decimal.NewFromString(res.Text('f', 18))
	if err != nil {
		return decimal.Zero
	}
	return out
}

// DistributionWeights returns the per-bin deposit weight for each bin in
// [minBinID, maxBinID] under the given strategy, centred on activeID:
// spot is flat, curve peaks at the active bin, bidask is heaviest at the
// range edges. Weights are relative; callers normalize.
func DistributionWeights(strategy StrategyType, minBinID, maxBinID, activeID int32) []decimal.Decimal {
	n := int(maxBinID-minBinID) + 1
	if n <= 0 {
		return nil
	}
	weights := make([]decimal.Decimal, n)

	maxDist := int32(0)
	for i := 0; i < n; i++ {
		d := distance(minBinID+int32(i), activeID)
		if d > maxDist {
			maxDist = d
		}
	}

	for i := 0; i < n; i++ {
		d := distance(minBinID+int32(i), activeID)
		switch strategy {
		case StrategyCurveImBalanced, StrategyCurveBalanced:
			weights[i] = decimal.NewFromInt32(maxDist - d + 1)
		case StrategyBidAskImBalanced, StrategyBidAskBalanced:
			weights[i] = decimal.NewFromInt32(d + 1)
		default: // spot
			weights[i] = decimal.NewFromInt(1)
		}
	}
	return weights
}

// AutoFillAmountY computes the tokenY leg that balances amountX (human
// units) across the deposit range at current bin prices. TokenY fills bins
// at or below the active bin, tokenX bins at or above it, so the Y leg is
// the X leg's value scaled by the weight mass sitting on the Y side.
func AutoFillAmountY(amountX decimal.Decimal, strategy StrategyType, minBinID, maxBinID, activeID int32, binStep uint16) decimal.Decimal {
	weights := DistributionWeights(strategy, minBinID, maxBinID, activeID)
	if len(weights) == 0 {
		return decimal.Zero
	}

	var massY, massX decimal.Decimal
	for i, w := range weights {
		id := minBinID + int32(i)
		switch {
		case id < activeID:
			massY = massY.Add(w)
		case id > activeID:
			massX = massX.Add(w)
		default:
			// Active bin holds both legs; split its weight.
			half := w.Div(decimal.NewFromInt(2))
			massY = massY.Add(half)
			massX = massX.Add(half)
		}
	}
	if massX.IsZero() {
		// Entire range sits on the Y side of the active bin.
		return amountX.Mul(BinPrice(activeID, binStep))
	}

	price := BinPrice(activeID, binStep)
	return amountX.Mul(price).Mul(massY).Div(massX)
}

func distance(a, b int32) int32 {
	if a > b {
		return a - b
	}
	return b - a
}
