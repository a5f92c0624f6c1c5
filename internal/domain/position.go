// Package domain defines the core types shared across the liquidity
// transaction pipeline: pools, positions, bin snapshots, claim requests, and
// the confirmation state machine vocabulary.
package domain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Pool describes the DLMM pair the pipeline operates against. Immutable once
// referenced; fetched from the ledger at request time.
type Pool struct {
	Address        solana.PublicKey
	TokenXMint     solana.PublicKey
	TokenYMint     solana.PublicKey
	TokenXDecimals uint8
	TokenYDecimals uint8
	BinStep        uint16
	ActiveBinID    int32

	// ReserveX/ReserveY are the pool vault accounts, needed when composing
	// liquidity and claim instructions.
	ReserveX solana.PublicKey
	ReserveY solana.PublicKey

	// RewardMints holds the liquidity-mining reward token mints. A zero key
	// means the reward slot is not enrolled; accounting treats it as zero
	// and the claim builder skips it.
	RewardMints  [2]solana.PublicKey
	RewardVaults [2]solana.PublicKey
}

// RewardEnrolled reports whether the pool has at least one active
// liquidity-mining reward slot.
func (p Pool) RewardEnrolled() bool {
	return !p.RewardMints[0].IsZero() || !p.RewardMints[1].IsZero()
}

// Bin is a read-only per-bin slice of a position's liquidity, snapshotted
// from the ledger. Amounts are native integer units of the respective mint.
// Fee and reward fields default to zero when the on-chain account carries no
// value for them; absence is a typed zero, not an error.
type Bin struct {
	BinID   int32
	AmountX uint64
	AmountY uint64

	// Unclaimed swap fees attributable to this bin.
	FeeX uint64
	FeeY uint64

	// Unclaimed liquidity-mining rewards per reward slot.
	Rewards [2]uint64
}

// Position is a wallet's liquidity stake in one pool. It exclusively owns its
// Bin snapshot for the duration of one request; snapshots are never cached
// across requests or mutated locally.
type Position struct {
	Address    solana.PublicKey
	Owner      solana.PublicKey
	Pool       solana.PublicKey
	LowerBinID int32
	UpperBinID int32
	Bins       []Bin

	LastUpdatedAt int64
}

// TotalAmountX sums the native tokenX amount across every bin. Accounting
// code must derive totals through this method (or TotalAmountY) so that no
// bin is silently dropped.
func (p Position) TotalAmountX() uint64 {
	var total uint64
	for _, b := range p.Bins {
		total += b.AmountX
	}
	return total
}

// TotalAmountY sums the native tokenY amount across every bin.
func (p Position) TotalAmountY() uint64 {
	var total uint64
	for _, b := range p.Bins {
		total += b.AmountY
	}
	return total
}

// PendingFees sums unclaimed swap fees across bins, native units.
func (p Position) PendingFees() (feeX, feeY uint64) {
	for _, b := range p.Bins {
		feeX += b.FeeX
		feeY += b.FeeY
	}
	return feeX, feeY
}

// PendingRewards sums unclaimed liquidity-mining rewards per reward slot.
func (p Position) PendingRewards() [2]uint64 {
	var totals [2]uint64
	for _, b := range p.Bins {
		totals[0] += b.Rewards[0]
		totals[1] += b.Rewards[1]
	}
	return totals
}

// HumanAmount converts a native integer amount to human units using the
// asset's decimal precision.
func HumanAmount(native uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(native).Shift(-int32(decimals))
}
