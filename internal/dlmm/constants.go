// Package dlmm speaks the bin-based liquidity market-maker program:
// account layouts, PDA derivation, anchor instruction composition, and bin
// price math. It never talks to the network itself; callers feed it raw
// account data and receive instructions back.
package dlmm

import (
	"github.com/gagliardetto/solana-go"
)

// Well-known program addresses.
var (
	ProgramID             = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	SystemProgramID       = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	TokenProgramID        = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

const (
	// BasisPointMax scales bin steps: price ratio per bin is
	// 1 + binStep/BasisPointMax.
	BasisPointMax = 10000

	// MaxBinPerArray is the number of bins held by one BinArray account.
	MaxBinPerArray = 70

	// MaxBinPerPosition is the widest bin span a single position account
	// can cover.
	MaxBinPerPosition = 70

	// MaxActiveBinSlippage is the default tolerated active-bin drift, in
	// bins, between build time and execution.
	MaxActiveBinSlippage = 3

	// RewardSlots is the number of liquidity-mining reward programs a pool
	// can enrol in.
	RewardSlots = 2
)

// Custom program error codes the pipeline recognizes, with user-facing
// reasons. Unrecognized codes surface with the raw payload only.
const (
	ErrCodeInvalidStartBinIndex = 6000
	ErrCodeExceededAmountSlippage = 6004
	ErrCodeExceededBinSlippage    = 6005
	ErrCodeNonEmptyPosition       = 6030
	ErrCodeInvalidPositionWidth   = 6033
)

// ErrorReasons maps recognized program error codes to descriptive messages.
// The non-empty-position code deliberately reuses the same wording as the
// local pre-check so both paths read identically to the user.
var ErrorReasons = map[int]string{
	ErrCodeInvalidStartBinIndex:   "deposit bin range starts outside the pool's valid bin span",
	ErrCodeExceededAmountSlippage: "token amount moved beyond the allowed slippage before execution",
	ErrCodeExceededBinSlippage:    "active bin moved beyond the allowed slippage before execution",
	ErrCodeNonEmptyPosition:       "position still holds funds; withdraw all liquidity before closing",
	ErrCodeInvalidPositionWidth:   "position width exceeds the maximum bins per position",
}
