package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// ClaimType selects which reward programs a claim request targets.
type ClaimType string

const (
	ClaimTypeSwap ClaimType = "swap"
	ClaimTypeLM   ClaimType = "lm"
	ClaimTypeAll  ClaimType = "all"
)

// Valid reports whether the claim type is one of the allowed values.
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeSwap, ClaimTypeLM, ClaimTypeAll:
		return true
	}
	return false
}

// ClaimRequest is the immutable input value object for a claim operation,
// constructed per call.
type ClaimRequest struct {
	Wallet    solana.PublicKey
	Pool      solana.PublicKey
	Type      ClaimType
	Positions []solana.PublicKey
}

// Strategy selects the liquidity distribution shape for a deposit.
type Strategy string

const (
	StrategySpot   Strategy = "spot"
	StrategyBidAsk Strategy = "bidask"
	StrategyCurve  Strategy = "curve"
)

// Valid reports whether the strategy is one of the allowed values.
func (s Strategy) Valid() bool {
	switch s {
	case StrategySpot, StrategyBidAsk, StrategyCurve:
		return true
	}
	return false
}

// Deposit bin-range bounds, in bins on each side of the active bin.
const (
	MinBinRange = 1
	MaxBinRange = 50
)

// DepositRequest is the input for an open-position-and-deposit operation.
// Amounts are human units (already adjusted for decimals).
type DepositRequest struct {
	Wallet   solana.PublicKey
	Pool     solana.PublicKey
	AmountX  decimal.Decimal
	AmountY  decimal.Decimal
	Strategy Strategy
	BinRange int

	// AutoFill requests that the tokenY leg be computed from the current
	// active-bin price instead of taken from AmountY.
	AutoFill bool
}

// ConfirmationState is the per-signature confirmation state machine state.
type ConfirmationState string

const (
	ConfirmationSubmitted ConfirmationState = "submitted"
	ConfirmationPending   ConfirmationState = "pending"
	ConfirmationConfirmed ConfirmationState = "confirmed"
	ConfirmationFinalized ConfirmationState = "finalized"
	ConfirmationFailed    ConfirmationState = "failed"
	ConfirmationTimedOut  ConfirmationState = "timed_out"
)

// Terminal reports whether the state ends tracking. TimedOut is terminal for
// the tracker but does NOT mean the transaction failed; only that its status
// could not be observed within the retry budget.
func (s ConfirmationState) Terminal() bool {
	switch s {
	case ConfirmationConfirmed, ConfirmationFinalized, ConfirmationFailed, ConfirmationTimedOut:
		return true
	}
	return false
}

// Commitment is the ledger's reported commitment depth for a signature.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// SignatureStatus is one status poll result for a submitted signature.
type SignatureStatus struct {
	// Known is false when the queried node has not observed the signature
	// at all yet; the tracker stays in Submitted and retries.
	Known      bool
	Commitment Commitment

	// Err carries the program-level execution error attached to the
	// signature, when the transaction landed and failed.
	Err *ProgramError
}

// ProgramError is an on-chain execution error extracted from the ledger's
// status response.
type ProgramError struct {
	// Code is the custom program error code, or -1 when the error did not
	// carry one.
	Code int

	// Raw preserves the ledger's error payload for logging.
	Raw string
}

// Submission is the audit record persisted for every submitted transaction.
type Submission struct {
	ID        string
	Signature string
	Wallet    string
	Operation string
	State     ConfirmationState
	ErrorCode *int
	CreatedAt time.Time
	UpdatedAt time.Time
}
