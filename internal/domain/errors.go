package domain

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Sentinel errors resolved entirely locally or mapped directly to a response.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPriceUnavailable    = errors.New("price unavailable")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	ErrContextDone         = errors.New("context cancelled")
)

// ValidationError names the offending input field. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PositionNotEmptyError is the business-rule rejection for closing a
// position whose residual token amounts sit above the dust threshold. It is
// computed locally before any network call and carries the measured amounts
// so the caller can decide to withdraw first.
type PositionNotEmptyError struct {
	Position   solana.PublicKey
	RhunAmount decimal.Decimal
	SolAmount  decimal.Decimal
}

func (e *PositionNotEmptyError) Error() string {
	return fmt.Sprintf("position %s still holds funds (%s RHUN, %s SOL); withdraw all liquidity before closing",
		e.Position, e.RhunAmount, e.SolAmount)
}

// SignerRejectedError means the external signer declined or errored. Not
// retried automatically; the caller re-initiates.
type SignerRejectedError struct {
	Reason string
}

func (e *SignerRejectedError) Error() string {
	return "signer rejected transaction: " + e.Reason
}

// SubmissionError means the ledger rejected the transaction before
// execution (stale blockhash, insufficient fee, malformed payload).
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	return "transaction submission rejected: " + e.Cause.Error()
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// ExecutionError means the ledger executed the transaction and it failed.
// Code is the raw program error code; Reason is the mapped human-readable
// explanation when the code is recognized.
type ExecutionError struct {
	Code   int
	Reason string
	Raw    string
}

func (e *ExecutionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transaction failed on-chain (code %d): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("transaction failed on-chain: %s", e.Raw)
}
