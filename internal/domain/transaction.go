package domain

import (
	"github.com/gagliardetto/solana-go"
)

// BuiltTransaction is one unsigned transaction produced by the builder,
// labelled with the sub-operation it performs so the orchestrator can report
// per-sub-operation outcomes.
type BuiltTransaction struct {
	Label string
	Tx    *solana.Transaction
}

// Sub-operation labels used by the builder and orchestrator.
const (
	OpDeposit       = "deposit"
	OpClaimSwapFees = "claim_swap_fees"
	OpClaimRewards  = "claim_lm_rewards"
	OpClosePosition = "close_position"
)

// EphemeralPositionKey is the keypair minted for a brand-new position
// account, which must co-sign its own creation.
//
// Lifecycle contract: generated by the transaction builder, transmitted
// exactly once to the caller alongside the unsigned deposit transaction,
// used exactly once to co-sign, then discarded. The server holds no copy
// after the response is written; callers must treat it as a single-use
// capability and never persist it.
type EphemeralPositionKey struct {
	Position solana.PublicKey
	Secret   solana.PrivateKey
}

// Encode returns the transport form of the secret key (base58). The result
// is subject to the same single-use contract as the key itself.
func (k EphemeralPositionKey) Encode() string {
	return k.Secret.String()
}

// Discard zeroes the secret key material in place.
func (k *EphemeralPositionKey) Discard() {
	for i := range k.Secret {
		k.Secret[i] = 0
	}
	k.Secret = nil
}

// DepositBundle is the builder's output for an open-position-and-deposit
// operation: the unsigned transaction, the new position's address, and the
// single-use key the caller needs to co-sign.
type DepositBundle struct {
	Tx              *solana.Transaction
	PositionAddress solana.PublicKey
	EphemeralKey    EphemeralPositionKey
}
