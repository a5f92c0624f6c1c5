package domain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// AccountFilter is a memcmp filter applied to a program-account scan.
type AccountFilter struct {
	Offset uint64
	Bytes  []byte
}

// KeyedAccount pairs an account address with its raw data.
type KeyedAccount struct {
	Address solana.PublicKey
	Data    []byte
}

// LedgerReader is the read side of the ledger RPC endpoint. Implementations
// must honour the caller's context deadline; every call may block on the
// network. AccountData returns ErrNotFound when the account does not exist.
type LedgerReader interface {
	AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error)
	MultipleAccountData(ctx context.Context, addrs []solana.PublicKey) ([][]byte, error)
	ProgramAccounts(ctx context.Context, program solana.PublicKey, filters []AccountFilter) ([]KeyedAccount, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// LedgerSubmitter is the submission side of the ledger RPC endpoint. A
// rejected transaction surfaces as *SubmissionError.
type LedgerSubmitter interface {
	SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// StatusReader answers confirmation status polls for a submitted signature.
type StatusReader interface {
	SignatureStatus(ctx context.Context, sig solana.Signature) (SignatureStatus, error)
}

// PriceSource is the external price oracle: USD price per unit, keyed by
// mint. Partial results are allowed; absent mints are simply missing from
// the returned map.
type PriceSource interface {
	Prices(ctx context.Context, mints []solana.PublicKey) (map[solana.PublicKey]decimal.Decimal, error)
}

// Signer is the external signing capability across the client trust
// boundary. It receives a transport-encoded unsigned transaction and, for
// deposits, the single-use ephemeral position key, and returns the encoded
// signed transaction. A decline surfaces as *SignerRejectedError.
type Signer interface {
	SignTransaction(ctx context.Context, encodedTx string, ephemeral *EphemeralPositionKey) (string, error)
}

// IdentityResolver resolves a wallet address to the signer identity that
// authorizes fund-moving operations. Implementations may serve reads from a
// bounded-TTL cache: staleness up to the TTL is acceptable because the
// lookup only gates authorization, never fund movement itself.
type IdentityResolver interface {
	Identity(ctx context.Context, wallet string) (string, error)
}

// SubmissionStore persists the audit trail of submitted transactions.
type SubmissionStore interface {
	Record(ctx context.Context, sub Submission) error
	UpdateState(ctx context.Context, signature string, state ConfirmationState, errorCode *int) error
	BySignature(ctx context.Context, signature string) (Submission, error)
	ByWallet(ctx context.Context, wallet string, limit int) ([]Submission, error)
}

// RateLimiter bounds request rates per key over a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus is the pub/sub fabric used to broadcast confirmation state
// transitions to interested consumers (the WebSocket hub, primarily).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
