// Package ledger adapts the Solana JSON-RPC endpoint to the domain ports:
// account reads, transaction submission, and signature status polls. Every
// call carries its own timeout on top of the caller's context so one hung
// RPC node cannot stall a whole request.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

const defaultCallTimeout = 10 * time.Second

// Client implements domain.LedgerReader, domain.LedgerSubmitter, and
// domain.StatusReader over a single RPC connection.
type Client struct {
	rpc         *solanarpc.Client
	commitment  solanarpc.CommitmentType
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithCommitment sets the commitment level used for reads.
func WithCommitment(c solanarpc.CommitmentType) Option {
	return func(cl *Client) { cl.commitment = c }
}

// WithCallTimeout bounds each individual RPC call.
func WithCallTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.callTimeout = d }
}

// New creates a Client against the given RPC endpoint.
func New(endpoint string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		rpc:         solanarpc.New(endpoint),
		commitment:  solanarpc.CommitmentConfirmed,
		callTimeout: defaultCallTimeout,
		logger:      logger.With(slog.String("component", "ledger")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}

// AccountData returns the raw data of one account, or domain.ErrNotFound.
func (c *Client) AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.GetAccountInfoWithOpts(ctx, addr, &solanarpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, solanarpc.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ledger: get account %s: %w", addr, err)
	}
	if resp == nil || resp.Value == nil {
		return nil, domain.ErrNotFound
	}
	return resp.Value.Data.GetBinary(), nil
}

// MultipleAccountData returns raw data for each address; missing accounts
// yield a nil entry at their index.
func (c *Client) MultipleAccountData(ctx context.Context, addrs []solana.PublicKey) ([][]byte, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.GetMultipleAccountsWithOpts(ctx, addrs, &solanarpc.GetMultipleAccountsOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: get multiple accounts: %w", err)
	}
	if resp == nil || resp.Value == nil {
		return nil, domain.ErrNotFound
	}

	out := make([][]byte, len(addrs))
	for i, acct := range resp.Value {
		if acct == nil {
			continue
		}
		out[i] = acct.Data.GetBinary()
	}
	return out, nil
}

// ProgramAccounts scans a program's accounts with memcmp filters.
func (c *Client) ProgramAccounts(ctx context.Context, program solana.PublicKey, filters []domain.AccountFilter) ([]domain.KeyedAccount, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rpcFilters := make([]solanarpc.RPCFilter, 0, len(filters))
	for _, f := range filters {
		rpcFilters = append(rpcFilters, solanarpc.RPCFilter{
			Memcmp: &solanarpc.RPCFilterMemcmp{Offset: f.Offset, Bytes: f.Bytes},
		})
	}

	accs, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, &solanarpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Filters:    rpcFilters,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: get program accounts: %w", err)
	}

	out := make([]domain.KeyedAccount, 0, len(accs))
	for _, a := range accs {
		if a == nil || a.Account == nil {
			continue
		}
		out = append(out, domain.KeyedAccount{
			Address: a.Pubkey,
			Data:    a.Account.Data.GetBinary(),
		})
	}
	return out, nil
}

// LatestBlockhash fetches a fresh blockhash for transaction composition.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("ledger: get latest blockhash: %w", err)
	}
	return resp.Value.Blockhash, nil
}

// SubmitTransaction sends a fully signed transaction. Rejections before
// execution surface as *domain.SubmissionError.
func (c *Client) SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, &domain.SubmissionError{Cause: err}
	}

	c.logger.InfoContext(ctx, "transaction submitted",
		slog.String("signature", sig.String()),
	)
	return sig, nil
}

// SignatureStatus answers one confirmation poll for a signature.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature) (domain.SignatureStatus, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return domain.SignatureStatus{}, fmt.Errorf("ledger: get signature status: %w", err)
	}
	if resp == nil || len(resp.Value) == 0 || resp.Value[0] == nil {
		// The node has not observed the signature yet.
		return domain.SignatureStatus{Known: false}, nil
	}

	st := resp.Value[0]
	out := domain.SignatureStatus{Known: true}

	switch st.ConfirmationStatus {
	case solanarpc.ConfirmationStatusFinalized:
		out.Commitment = domain.CommitmentFinalized
	case solanarpc.ConfirmationStatusConfirmed:
		out.Commitment = domain.CommitmentConfirmed
	default:
		out.Commitment = domain.CommitmentProcessed
	}

	if st.Err != nil {
		out.Err = parseProgramError(st.Err)
	}
	return out, nil
}

// Interface checks.
var (
	_ domain.LedgerReader    = (*Client)(nil)
	_ domain.LedgerSubmitter = (*Client)(nil)
	_ domain.StatusReader    = (*Client)(nil)
)
