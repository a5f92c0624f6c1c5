package service

import (
	"context"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// TransactionSigner carries an unsigned transaction across the signing
// boundary and returns it signed.
type TransactionSigner interface {
	Sign(ctx context.Context, tx *solana.Transaction, ephemeral *domain.EphemeralPositionKey) (*solana.Transaction, error)
}

// ClaimOutcome is the per-sub-operation result of an executed claim.
type ClaimOutcome struct {
	Label     string                   `json:"label"`
	Signature string                   `json:"signature,omitempty"`
	State     domain.ConfirmationState `json:"state,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// ClaimOrchestrator executes a claim end to end: plan, sign, submit, track.
// Used by operational tooling where a local signer is available; the HTTP
// surface hands unsigned plans to the client instead.
type ClaimOrchestrator struct {
	liquidity   *LiquidityService
	signer      TransactionSigner
	submissions *SubmissionService
	logger      *slog.Logger
}

func NewClaimOrchestrator(liquidity *LiquidityService, signer TransactionSigner, submissions *SubmissionService, logger *slog.Logger) *ClaimOrchestrator {
	return &ClaimOrchestrator{
		liquidity:   liquidity,
		signer:      signer,
		submissions: submissions,
		logger:      logger.With(slog.String("component", "claim_orchestrator")),
	}
}

// ExecuteClaim builds and executes the claim plan for the request. Signing
// is sequential; submission and tracking run concurrently per transaction.
// A sub-operation failure lands in its outcome, it does not abort the
// others. An empty plan returns no outcomes and no error.
func (o *ClaimOrchestrator) ExecuteClaim(ctx context.Context, req domain.ClaimRequest) ([]ClaimOutcome, error) {
	plan, err := o.liquidity.Claim(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(plan.Transactions) == 0 {
		o.logger.InfoContext(ctx, "nothing to claim",
			slog.String("wallet", req.Wallet.String()),
			slog.String("type", string(req.Type)),
		)
		return nil, nil
	}

	signed := make([]domain.BuiltTransaction, 0, len(plan.Transactions))
	outcomes := make([]ClaimOutcome, len(plan.Transactions))
	for i, built := range plan.Transactions {
		tx, err := o.signer.Sign(ctx, built.Tx, nil)
		if err != nil {
			// A declined signature stops the whole claim; submitting a
			// partial set behind the user's back is worse than retrying.
			return nil, err
		}
		signed = append(signed, domain.BuiltTransaction{Label: built.Label, Tx: tx})
		outcomes[i].Label = built.Label
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, built := range signed {
		g.Go(func() error {
			result, err := o.submissions.SubmitAndTrack(gctx, built.Tx, req.Wallet.String(), built.Label, nil)
			if err != nil {
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Signature = result.Signature.String()
			outcomes[i].State = result.State
			if result.ExecErr != nil {
				outcomes[i].Error = result.ExecErr.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
