package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// RebuildFunc re-composes and re-signs a transaction against a fresh
// blockhash. Flows that cannot re-sign (the signer lives on the other side
// of the trust boundary) pass nil and take the submission error as-is.
type RebuildFunc func(ctx context.Context) (*solana.Transaction, error)

// Submitter sends signed transactions to the ledger, retrying once with a
// freshly built transaction when the first attempt is rejected before
// execution and a rebuild path exists.
type Submitter struct {
	ledger domain.LedgerSubmitter
	logger *slog.Logger
}

// NewSubmitter creates a Submitter over the given ledger endpoint.
func NewSubmitter(ledger domain.LedgerSubmitter, logger *slog.Logger) *Submitter {
	return &Submitter{
		ledger: ledger,
		logger: logger.With(slog.String("component", "submitter")),
	}
}

// Submit sends the transaction. On a submission-time rejection (stale
// blockhash, insufficient fee) it retries exactly once via rebuild when one
// is provided; the second rejection is surfaced.
func (s *Submitter) Submit(ctx context.Context, tx *solana.Transaction, rebuild RebuildFunc) (solana.Signature, error) {
	sig, err := s.ledger.SubmitTransaction(ctx, tx)
	if err == nil {
		return sig, nil
	}

	var subErr *domain.SubmissionError
	if !errors.As(err, &subErr) || rebuild == nil {
		return solana.Signature{}, err
	}

	s.logger.WarnContext(ctx, "submission rejected, rebuilding with fresh blockhash",
		slog.String("error", subErr.Error()),
	)

	fresh, rebuildErr := rebuild(ctx)
	if rebuildErr != nil {
		// Surface the original rejection; the rebuild failure is secondary.
		s.logger.WarnContext(ctx, "rebuild failed", slog.String("error", rebuildErr.Error()))
		return solana.Signature{}, err
	}

	sig, err = s.ledger.SubmitTransaction(ctx, fresh)
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}
