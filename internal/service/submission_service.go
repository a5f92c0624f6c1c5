package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/ledger"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/txcodec"
)

// Submitter sends a signed transaction to the ledger, optionally retrying
// once through a rebuild path.
type Submitter interface {
	Submit(ctx context.Context, tx *solana.Transaction, rebuild ledger.RebuildFunc) (solana.Signature, error)
}

// Tracker runs the bounded confirmation poll for a submitted signature.
type Tracker interface {
	Track(ctx context.Context, sig solana.Signature) (ledger.ConfirmationResult, error)
}

// SubmissionService carries signed transactions through submission,
// confirmation tracking, and the persistent audit trail.
type SubmissionService struct {
	submitter Submitter
	tracker   Tracker
	store     domain.SubmissionStore
	logger    *slog.Logger
}

func NewSubmissionService(submitter Submitter, tracker Tracker, store domain.SubmissionStore, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{
		submitter: submitter,
		tracker:   tracker,
		store:     store,
		logger:    logger.With(slog.String("component", "submission")),
	}
}

// SubmitEncoded decodes a client-signed transaction and runs it through
// SubmitAndTrack. The encoded form is the transport encoding the signing
// relay produced.
func (s *SubmissionService) SubmitEncoded(ctx context.Context, encodedTx, wallet, operation string) (ledger.ConfirmationResult, error) {
	tx, err := txcodec.Decode(encodedTx)
	if err != nil {
		return ledger.ConfirmationResult{}, &domain.ValidationError{Field: "signedTransaction", Reason: err.Error()}
	}
	return s.SubmitAndTrack(ctx, tx, wallet, operation, nil)
}

// SubmitAndTrack submits the transaction, records it in the audit trail,
// tracks confirmation to a terminal state, and writes that state back. A
// failed audit write never fails the operation; the ledger outcome is what
// matters.
func (s *SubmissionService) SubmitAndTrack(ctx context.Context, tx *solana.Transaction, wallet, operation string, rebuild ledger.RebuildFunc) (ledger.ConfirmationResult, error) {
	sig, err := s.submitter.Submit(ctx, tx, rebuild)
	if err != nil {
		return ledger.ConfirmationResult{}, err
	}

	now := time.Now().UTC()
	sub := domain.Submission{
		ID:        uuid.NewString(),
		Signature: sig.String(),
		Wallet:    wallet,
		Operation: operation,
		State:     domain.ConfirmationSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Record(ctx, sub); err != nil {
		s.logger.WarnContext(ctx, "audit record failed",
			slog.String("signature", sub.Signature),
			slog.String("error", err.Error()),
		)
	}

	result, err := s.tracker.Track(ctx, sig)
	if err != nil {
		return ledger.ConfirmationResult{Signature: sig, State: domain.ConfirmationSubmitted}, err
	}

	var errCode *int
	if result.ExecErr != nil {
		code := result.ExecErr.Code
		errCode = &code
	}
	if err := s.store.UpdateState(ctx, sig.String(), result.State, errCode); err != nil {
		s.logger.WarnContext(ctx, "audit update failed",
			slog.String("signature", sig.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "transaction tracked to terminal state",
		slog.String("signature", sig.String()),
		slog.String("operation", operation),
		slog.String("state", string(result.State)),
	)
	return result, nil
}

// Status returns the audit record for a signature.
func (s *SubmissionService) Status(ctx context.Context, signature string) (domain.Submission, error) {
	return s.store.BySignature(ctx, signature)
}

// History lists a wallet's submissions, newest first.
func (s *SubmissionService) History(ctx context.Context, wallet string, limit int) ([]domain.Submission, error) {
	return s.store.ByWallet(ctx, wallet, limit)
}
