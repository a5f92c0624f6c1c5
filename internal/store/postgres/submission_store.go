package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// SubmissionStore implements domain.SubmissionStore using PostgreSQL. Every
// submitted transaction gets one row; the confirmation tracker's terminal
// state is written back over it.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

var _ domain.SubmissionStore = (*SubmissionStore)(nil)

// NewSubmissionStore creates a SubmissionStore backed by the given pool.
func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

// Record inserts the audit row for a freshly submitted transaction.
func (s *SubmissionStore) Record(ctx context.Context, sub domain.Submission) error {
	const query = `
		INSERT INTO submissions (id, signature, wallet, operation, state, error_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	_, err := s.pool.Exec(ctx, query,
		sub.ID, sub.Signature, sub.Wallet, sub.Operation, string(sub.State), sub.ErrorCode,
	)
	if err != nil {
		return fmt.Errorf("postgres: record submission %s: %w", sub.Signature, err)
	}
	return nil
}

// UpdateState advances the recorded confirmation state for a signature.
// errorCode is nil except for failed executions.
func (s *SubmissionStore) UpdateState(ctx context.Context, signature string, state domain.ConfirmationState, errorCode *int) error {
	const query = `
		UPDATE submissions
		SET state = $2, error_code = $3, updated_at = NOW()
		WHERE signature = $1`
	tag, err := s.pool.Exec(ctx, query, signature, string(state), errorCode)
	if err != nil {
		return fmt.Errorf("postgres: update submission %s: %w", signature, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update submission %s: %w", signature, domain.ErrNotFound)
	}
	return nil
}

// BySignature returns the audit row for one signature, or ErrNotFound.
func (s *SubmissionStore) BySignature(ctx context.Context, signature string) (domain.Submission, error) {
	const query = `
		SELECT id, signature, wallet, operation, state, error_code, created_at, updated_at
		FROM submissions
		WHERE signature = $1`

	var sub domain.Submission
	var state string
	err := s.pool.QueryRow(ctx, query, signature).Scan(
		&sub.ID, &sub.Signature, &sub.Wallet, &sub.Operation, &state, &sub.ErrorCode,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, fmt.Errorf("postgres: submission %s: %w", signature, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("postgres: load submission %s: %w", signature, err)
	}
	sub.State = domain.ConfirmationState(state)
	return sub, nil
}

// ByWallet lists a wallet's submissions, newest first.
func (s *SubmissionStore) ByWallet(ctx context.Context, wallet string, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, signature, wallet, operation, state, error_code, created_at, updated_at
		FROM submissions
		WHERE wallet = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list submissions for %s: %w", wallet, err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		var state string
		if err := rows.Scan(
			&sub.ID, &sub.Signature, &sub.Wallet, &sub.Operation, &state, &sub.ErrorCode,
			&sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan submission: %w", err)
		}
		sub.State = domain.ConfirmationState(state)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list submissions rows: %w", err)
	}
	return subs, nil
}
