package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/ledger"
)

// SubmissionService defines the operations the transaction handler requires.
type SubmissionService interface {
	SubmitEncoded(ctx context.Context, encodedTx, wallet, operation string) (ledger.ConfirmationResult, error)
	Status(ctx context.Context, signature string) (domain.Submission, error)
	History(ctx context.Context, wallet string, limit int) ([]domain.Submission, error)
}

// TransactionHandler serves transaction submission and status endpoints.
type TransactionHandler struct {
	submissions SubmissionService
	logger      *slog.Logger
}

func NewTransactionHandler(submissions SubmissionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		submissions: submissions,
		logger:      logger,
	}
}

type submitRequest struct {
	WalletAddress     string `json:"walletAddress"`
	SignedTransaction string `json:"signedTransaction"`
	Operation         string `json:"operation"`
}

type submitResponse struct {
	Signature string                   `json:"signature"`
	State     domain.ConfirmationState `json:"state"`
	ErrorCode *int                     `json:"errorCode,omitempty"`
	Error     string                   `json:"error,omitempty"`

	// Hint guides the caller on timed_out: the outcome is unknown, so
	// re-query the signature rather than re-submitting.
	Hint string `json:"hint,omitempty"`
}

// Submit sends a client-signed transaction to the ledger and tracks it to a
// terminal confirmation state. The response always names the final state;
// timed_out means the outcome is unknown, not that the transaction failed.
// POST /api/transaction/submit
func (h *TransactionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := decodeBody(r, &body); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if _, err := parseAddress(body.WalletAddress, "walletAddress"); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if body.SignedTransaction == "" {
		respondError(w, r, h.logger, &domain.ValidationError{Field: "signedTransaction", Reason: "missing"})
		return
	}
	operation := body.Operation
	if operation == "" {
		operation = "unknown"
	}

	result, err := h.submissions.SubmitEncoded(r.Context(), body.SignedTransaction, body.WalletAddress, operation)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp := submitResponse{
		Signature: result.Signature.String(),
		State:     result.State,
	}
	if result.ExecErr != nil {
		code := result.ExecErr.Code
		resp.ErrorCode = &code
		resp.Error = result.ExecErr.Error()
	}
	if result.State == domain.ConfirmationTimedOut {
		resp.Hint = "confirmation status unknown; re-query the signature instead of re-submitting"
	}
	writeJSON(w, http.StatusOK, resp)
}

type submissionView struct {
	ID        string                   `json:"id"`
	Signature string                   `json:"signature"`
	Wallet    string                   `json:"wallet"`
	Operation string                   `json:"operation"`
	State     domain.ConfirmationState `json:"state"`
	ErrorCode *int                     `json:"errorCode,omitempty"`
	CreatedAt string                   `json:"createdAt"`
	UpdatedAt string                   `json:"updatedAt"`
}

// Status returns the audit record for a submitted signature.
// GET /api/transaction/{signature}
func (h *TransactionHandler) Status(w http.ResponseWriter, r *http.Request) {
	signature := r.PathValue("signature")
	if signature == "" {
		respondError(w, r, h.logger, &domain.ValidationError{Field: "signature", Reason: "missing"})
		return
	}

	sub, err := h.submissions.Status(r.Context(), signature)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, submissionView{
		ID:        sub.ID,
		Signature: sub.Signature,
		Wallet:    sub.Wallet,
		Operation: sub.Operation,
		State:     sub.State,
		ErrorCode: sub.ErrorCode,
		CreatedAt: sub.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: sub.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// History lists a wallet's submission audit records, newest first.
// GET /api/transaction?wallet=...&limit=...
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	wallet, err := parseAddress(r.URL.Query().Get("wallet"), "wallet")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, r, h.logger, &domain.ValidationError{Field: "limit", Reason: "not a non-negative integer"})
			return
		}
	}

	subs, err := h.submissions.History(r.Context(), wallet.String(), limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	views := make([]submissionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, submissionView{
			ID:        sub.ID,
			Signature: sub.Signature,
			Wallet:    sub.Wallet,
			Operation: sub.Operation,
			State:     sub.State,
			ErrorCode: sub.ErrorCode,
			CreatedAt: sub.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: sub.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": views})
}
