package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/ledger"
)

type fakeSubmissions struct {
	result     ledger.ConfirmationResult
	submitErr  error
	submission domain.Submission
	statusErr  error
	history    []domain.Submission

	lastEncoded   string
	lastOperation string
}

func (f *fakeSubmissions) SubmitEncoded(ctx context.Context, encodedTx, wallet, operation string) (ledger.ConfirmationResult, error) {
	f.lastEncoded = encodedTx
	f.lastOperation = operation
	return f.result, f.submitErr
}

func (f *fakeSubmissions) Status(ctx context.Context, signature string) (domain.Submission, error) {
	return f.submission, f.statusErr
}

func (f *fakeSubmissions) History(ctx context.Context, wallet string, limit int) ([]domain.Submission, error) {
	return f.history, nil
}

func TestSubmitReportsTerminalState(t *testing.T) {
	sig := solana.SignatureFromBytes(bytesOfLen(64, 7))
	fake := &fakeSubmissions{
		result: ledger.ConfirmationResult{Signature: sig, State: domain.ConfirmationConfirmed},
	}
	h := NewTransactionHandler(fake, testHandlerLogger())

	rec := postJSON(t, h.Submit, "/api/transaction/submit", map[string]any{
		"walletAddress":     solana.NewWallet().PublicKey().String(),
		"signedTransaction": "AQAB",
		"operation":         domain.OpDeposit,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Signature string `json:"signature"`
		State     string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, sig.String(), resp.Signature)
	assert.Equal(t, "confirmed", resp.State)
	assert.Equal(t, domain.OpDeposit, fake.lastOperation)
}

func TestSubmitCarriesExecutionError(t *testing.T) {
	sig := solana.SignatureFromBytes(bytesOfLen(64, 9))
	fake := &fakeSubmissions{
		result: ledger.ConfirmationResult{
			Signature: sig,
			State:     domain.ConfirmationFailed,
			ExecErr:   &domain.ExecutionError{Code: 6030, Reason: "position still holds funds"},
		},
	}
	h := NewTransactionHandler(fake, testHandlerLogger())

	rec := postJSON(t, h.Submit, "/api/transaction/submit", map[string]any{
		"walletAddress":     solana.NewWallet().PublicKey().String(),
		"signedTransaction": "AQAB",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		State     string `json:"state"`
		ErrorCode *int   `json:"errorCode"`
		Error     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.State)
	require.NotNil(t, resp.ErrorCode)
	assert.Equal(t, 6030, *resp.ErrorCode)
	assert.Contains(t, resp.Error, "still holds funds")
}

func TestSubmitRejectsMissingTransaction(t *testing.T) {
	h := NewTransactionHandler(&fakeSubmissions{}, testHandlerLogger())

	rec := postJSON(t, h.Submit, "/api/transaction/submit", map[string]any{
		"walletAddress": solana.NewWallet().PublicKey().String(),
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"signedTransaction"`)
}

func TestStatusFormatsTimestamps(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	fake := &fakeSubmissions{
		submission: domain.Submission{
			ID:        "a7c8",
			Signature: "5sig",
			Wallet:    "wallet",
			Operation: domain.OpClosePosition,
			State:     domain.ConfirmationFinalized,
			CreatedAt: created,
			UpdatedAt: created.Add(11 * time.Second),
		},
	}
	h := NewTransactionHandler(fake, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/transaction/5sig", nil)
	req.SetPathValue("signature", "5sig")
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp submissionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "finalized", string(resp.State))
	assert.Equal(t, "2026-03-14T09:26:53Z", resp.CreatedAt)
	assert.Equal(t, "2026-03-14T09:27:04Z", resp.UpdatedAt)
}

func TestStatusUnknownSignatureIs404(t *testing.T) {
	h := NewTransactionHandler(&fakeSubmissions{statusErr: domain.ErrNotFound}, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/transaction/nope", nil)
	req.SetPathValue("signature", "nope")
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryListIsNeverNull(t *testing.T) {
	h := NewTransactionHandler(&fakeSubmissions{}, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/api/transaction?wallet="+solana.NewWallet().PublicKey().String(), nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"submissions":[]`)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	h := NewTransactionHandler(&fakeSubmissions{}, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/api/transaction?wallet="+solana.NewWallet().PublicKey().String()+"&limit=-2", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"limit"`)
}

func bytesOfLen(n int, fill byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = fill
	}
	return out
}
