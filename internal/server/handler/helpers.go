package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gagliardetto/solana-go"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// writeJSON marshals v as JSON and writes it with the given status code. If
// marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps the pipeline's error taxonomy onto HTTP responses.
// PositionNotEmpty gets a structured body carrying the residual amounts so
// the caller can present them.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
		return
	}

	var notEmpty *domain.PositionNotEmptyError
	if errors.As(err, &notEmpty) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":           "PositionNotEmpty",
			"message":         notEmpty.Error(),
			"positionAddress": notEmpty.Position.String(),
			"rhunAmount":      notEmpty.RhunAmount,
			"solAmount":       notEmpty.SolAmount,
		})
		return
	}

	var rejected *domain.SignerRejectedError
	if errors.As(err, &rejected) {
		writeError(w, http.StatusBadRequest, rejected.Error())
		return
	}

	var subErr *domain.SubmissionError
	if errors.As(err, &subErr) {
		writeError(w, http.StatusBadGateway, subErr.Error())
		return
	}

	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": execErr.Error(),
			"code":  execErr.Code,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized")
	default:
		logger.ErrorContext(r.Context(), "handler: internal error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseAddress decodes a base58 account address, reporting the offending
// field on failure.
func parseAddress(value, field string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, &domain.ValidationError{Field: field, Reason: "missing"}
	}
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, &domain.ValidationError{Field: field, Reason: "not a valid base58 address"}
	}
	return pk, nil
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}
