package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"site-materials/internal/core"
)

type errorResponse struct {
	Error      string           `json:"error"`
	Code       string           `json:"code"`
	RequestID  string           `json:"request_id,omitempty"`
	Shortfalls []core.Shortfall `json:"shortfalls,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps domain errors to HTTP statuses. Insufficient stock
// responses carry the full shortfall list so a client can show every failing
// line, not just the first.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		notFoundErr   *core.NotFoundError
		stockErr      *core.InsufficientStockError
		conflictErr   *core.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, validationErr.Error(), "VALIDATION_FAILED", http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		writeError(w, r, notFoundErr.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &stockErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:      stockErr.Error(),
			Code:       "INSUFFICIENT_STOCK",
			RequestID:  requestIDFromContext(r.Context()),
			Shortfalls: stockErr.Shortfalls,
		})
	case errors.As(err, &conflictErr):
		writeError(w, r, conflictErr.Error(), "CONFLICT", http.StatusConflict)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
