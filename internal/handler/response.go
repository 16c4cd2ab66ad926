package handler

// RESPONSE HELPERS:
// Every handler sends JSON through these two functions so the API has one
// response vocabulary instead of seven slightly different ones.
//
// ERROR FORMAT:
// All failures share the same shape:
//
//	{"error": "access_denied", "message": "access denied"}
//
// The "error" field is a stable machine-readable tag — clients branch on it,
// so its values are part of the API contract and never change casually. The
// "message" field is for humans and may be reworded freely.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rahim/student-portal/internal/apperror"
)

// ErrorResponse is the standard error body returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // stable machine-readable tag
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be written before the body: once Encode calls
// w.Write, the headers are on the wire and further changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto an HTTP status and the stable tag.
//
// The service layer speaks apperror kinds, never status codes — this switch
// is the single place where the two vocabularies meet:
//
//	validation_error      → 400  (bad input)
//	unauthorized          → 401  (no usable identity)
//	invalid_credentials   → 401  (login failed, cause undisclosed)
//	access_denied         → 403  (identity present, role says no)
//	not_found             → 404  (no such record)
//	uniqueness_violation  → 409  (email/address already taken)
//	invalid_target        → 422  (operation doesn't apply to this record)
//
// errors.Is walks the wrapped chain, so a service error like
// fmt.Errorf("updating marks: %w", apperror.InvalidTarget(...)) still maps
// correctly.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		tag := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			tag = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			tag = "unauthorized"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			tag = "invalid_credentials"
		case errors.Is(err, apperror.ErrAccessDenied):
			status = http.StatusForbidden
			tag = "access_denied"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			tag = "not_found"
		case errors.Is(err, apperror.ErrUniqueness):
			status = http.StatusConflict
			tag = "uniqueness_violation"
		case errors.Is(err, apperror.ErrInvalidTarget):
			status = http.StatusUnprocessableEntity
			tag = "invalid_target"
		}

		writeJSON(w, status, ErrorResponse{Error: tag, Message: appErr.Message})
		return
	}

	// Unknown error — a generic 500. The raw message stays out of the
	// response: it may carry SQL fragments or file paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
