package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/redis"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		invErr   *model.DataInvariantError
		cfgErr   *model.ConfigurationError
		dupErr   *model.DoubleAssignmentError
		validErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validErr):
		return http.StatusBadRequest
	case errors.As(err, &invErr), errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &dupErr),
		errors.Is(err, ledger.ErrDuplicateTransaction),
		errors.Is(err, ledger.ErrInvalidTransition),
		errors.Is(err, ledger.ErrNotEligible),
		errors.Is(err, redis.ErrLockHeld),
		errors.Is(err, redis.ErrKeyExists):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrTransactionNotFound), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, redis.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err on the request logger and answers with msg. Client
// errors carry the underlying message; server errors do not.
func WriteError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := StatusFor(err)
	logger := GetLogger(r.Context())

	body := errorResponse{Error: msg, RequestID: GetRequestID(r)}
	if status < http.StatusInternalServerError {
		logger.Warn().Err(err).Int("status", status).Msg(msg)
		body.Error = msg + ": " + err.Error()
	} else {
		logger.Error().Stack().Err(err).Int("status", status).Msg(msg)
	}
	WriteJSON(w, status, body)
}
