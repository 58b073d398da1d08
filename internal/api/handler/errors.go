package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gameportal/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// writeLoggedError writes the error and logs it when it maps to a server fault
func writeLoggedError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if apierr.StatusOf(err) >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewRateLimitedError creates a too-many-requests error
func NewRateLimitedError() error {
	return apierr.NewRateLimitedError()
}
