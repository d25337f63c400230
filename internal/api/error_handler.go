package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrClientNotFound):
		return http.StatusNotFound, errorResponse{Error: "client not found"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrMovieNotFound):
		return http.StatusNotFound, errorResponse{Error: "movie not found"}
	case errors.Is(err, domain.ErrTicketNotFound):
		return http.StatusNotFound, errorResponse{Error: "ticket not found"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists"}
	case errors.Is(err, domain.ErrIdentityConflict):
		return http.StatusConflict, errorResponse{Error: "identity conflict"}
	case errors.Is(err, domain.ErrNoSeatsAvailable):
		return http.StatusConflict, errorResponse{Error: "no seats available"}
	case errors.Is(err, domain.ErrClientInactive):
		return http.StatusUnprocessableEntity, errorResponse{Error: "client inactive"}
	case errors.Is(err, domain.ErrInvalidMovie),
		errors.Is(err, domain.ErrInvalidTicketType),
		errors.Is(err, domain.ErrMalformedMessage):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrPreconditionNeeded):
		return http.StatusPreconditionRequired, errorResponse{Error: "If-Match header required"}
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusPreconditionFailed, errorResponse{Error: "precondition failed", Reason: preconditionReason(err)}
	case isTokenError(err):
		return http.StatusUnauthorized, errorResponse{Error: "invalid token", Reason: metrics.TokenReason(err)}
	case isSignatureError(err):
		return http.StatusUnprocessableEntity, errorResponse{Error: "signature rejected", Reason: metrics.SignatureReason(err)}
	case errors.Is(err, domain.ErrReplicationPublish):
		return http.StatusServiceUnavailable, errorResponse{Error: "replication unavailable"}
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("storage unavailable")
		return http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

func isTokenError(err error) bool {
	return errors.Is(err, domain.ErrTokenMalformed) ||
		errors.Is(err, domain.ErrTokenExpired) ||
		errors.Is(err, domain.ErrTokenSignature) ||
		errors.Is(err, domain.ErrTokenSubjectMismatch) ||
		errors.Is(err, domain.ErrTokenSubjectInactive)
}

func isSignatureError(err error) bool {
	return errors.Is(err, domain.ErrSignatureMalformed) ||
		errors.Is(err, domain.ErrSignatureInvalid) ||
		errors.Is(err, domain.ErrSignatureKindMismatch) ||
		errors.Is(err, domain.ErrSignatureEntityMismatch) ||
		errors.Is(err, domain.ErrUnsignableEntity)
}

// preconditionReason names why an If-Match signature was refused. Without
// a signature error the movie changed between the check and the write.
func preconditionReason(err error) string {
	if !isSignatureError(err) {
		return "concurrent_update"
	}
	return metrics.SignatureReason(err)
}
