package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// Context keys set by Auth.
const (
	ClaimsKey = "claims"
	LoginKey  = "login"
	RoleKey   = "role"
)

// Auth authenticates the bearer token and injects its claims into context.
// Every rejection is explicit; a bad token is never treated as anonymous.
func Auth(authenticator ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("malformed").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := authenticator.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				reason := metrics.TokenReason(err)
				metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token: "+reason).SetInternal(err)
			}

			c.Set(ClaimsKey, claims)
			c.Set(LoginKey, claims.Login)
			c.Set(RoleKey, claims.Role.String())

			return next(c)
		}
	}
}

// Claims returns what Auth stored for this request.
func Claims(c echo.Context) (*domain.SessionClaims, bool) {
	claims, ok := c.Get(ClaimsKey).(*domain.SessionClaims)
	return claims, ok && claims != nil
}
