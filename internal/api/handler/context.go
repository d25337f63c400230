package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinemaplex/cinema-system/internal/api/middleware"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// ctxClaims extracts the session claims injected by the Auth middleware.
// Presence of a role proves the middleware ran.
func ctxClaims(c echo.Context) (domain.SessionClaims, error) {
	claims, ok := middleware.Claims(c)
	if !ok || claims.Role == "" || claims.Login == "" {
		return domain.SessionClaims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return *claims, nil
}
