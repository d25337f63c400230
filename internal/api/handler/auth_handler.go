package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// Registrar is the part of the identity service public registration needs.
type Registrar interface {
	Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error)
}

type AuthHandler struct {
	registrar   Registrar
	authService ports.AuthService
}

func NewAuthHandler(registrar Registrar, authService ports.AuthService) *AuthHandler {
	return &AuthHandler{registrar: registrar, authService: authService}
}

// Register creates a new client account.
//
// @Summary      Register a new client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Client registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	identity, err := h.registrar.Register(c.Request().Context(), ports.RegisterInput{
		Login:    req.Login,
		Password: req.Password,
		Role:     domain.RoleClient,
	})
	return registered(c, identity, err)
}

// Login authenticates an identity and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, identity, err := h.authService.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		return err
	}

	user := toIdentityResponse(identity)
	return c.JSON(http.StatusOK, authResponse{Token: token, User: &user})
}

// registered answers a registration. A stored identity whose replication
// message could not be published is still created.
func registered(c echo.Context, identity *domain.Identity, err error) error {
	if err != nil {
		if identity == nil || !errors.Is(err, domain.ErrReplicationPublish) {
			return err
		}
		return c.JSON(http.StatusCreated, registerResponse{User: toIdentityResponse(identity), Replication: "pending"})
	}
	resp := registerResponse{User: toIdentityResponse(identity)}
	if identity.IsClient() {
		resp.Replication = "published"
	}
	return c.JSON(http.StatusCreated, resp)
}
