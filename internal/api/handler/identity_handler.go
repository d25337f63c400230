package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// IdentityHandler serves the admin-only identity management routes.
type IdentityHandler struct {
	service ports.IdentityService
}

func NewIdentityHandler(service ports.IdentityService) *IdentityHandler {
	return &IdentityHandler{service: service}
}

// Create handles POST /v1/identities.
//
// @Summary      Create an identity of any role
// @Tags         identities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createIdentityRequest  true  "Identity"
// @Success      201   {object}  registerResponse
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/identities [post]
func (h *IdentityHandler) Create(c echo.Context) error {
	var req createIdentityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	identity, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Login:    req.Login,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	return registered(c, identity, err)
}

// List handles GET /v1/identities?role=CLIENT.
//
// @Summary      List identities
// @Tags         identities
// @Produce      json
// @Security     BearerAuth
// @Param        role  query     string  false  "CLIENT, STAFF or ADMIN"
// @Success      200   {array}   identityResponse
// @Router       /v1/identities [get]
func (h *IdentityHandler) List(c echo.Context) error {
	var role domain.Role
	if q := c.QueryParam("role"); q != "" {
		r, err := domain.ParseRole(q)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
		}
		role = r
	}

	identities, err := h.service.List(c.Request().Context(), role)
	if err != nil {
		return err
	}
	out := make([]identityResponse, 0, len(identities))
	for _, i := range identities {
		out = append(out, toIdentityResponse(i))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/identities/:id. The ETag carries the user signature.
//
// @Summary      Get an identity
// @Tags         identities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Identity id"
// @Success      200  {object}  identityResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/identities/{id} [get]
func (h *IdentityHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	signed, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	setETag(c, signed.Signature)
	return c.JSON(http.StatusOK, toIdentityResponse(signed.Identity))
}

// SetStatus handles PUT /v1/identities/:id/status.
//
// @Summary      Activate or deactivate an identity
// @Tags         identities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Identity id"
// @Param        body  body      statusRequest  true  "New status"
// @Success      200   {object}  identityResponse
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /v1/identities/{id}/status [put]
func (h *IdentityHandler) SetStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	identity, err := h.service.SetActive(c.Request().Context(), id, *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

// Resync handles POST /v1/identities/:id/resync.
//
// @Summary      Publish a client to the Ticket service again
// @Tags         identities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id"
// @Success      202  {object}  acceptedResponse
// @Failure      403  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /v1/identities/{id}/resync [post]
func (h *IdentityHandler) Resync(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Resync(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "replication published"})
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a valid uuid")
	}
	return id, nil
}
