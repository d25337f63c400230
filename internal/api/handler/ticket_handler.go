package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// TicketHandler handles HTTP requests for tickets.
type TicketHandler struct {
	service ports.TicketService
}

func NewTicketHandler(service ports.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

// Create handles POST /v1/tickets.
//
// @Summary      Buy a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTicketRequest  true  "Ticket purchase"
// @Success      201   {object}  createTicketResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/tickets [post]
func (h *TicketHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req createTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ticketType, err := domain.ParseTicketType(req.TicketType)
	if err != nil {
		return err
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "client_id must be a valid uuid")
	}
	movieID, err := uuid.Parse(req.MovieID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "movie_id must be a valid uuid")
	}
	signed, err := h.service.CreateTicket(c.Request().Context(), ports.CreateTicketInput{
		ClientID: clientID,
		MovieID:  movieID,
		Type:     ticketType,
		Caller:   claims,
	})
	if err != nil {
		return err
	}

	self := "/v1/tickets/" + signed.Ticket.ID.String()
	c.Response().Header().Set(echo.HeaderLocation, self)
	return c.JSON(http.StatusCreated, createTicketResponse{
		ticketResponse: toTicketResponse(signed.Ticket, signed.Signature),
		Links: ticketLinks{
			Self:      self,
			Movie:     "/v1/movies/" + signed.Ticket.MovieID.String(),
			Signature: "/v1/signatures/verify",
		},
	})
}

// Get handles GET /v1/tickets/:id.
//
// @Summary      Get a ticket with its signature
// @Tags         tickets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Ticket id"
// @Success      200  {object}  ticketResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/tickets/{id} [get]
func (h *TicketHandler) Get(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	signed, err := h.service.GetTicket(c.Request().Context(), id, claims)
	if err != nil {
		return err
	}
	setETag(c, signed.Signature)
	return c.JSON(http.StatusOK, toTicketResponse(signed.Ticket, signed.Signature))
}

// ListByClient handles GET /v1/clients/:id/tickets.
//
// @Summary      List a client's tickets
// @Tags         tickets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id"
// @Success      200  {array}   ticketResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/clients/{id}/tickets [get]
func (h *TicketHandler) ListByClient(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	clientID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	tickets, err := h.service.ListClientTickets(c.Request().Context(), clientID, claims)
	if err != nil {
		return err
	}
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t, ""))
	}
	return c.JSON(http.StatusOK, out)
}
