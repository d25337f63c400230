package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// SignatureHandler lets downstream consumers check an entity snapshot
// against the signature it was served with.
type SignatureHandler struct {
	signer ports.SignatureService
}

func NewSignatureHandler(signer ports.SignatureService) *SignatureHandler {
	return &SignatureHandler{signer: signer}
}

// Verify handles POST /v1/signatures/verify. A mismatch is a normal answer,
// not an error.
//
// @Summary      Verify an entity signature
// @Tags         signatures
// @Accept       json
// @Produce      json
// @Param        body  body      verifySignatureRequest  true  "Signature and entity snapshot"
// @Success      200   {object}  verifySignatureResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/signatures/verify [post]
func (h *SignatureHandler) Verify(c echo.Context) error {
	var req verifySignatureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	kind, err := domain.ParseEntityKind(req.Kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown entity kind")
	}
	entity, err := decodeEntity(kind, req.Entity)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "entity does not match kind "+req.Kind)
	}

	if err := h.signer.Check(req.Signature, kind, entity); err != nil {
		reason := metrics.SignatureReason(err)
		metrics.SignatureRejectionsTotal.WithLabelValues(string(kind), reason).Inc()
		return c.JSON(http.StatusOK, verifySignatureResponse{Valid: false, Reason: reason})
	}
	return c.JSON(http.StatusOK, verifySignatureResponse{Valid: true})
}

func decodeEntity(kind domain.EntityKind, raw json.RawMessage) (any, error) {
	switch kind {
	case domain.KindUser:
		var v domain.Identity
		return &v, json.Unmarshal(raw, &v)
	case domain.KindMovie:
		var v domain.Movie
		return &v, json.Unmarshal(raw, &v)
	default:
		var v domain.Ticket
		return &v, json.Unmarshal(raw, &v)
	}
}
