package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// MovieHandler handles HTTP requests for movies.
type MovieHandler struct {
	service ports.MovieService
}

func NewMovieHandler(service ports.MovieService) *MovieHandler {
	return &MovieHandler{service: service}
}

// Create handles POST /v1/movies.
//
// @Summary      Create a movie screening
// @Tags         movies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      movieRequest  true  "Movie"
// @Success      201   {object}  movieResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/movies [post]
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	signed, err := h.service.Create(c.Request().Context(), toMovieInput(req))
	if err != nil {
		return err
	}
	setETag(c, signed.Signature)
	c.Response().Header().Set(echo.HeaderLocation, "/v1/movies/"+signed.Movie.ID.String())
	return c.JSON(http.StatusCreated, toMovieResponse(signed.Movie))
}

// List handles GET /v1/movies.
//
// @Summary      List movies
// @Tags         movies
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  movieResponse
// @Router       /v1/movies [get]
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/movies/:id. The ETag carries the movie signature.
//
// @Summary      Get a movie
// @Tags         movies
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Movie id"
// @Success      200  {object}  movieResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/movies/{id} [get]
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	signed, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	setETag(c, signed.Signature)
	return c.JSON(http.StatusOK, toMovieResponse(signed.Movie))
}

// Update handles PUT /v1/movies/:id. If-Match must carry the signature
// from the caller's last read.
//
// @Summary      Replace a movie
// @Tags         movies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string        true  "Movie id"
// @Param        If-Match  header    string        true  "ETag from the last read"
// @Param        body      body      movieRequest  true  "Movie"
// @Success      200       {object}  movieResponse
// @Failure      404       {object}  map[string]string
// @Failure      412       {object}  map[string]string
// @Failure      428       {object}  map[string]string
// @Router       /v1/movies/{id} [put]
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req movieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	signed, err := h.service.Update(c.Request().Context(), ports.UpdateMovieInput{
		ID:         id,
		IfMatch:    ifMatch(c),
		MovieInput: toMovieInput(req),
	})
	if err != nil {
		return err
	}
	setETag(c, signed.Signature)
	return c.JSON(http.StatusOK, toMovieResponse(signed.Movie))
}
