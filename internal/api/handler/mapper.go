package handler

import (
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// --- Domain → Response ---

func toIdentityResponse(i *domain.Identity) identityResponse {
	return identityResponse{
		ID:        i.ID.String(),
		Login:     i.Login,
		Role:      i.Role.String(),
		Active:    i.Active,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func toMovieResponse(m *domain.Movie) movieResponse {
	return movieResponse{
		ID:             m.ID.String(),
		Title:          m.Title,
		BasePrice:      m.BasePrice.StringFixed(2),
		ScreeningRoom:  m.ScreeningRoom,
		AvailableSeats: m.AvailableSeats,
		ScreeningTime:  m.ScreeningTime,
	}
}

func toTicketResponse(t *domain.Ticket, signature string) ticketResponse {
	return ticketResponse{
		ID:         t.ID.String(),
		MovieTime:  t.MovieTime,
		FinalPrice: t.FinalPrice.StringFixed(2),
		ClientID:   t.ClientID.String(),
		MovieID:    t.MovieID.String(),
		Signature:  signature,
	}
}

// --- Request → Service input ---

func toMovieInput(req movieRequest) ports.MovieInput {
	return ports.MovieInput{
		Title:          req.Title,
		BasePrice:      req.BasePrice,
		ScreeningRoom:  req.ScreeningRoom,
		AvailableSeats: req.AvailableSeats,
		ScreeningTime:  req.ScreeningTime,
	}
}
