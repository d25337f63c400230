package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movie is a single screening sold by the Ticket service.
type Movie struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	BasePrice      decimal.Decimal `json:"base_price"`
	ScreeningRoom  int             `json:"screening_room"`
	AvailableSeats int             `json:"available_seats"`
	ScreeningTime  time.Time       `json:"screening_time"`
}

// HasSeats reports whether at least one seat is still free.
func (m *Movie) HasSeats() bool {
	return m.AvailableSeats > 0
}
