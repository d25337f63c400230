package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type movieRequest struct {
	Title          string          `json:"title"           validate:"required,max=200"`
	BasePrice      decimal.Decimal `json:"base_price"`
	ScreeningRoom  int             `json:"screening_room"  validate:"gt=0"`
	AvailableSeats int             `json:"available_seats" validate:"min=0"`
	ScreeningTime  time.Time       `json:"screening_time"`
}

type movieResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	BasePrice      string    `json:"base_price"`
	ScreeningRoom  int       `json:"screening_room"`
	AvailableSeats int       `json:"available_seats"`
	ScreeningTime  time.Time `json:"screening_time"`
}

type createTicketRequest struct {
	ClientID   string `json:"client_id"   validate:"required,uuid"`
	MovieID    string `json:"movie_id"    validate:"required,uuid"`
	TicketType string `json:"ticket_type" validate:"omitempty,oneof=normal reduced"`
}

type ticketResponse struct {
	ID         string    `json:"id"`
	MovieTime  time.Time `json:"movie_time"`
	FinalPrice string    `json:"final_price"`
	ClientID   string    `json:"client_id"`
	MovieID    string    `json:"movie_id"`
	Signature  string    `json:"signature,omitempty"`
}

type ticketLinks struct {
	Self      string `json:"self"`
	Movie     string `json:"movie"`
	Signature string `json:"verify"`
}

type createTicketResponse struct {
	ticketResponse
	Links ticketLinks `json:"_links"`
}

// Entity is the snapshot the caller claims the signature was issued for,
// in the same JSON shape the API returns for that kind.
type verifySignatureRequest struct {
	Kind      string          `json:"kind"      validate:"required,oneof=user movie ticket"`
	Signature string          `json:"signature" validate:"required"`
	Entity    json.RawMessage `json:"entity"    validate:"required"`
}

type verifySignatureResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}
