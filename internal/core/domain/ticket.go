package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketType selects the pricing rule for a ticket.
type TicketType string

const (
	TicketNormal  TicketType = "normal"
	TicketReduced TicketType = "reduced"
)

var reducedFactor = decimal.RequireFromString("0.7")

func ParseTicketType(s string) (TicketType, error) {
	t := TicketType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TicketNormal, TicketReduced:
		return t, nil
	case "":
		return TicketNormal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTicketType, s)
}

// Price returns what a ticket of this type costs for a movie with the given
// base price, rounded to two decimal places.
func (t TicketType) Price(base decimal.Decimal) decimal.Decimal {
	if t == TicketReduced {
		return base.Mul(reducedFactor).Round(2)
	}
	return base.Round(2)
}

// Ticket is a purchased seat. ClientID always refers to a client present in
// the local mirror at the time the ticket was created.
type Ticket struct {
	ID         uuid.UUID       `json:"id"`
	MovieTime  time.Time       `json:"movie_time"`
	FinalPrice decimal.Decimal `json:"final_price"`
	ClientID   uuid.UUID       `json:"client_id"`
	MovieID    uuid.UUID       `json:"movie_id"`
}
