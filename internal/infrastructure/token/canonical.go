package token

import (
	"fmt"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// The signed payloads are CBOR arrays, so field order is part of the
// encoding. Times are unix milliseconds, matching what the stores keep.
// Prices use the shortest decimal string, so 12.50 and 12.5 sign the same.

type userPayload struct {
	_      struct{} `cbor:",toarray"`
	Kind   domain.EntityKind
	ID     string
	Login  string
	Role   string
	Active bool
}

type moviePayload struct {
	_             struct{} `cbor:",toarray"`
	Kind          domain.EntityKind
	ID            string
	Title         string
	Price         string
	Room          int
	Seats         int
	ScreeningTime int64
}

type ticketPayload struct {
	_         struct{} `cbor:",toarray"`
	Kind      domain.EntityKind
	ID        string
	MovieTime int64
	Price     string
	ClientID  string
	MovieID   string
}

func (s *Signer) canonical(kind domain.EntityKind, entity any) ([]byte, error) {
	var v any
	switch kind {
	case domain.KindUser:
		u, ok := asIdentity(entity)
		if !ok {
			return nil, unsignable(kind, entity)
		}
		v = userPayload{Kind: kind, ID: u.ID.String(), Login: u.Login, Role: u.Role.String(), Active: u.Active}
	case domain.KindMovie:
		m, ok := asMovie(entity)
		if !ok {
			return nil, unsignable(kind, entity)
		}
		v = moviePayload{
			Kind:          kind,
			ID:            m.ID.String(),
			Title:         m.Title,
			Price:         m.BasePrice.String(),
			Room:          m.ScreeningRoom,
			Seats:         m.AvailableSeats,
			ScreeningTime: m.ScreeningTime.UnixMilli(),
		}
	case domain.KindTicket:
		t, ok := asTicket(entity)
		if !ok {
			return nil, unsignable(kind, entity)
		}
		v = ticketPayload{
			Kind:      kind,
			ID:        t.ID.String(),
			MovieTime: t.MovieTime.UnixMilli(),
			Price:     t.FinalPrice.String(),
			ClientID:  t.ClientID.String(),
			MovieID:   t.MovieID.String(),
		}
	default:
		return nil, fmt.Errorf("%w: unknown entity kind %q", domain.ErrSignatureKindMismatch, kind)
	}

	b, err := s.enc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return b, nil
}

func unsignable(kind domain.EntityKind, entity any) error {
	return fmt.Errorf("%w: %T as %s", domain.ErrUnsignableEntity, entity, kind)
}

func asIdentity(v any) (*domain.Identity, bool) {
	switch e := v.(type) {
	case *domain.Identity:
		return e, e != nil
	case domain.Identity:
		return &e, true
	}
	return nil, false
}

func asMovie(v any) (*domain.Movie, bool) {
	switch e := v.(type) {
	case *domain.Movie:
		return e, e != nil
	case domain.Movie:
		return &e, true
	}
	return nil, false
}

func asTicket(v any) (*domain.Ticket, bool) {
	switch e := v.(type) {
	case *domain.Ticket:
		return e, e != nil
	case domain.Ticket:
		return &e, true
	}
	return nil, false
}
