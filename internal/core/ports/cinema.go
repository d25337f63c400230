package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// MovieRepository persists movies in the Ticket service.
type MovieRepository interface {
	Create(ctx context.Context, movie *domain.Movie) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Movie, error)
	List(ctx context.Context) ([]*domain.Movie, error)
	// ReplaceIfUnchanged stores updated only if the stored movie still equals
	// expected, otherwise it returns domain.ErrPreconditionFailed.
	ReplaceIfUnchanged(ctx context.Context, expected, updated *domain.Movie) error
	// ReserveSeat atomically takes one seat and returns the movie after the
	// reservation, or domain.ErrNoSeatsAvailable.
	ReserveSeat(ctx context.Context, id uuid.UUID) (*domain.Movie, error)
	ReleaseSeat(ctx context.Context, id uuid.UUID) error
}

// TicketRepository persists tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Ticket, error)
}

// MovieInput carries the editable fields of a movie.
type MovieInput struct {
	Title          string
	BasePrice      decimal.Decimal
	ScreeningRoom  int
	AvailableSeats int
	ScreeningTime  time.Time
}

// UpdateMovieInput replaces a movie. IfMatch is the signature the caller
// received when reading the movie.
type UpdateMovieInput struct {
	ID      uuid.UUID
	IfMatch string
	MovieInput
}

// SignedMovie pairs a movie with its current entity signature.
type SignedMovie struct {
	Movie     *domain.Movie
	Signature string
}

// MovieService defines use-case operations for movies.
type MovieService interface {
	Create(ctx context.Context, in MovieInput) (*SignedMovie, error)
	Get(ctx context.Context, id uuid.UUID) (*SignedMovie, error)
	List(ctx context.Context) ([]*domain.Movie, error)
	Update(ctx context.Context, in UpdateMovieInput) (*SignedMovie, error)
}

// CreateTicketInput carries a purchase request. Caller is the authenticated
// session; a CLIENT caller may only buy for its own mirror record.
type CreateTicketInput struct {
	ClientID uuid.UUID
	MovieID  uuid.UUID
	Type     domain.TicketType
	Caller   domain.SessionClaims
}

// SignedTicket pairs a ticket with its entity signature.
type SignedTicket struct {
	Ticket    *domain.Ticket
	Signature string
}

// TicketService defines use-case operations for tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, in CreateTicketInput) (*SignedTicket, error)
	GetTicket(ctx context.Context, id uuid.UUID, caller domain.SessionClaims) (*SignedTicket, error)
	ListClientTickets(ctx context.Context, clientID uuid.UUID, caller domain.SessionClaims) ([]*domain.Ticket, error)
}
