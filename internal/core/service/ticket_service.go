package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

type ticketService struct {
	mirror  ports.ClientMirrorStore
	movies  ports.MovieRepository
	tickets ports.TicketRepository
	signer  ports.SignatureService
	log     zerolog.Logger
}

// NewTicketService returns a TicketService implementation.
func NewTicketService(
	mirror ports.ClientMirrorStore,
	movies ports.MovieRepository,
	tickets ports.TicketRepository,
	signer ports.SignatureService,
	log zerolog.Logger,
) ports.TicketService {
	return &ticketService{
		mirror:  mirror,
		movies:  movies,
		tickets: tickets,
		signer:  signer,
		log:     log,
	}
}

// CreateTicket sells one seat. The client must already be in the mirror:
// an unknown client fails with domain.ErrClientNotFound and nothing is
// written, so the caller can retry once replication catches up.
func (s *ticketService) CreateTicket(ctx context.Context, in ports.CreateTicketInput) (_ *ports.SignedTicket, err error) {
	ctx, span := tracer.Start(ctx, "Ticket.Service.CreateTicket")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("client_id", in.ClientID.String()),
		attribute.String("movie_id", in.MovieID.String()),
	)

	// 1. Mirror lookup. Never waits for replication.
	if _, err := s.clientFor(ctx, in.ClientID, in.Caller); err != nil {
		return nil, err
	}

	ticketType := in.Type
	if ticketType == "" {
		ticketType = domain.TicketNormal
	}

	// 2. Take a seat.
	movie, err := s.movies.ReserveSeat(ctx, in.MovieID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSeatsAvailable):
			metrics.TicketRejectionsTotal.WithLabelValues("no_seats").Inc()
		case errors.Is(err, domain.ErrMovieNotFound):
			metrics.TicketRejectionsTotal.WithLabelValues("movie_not_found").Inc()
		}
		return nil, err
	}

	// 3. Sign, then persist; give the seat back if either fails.
	ticket := &domain.Ticket{
		ID:         uuid.New(),
		MovieTime:  movie.ScreeningTime,
		FinalPrice: ticketType.Price(movie.BasePrice),
		ClientID:   in.ClientID,
		MovieID:    movie.ID,
	}
	sig, err := s.signer.Sign(domain.KindTicket, ticket)
	if err != nil {
		s.releaseSeat(ctx, movie.ID)
		return nil, fmt.Errorf("sign ticket: %w", err)
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.releaseSeat(ctx, movie.ID)
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	metrics.TicketsCreatedTotal.WithLabelValues(string(ticketType)).Inc()
	s.log.Info().
		Str("ticket_id", ticket.ID.String()).
		Str("client_id", ticket.ClientID.String()).
		Str("movie_id", ticket.MovieID.String()).
		Str("final_price", ticket.FinalPrice.StringFixed(2)).
		Msg("ticket created")

	return &ports.SignedTicket{Ticket: ticket, Signature: sig}, nil
}

func (s *ticketService) releaseSeat(ctx context.Context, movieID uuid.UUID) {
	if err := s.movies.ReleaseSeat(ctx, movieID); err != nil {
		s.log.Error().Err(err).Str("movie_id", movieID.String()).Msg("failed to release seat")
	}
}

func (s *ticketService) GetTicket(ctx context.Context, id uuid.UUID, caller domain.SessionClaims) (*ports.SignedTicket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RoleClient {
		if err := s.ownedBy(ctx, ticket.ClientID, caller); err != nil {
			return nil, err
		}
	}
	sig, err := s.signer.Sign(domain.KindTicket, ticket)
	if err != nil {
		return nil, err
	}
	return &ports.SignedTicket{Ticket: ticket, Signature: sig}, nil
}

func (s *ticketService) ListClientTickets(ctx context.Context, clientID uuid.UUID, caller domain.SessionClaims) ([]*domain.Ticket, error) {
	if caller.Role == domain.RoleClient {
		if err := s.ownedBy(ctx, clientID, caller); err != nil {
			return nil, err
		}
	}
	return s.tickets.ListByClient(ctx, clientID)
}

// clientFor resolves the buyer in the mirror and checks the caller may
// buy for it.
func (s *ticketService) clientFor(ctx context.Context, clientID uuid.UUID, caller domain.SessionClaims) (*domain.ClientMirrorRecord, error) {
	rec, err := s.mirror.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			metrics.TicketRejectionsTotal.WithLabelValues("client_not_found").Inc()
			s.log.Info().Str("client_id", clientID.String()).Msg("ticket refused, client not replicated yet")
			return nil, err
		}
		return nil, fmt.Errorf("client lookup: %w", err)
	}
	if !rec.Active {
		metrics.TicketRejectionsTotal.WithLabelValues("client_inactive").Inc()
		return nil, domain.ErrClientInactive
	}
	if caller.Role == domain.RoleClient && (rec.IsPlaceholder() || rec.Login != caller.Login) {
		metrics.TicketRejectionsTotal.WithLabelValues("forbidden").Inc()
		return nil, domain.ErrForbidden
	}
	return rec, nil
}

func (s *ticketService) ownedBy(ctx context.Context, clientID uuid.UUID, caller domain.SessionClaims) error {
	rec, err := s.mirror.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return domain.ErrForbidden
		}
		return err
	}
	if rec.Login == "" || rec.Login != caller.Login {
		return domain.ErrForbidden
	}
	return nil
}
