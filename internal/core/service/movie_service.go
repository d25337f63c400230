package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

type movieService struct {
	repo   ports.MovieRepository
	signer ports.SignatureService
	log    zerolog.Logger
}

// NewMovieService returns a MovieService implementation.
func NewMovieService(repo ports.MovieRepository, signer ports.SignatureService, log zerolog.Logger) ports.MovieService {
	return &movieService{repo: repo, signer: signer, log: log}
}

func (s *movieService) Create(ctx context.Context, in ports.MovieInput) (*ports.SignedMovie, error) {
	movie, err := buildMovie(uuid.New(), in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, err
	}
	s.log.Info().Str("movie_id", movie.ID.String()).Str("title", movie.Title).Msg("movie created")
	return s.signed(movie)
}

func (s *movieService) Get(ctx context.Context, id uuid.UUID) (*ports.SignedMovie, error) {
	movie, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.signed(movie)
}

func (s *movieService) List(ctx context.Context) ([]*domain.Movie, error) {
	return s.repo.List(ctx)
}

// Update replaces a movie only if in.IfMatch is a valid signature of the
// movie as it is stored now.
func (s *movieService) Update(ctx context.Context, in ports.UpdateMovieInput) (*ports.SignedMovie, error) {
	if in.IfMatch == "" {
		return nil, domain.ErrPreconditionNeeded
	}
	current, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if err := s.signer.Check(in.IfMatch, domain.KindMovie, current); err != nil {
		metrics.SignatureRejectionsTotal.WithLabelValues(string(domain.KindMovie), metrics.SignatureReason(err)).Inc()
		s.log.Warn().Err(err).Str("movie_id", in.ID.String()).Msg("stale or forged movie signature")
		return nil, fmt.Errorf("%w: %w", domain.ErrPreconditionFailed, err)
	}

	updated, err := buildMovie(in.ID, in.MovieInput)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceIfUnchanged(ctx, current, updated); err != nil {
		return nil, err
	}
	s.log.Info().Str("movie_id", in.ID.String()).Msg("movie updated")
	return s.signed(updated)
}

func (s *movieService) signed(movie *domain.Movie) (*ports.SignedMovie, error) {
	sig, err := s.signer.Sign(domain.KindMovie, movie)
	if err != nil {
		return nil, err
	}
	return &ports.SignedMovie{Movie: movie, Signature: sig}, nil
}

func buildMovie(id uuid.UUID, in ports.MovieInput) (*domain.Movie, error) {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, fmt.Errorf("%w: empty title", domain.ErrInvalidMovie)
	case !in.BasePrice.IsPositive():
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidMovie)
	case in.ScreeningRoom <= 0:
		return nil, fmt.Errorf("%w: screening room must be positive", domain.ErrInvalidMovie)
	case in.AvailableSeats < 0:
		return nil, fmt.Errorf("%w: negative seat count", domain.ErrInvalidMovie)
	case in.ScreeningTime.IsZero():
		return nil, fmt.Errorf("%w: missing screening time", domain.ErrInvalidMovie)
	}
	return &domain.Movie{
		ID:             id,
		Title:          title,
		BasePrice:      in.BasePrice.Round(2),
		ScreeningRoom:  in.ScreeningRoom,
		AvailableSeats: in.AvailableSeats,
		ScreeningTime:  in.ScreeningTime.UTC().Truncate(time.Millisecond),
	}, nil
}
