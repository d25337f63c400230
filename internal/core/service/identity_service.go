package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// IdentityService owns identities in the User service and publishes every
// client change for the Ticket service mirror.
type IdentityService struct {
	repo      ports.IdentityRepository
	publisher ports.ReplicationPublisher
	signer    ports.SignatureService
	log       zerolog.Logger
	now       func() time.Time
}

func NewIdentityService(
	repo ports.IdentityRepository,
	publisher ports.ReplicationPublisher,
	signer ports.SignatureService,
	log zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		repo:      repo,
		publisher: publisher,
		signer:    signer,
		log:       log,
		now:       time.Now,
	}
}

// Register creates an identity. Clients are announced to the Ticket service
// after they are stored; if that fails the identity exists and the error
// wraps domain.ErrReplicationPublish so the caller can resync.
func (s *IdentityService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	if in.Login == "" || in.Password == "" || !in.Role.Valid() {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	identity := &domain.Identity{
		ID:           uuid.New(),
		Login:        in.Login,
		PasswordHash: string(hash),
		Role:         in.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("client_id", identity.ID.String()).
		Str("login", identity.Login).
		Str("role", identity.Role.String()).
		Msg("identity registered")

	if !identity.IsClient() {
		return identity, nil
	}
	msg := domain.NewClientCreated(domain.ClientCreateMessage{ClientID: identity.ID, ClientLogin: identity.Login}, now)
	if err := s.publish(ctx, msg); err != nil {
		return identity, err
	}
	return identity, nil
}

func (s *IdentityService) Get(ctx context.Context, id uuid.UUID) (*ports.SignedIdentity, error) {
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sig, err := s.signer.Sign(domain.KindUser, identity)
	if err != nil {
		return nil, err
	}
	return &ports.SignedIdentity{Identity: identity, Signature: sig}, nil
}

func (s *IdentityService) List(ctx context.Context, role domain.Role) ([]*domain.Identity, error) {
	return s.repo.List(ctx, role)
}

// SetActive activates or deactivates an identity. Deactivation is the only
// way an identity goes away.
func (s *IdentityService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Identity, error) {
	identity, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("client_id", identity.ID.String()).
		Bool("active", active).
		Msg("identity status changed")

	if !identity.IsClient() {
		return identity, nil
	}
	msg := domain.NewClientStatus(domain.ClientStatusMessage{ClientID: identity.ID, Active: active}, s.now())
	if err := s.publish(ctx, msg); err != nil {
		return identity, err
	}
	return identity, nil
}

// Resync announces the client's id, publishes its creation message again
// and follows with its status when it is deactivated.
func (s *IdentityService) Resync(ctx context.Context, id uuid.UUID) error {
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !identity.IsClient() {
		return fmt.Errorf("%w: only clients are replicated", domain.ErrForbidden)
	}

	now := s.now()
	if err := s.publish(ctx, domain.NewClientReferenced(domain.ClientUUIDMessage{ClientID: identity.ID}, now)); err != nil {
		return err
	}
	if err := s.publish(ctx, domain.NewClientCreated(domain.ClientCreateMessage{ClientID: identity.ID, ClientLogin: identity.Login}, now)); err != nil {
		return err
	}
	if !identity.Active {
		return s.publish(ctx, domain.NewClientStatus(domain.ClientStatusMessage{ClientID: identity.ID, Active: false}, now))
	}
	return nil
}

func (s *IdentityService) publish(ctx context.Context, msg domain.ReplicationMessage) error {
	if err := s.publisher.Publish(ctx, msg); err != nil {
		metrics.ReplicationPublishedTotal.WithLabelValues(string(msg.Type), "error").Inc()
		s.log.Error().Err(err).
			Str("client_id", msg.ClientID.String()).
			Str("message_type", string(msg.Type)).
			Str("message_id", msg.MessageID.String()).
			Msg("replication publish failed")
		return fmt.Errorf("%w: %v", domain.ErrReplicationPublish, err)
	}
	metrics.ReplicationPublishedTotal.WithLabelValues(string(msg.Type), "ok").Inc()
	return nil
}
