package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// IdentityRepository persists User-service identities of every role.
type IdentityRepository interface {
	// Create returns domain.ErrUserExists when the login is taken.
	Create(ctx context.Context, identity *domain.Identity) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	FindByLogin(ctx context.Context, login string) (*domain.Identity, error)
	// SetActive returns the identity after the change.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Identity, error)
	// List returns identities with the given role, or every identity when role is empty.
	List(ctx context.Context, role domain.Role) ([]*domain.Identity, error)
}

// RegisterInput carries what is needed to create an identity.
type RegisterInput struct {
	Login    string
	Password string
	Role     domain.Role
}

// SignedIdentity pairs an identity with its current entity signature.
type SignedIdentity struct {
	Identity  *domain.Identity
	Signature string
}

// IdentityService owns the identity lifecycle in the User service and
// replicates client changes to the Ticket service.
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	Get(ctx context.Context, id uuid.UUID) (*SignedIdentity, error)
	List(ctx context.Context, role domain.Role) ([]*domain.Identity, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Identity, error)
	// Resync announces a client id and publishes its creation message again.
	Resync(ctx context.Context, id uuid.UUID) error
}

// AuthService logs identities in and authenticates their tokens.
type AuthService interface {
	Login(ctx context.Context, login, password string) (string, *domain.Identity, error)
	Authenticator
}
