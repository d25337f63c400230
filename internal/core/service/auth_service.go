package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// AuthService implements login and token authentication in the User service.
type AuthService struct {
	repo  ports.IdentityRepository
	codec ports.TokenCodec
}

func NewAuthService(repo ports.IdentityRepository, codec ports.TokenCodec) *AuthService {
	return &AuthService{repo: repo, codec: codec}
}

// Login checks the password and issues a session token. Unknown logins,
// wrong passwords and deactivated identities all fail the same way.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, *domain.Identity, error) {
	if login == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	identity, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !identity.Active {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.codec.Issue(identity)
	if err != nil {
		return "", nil, err
	}
	return token, identity, nil
}

// Authenticate verifies the token and that its subject still exists and is
// active.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.SessionClaims, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	identity, err := s.repo.FindByLogin(ctx, claims.Login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenSubjectMismatch
		}
		return nil, err
	}
	if err := s.codec.Validate(token, identity); err != nil {
		return nil, err
	}
	return claims, nil
}

// SessionVerifier authenticates tokens in the Ticket service, which holds
// no identities of its own. Deactivated clients are stopped at ticket
// creation through the mirror instead.
type SessionVerifier struct {
	codec ports.TokenCodec
}

func NewSessionVerifier(codec ports.TokenCodec) *SessionVerifier {
	return &SessionVerifier{codec: codec}
}

func (v *SessionVerifier) Authenticate(_ context.Context, token string) (*domain.SessionClaims, error) {
	return v.codec.Verify(token)
}
