package ports

import (
	"context"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// TokenCodec issues and verifies session tokens.
type TokenCodec interface {
	Issue(identity *domain.Identity) (string, error)
	// Verify checks signature, claims and expiry. Failures wrap one of the
	// domain.ErrToken* sentinels.
	Verify(token string) (*domain.SessionClaims, error)
	// ExtractUsername reads the subject without checking the signature.
	// It is not authentication.
	ExtractUsername(token string) (string, error)
	// Validate is Verify plus a check that the subject is identity and that
	// identity is still active.
	Validate(token string, identity *domain.Identity) error
	IsTokenValid(token string, identity *domain.Identity) bool
}

// SignatureService signs entity snapshots and verifies them later.
type SignatureService interface {
	Sign(kind domain.EntityKind, entity any) (string, error)
	// Check returns nil when signature matches entity under kind, otherwise
	// an error wrapping one of the domain.ErrSignature* sentinels.
	Check(signature string, kind domain.EntityKind, entity any) error
	Verify(signature string, kind domain.EntityKind, entity any) bool
}

// Authenticator turns a bearer token into the caller's claims. The User
// service also checks the subject is still active; the Ticket service only
// verifies the token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.SessionClaims, error)
}
