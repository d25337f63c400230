package domain

import "errors"

// Identity and access.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

// Replication. ErrIdentityConflict and ErrMalformedMessage are permanent:
// redelivering the same message cannot make it succeed.
var (
	ErrIdentityConflict   = errors.New("identity conflict")
	ErrMalformedMessage   = errors.New("malformed replication message")
	ErrClientNotFound     = errors.New("client not found")
	ErrClientInactive     = errors.New("client inactive")
	ErrReplicationPublish = errors.New("replication publish failed")
)

// Cinema.
var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrInvalidMovie       = errors.New("invalid movie")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrNoSeatsAvailable   = errors.New("no seats available")
	ErrInvalidTicketType  = errors.New("invalid ticket type")
	ErrPreconditionFailed = errors.New("entity changed since it was signed")
	ErrPreconditionNeeded = errors.New("signature of the current entity required")
)

// Session tokens.
var (
	ErrTokenMalformed       = errors.New("token malformed")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenSignature       = errors.New("token signature mismatch")
	ErrTokenSubjectMismatch = errors.New("token subject mismatch")
	ErrTokenSubjectInactive = errors.New("token subject inactive")
)

// Entity signatures.
var (
	ErrSignatureMalformed      = errors.New("signature malformed")
	ErrSignatureInvalid        = errors.New("signature invalid")
	ErrSignatureKindMismatch   = errors.New("signature entity kind mismatch")
	ErrSignatureEntityMismatch = errors.New("signature does not match entity")
	ErrUnsignableEntity        = errors.New("entity cannot be signed as this kind")
)

// IsPermanent reports whether a replication error will recur on redelivery.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrIdentityConflict) || errors.Is(err, ErrMalformedMessage)
}
