package metrics

import (
	"errors"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// TokenReason is the token_rejections_total label for err.
func TokenReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenSignature):
		return "signature"
	case errors.Is(err, domain.ErrTokenSubjectMismatch):
		return "subject_mismatch"
	case errors.Is(err, domain.ErrTokenSubjectInactive):
		return "subject_inactive"
	default:
		return "malformed"
	}
}

// SignatureReason is the signature_rejections_total label for err.
func SignatureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSignatureKindMismatch):
		return "kind_mismatch"
	case errors.Is(err, domain.ErrSignatureEntityMismatch):
		return "entity_mismatch"
	case errors.Is(err, domain.ErrSignatureInvalid):
		return "invalid"
	default:
		return "malformed"
	}
}
