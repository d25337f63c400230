package domain

import "fmt"

// EntityKind tags which entity a signature was produced for.
type EntityKind string

const (
	KindUser   EntityKind = "user"
	KindMovie  EntityKind = "movie"
	KindTicket EntityKind = "ticket"
)

func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(s); k {
	case KindUser, KindMovie, KindTicket:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown entity kind %q", ErrSignatureKindMismatch, s)
}
