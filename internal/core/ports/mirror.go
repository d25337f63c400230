package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// ClientMirrorStore is the Ticket service's table of replicated clients.
// Implementations apply domain.Merge atomically per client id and must be
// safe for concurrent upserts on different ids.
type ClientMirrorStore interface {
	// Upsert merges update into the stored record. On ErrIdentityConflict the
	// stored record is returned untouched.
	Upsert(ctx context.Context, update domain.MirrorUpdate) (domain.ClientMirrorRecord, domain.UpsertOutcome, error)
	Exists(ctx context.Context, clientID uuid.UUID) (bool, error)
	// Get returns domain.ErrClientNotFound when the id has never been replicated.
	Get(ctx context.Context, clientID uuid.UUID) (*domain.ClientMirrorRecord, error)
}
