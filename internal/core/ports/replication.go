package ports

import (
	"context"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// ReplicationPublisher emits identity changes from the User service.
type ReplicationPublisher interface {
	Publish(ctx context.Context, msg domain.ReplicationMessage) error
}

// DedupChecker remembers which replication messages were already applied.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// IdentityReplicator applies replication messages to the client mirror.
// A nil error means the message may be acknowledged. Errors for which
// domain.IsPermanent is true will not succeed on redelivery either.
type IdentityReplicator interface {
	Apply(ctx context.Context, msg domain.ReplicationMessage) error
}

// Delivery is a replication message fetched from the broker. Ack must be
// called exactly once, after the message is applied or found permanently
// unusable; an unacknowledged delivery is redelivered after a restart.
type Delivery struct {
	Message domain.ReplicationMessage
	Ack     func()
}
