package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

var tracer = otel.Tracer("cinema/service")

type replicationService struct {
	store ports.ClientMirrorStore
	dedup ports.DedupChecker
	log   zerolog.Logger
}

// NewReplicationService returns the IdentityReplicator of the Ticket service.
// dedup may be nil; the mirror merge is idempotent on its own and the dedup
// store only saves the round trip for redelivered messages.
func NewReplicationService(store ports.ClientMirrorStore, dedup ports.DedupChecker, log zerolog.Logger) ports.IdentityReplicator {
	return &replicationService{store: store, dedup: dedup, log: log}
}

// Apply validates, deduplicates and merges one replication message.
func (s *replicationService) Apply(ctx context.Context, msg domain.ReplicationMessage) (err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "Replication.Service.Apply", trace.WithSpanKind(trace.SpanKindConsumer))
	defer func() {
		metrics.ReplicationApplyDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("client_id", msg.ClientID.String()),
		attribute.String("message_type", string(msg.Type)),
	)

	log := s.log.With().
		Str("message_id", msg.MessageID.String()).
		Str("message_type", string(msg.Type)).
		Str("client_id", msg.ClientID.String()).
		Logger()

	// 1. Structural validation. A malformed message will never apply.
	update, err := msg.Update()
	if err != nil {
		metrics.ReplicationMessagesTotal.WithLabelValues(string(msg.Type), "malformed").Inc()
		log.Warn().Err(err).Msg("malformed replication message dropped")
		return err
	}

	// 2. Dedup lookup. A failing dedup store does not block replication.
	key := DedupKey(msg)
	if s.dedup != nil {
		dup, derr := s.dedup.IsDuplicate(ctx, key)
		switch {
		case derr != nil:
			metrics.ReplicationDedupTotal.WithLabelValues("error").Inc()
			log.Warn().Err(derr).Msg("dedup check failed, applying anyway")
		case dup:
			metrics.ReplicationDedupTotal.WithLabelValues("hit").Inc()
			metrics.ReplicationMessagesTotal.WithLabelValues(string(msg.Type), "duplicate").Inc()
			log.Debug().Msg("duplicate replication message skipped")
			return nil
		default:
			metrics.ReplicationDedupTotal.WithLabelValues("miss").Inc()
		}
	}

	// 3. Merge into the mirror.
	rec, outcome, err := s.store.Upsert(ctx, update)
	if errors.Is(err, domain.ErrIdentityConflict) {
		metrics.ReplicationConflictsTotal.Inc()
		metrics.ReplicationMessagesTotal.WithLabelValues(string(msg.Type), "conflict").Inc()
		log.Warn().
			Str("event", "identity_conflict").
			Str("existing_login", rec.Login).
			Str("incoming_login", update.Login).
			Time("occurred_at", msg.OccurredAt).
			Msg("client login conflict, mirror record kept")
		s.mark(ctx, key, log)
		return fmt.Errorf("apply %s: %w", msg.Type, err)
	}
	if err != nil {
		metrics.ReplicationMessagesTotal.WithLabelValues(string(msg.Type), "error").Inc()
		return fmt.Errorf("apply %s: %w", msg.Type, err)
	}

	// 4. Remember the message only after it is persisted.
	s.mark(ctx, key, log)

	metrics.ReplicationMessagesTotal.WithLabelValues(string(msg.Type), string(outcome)).Inc()
	log.Info().
		Str("outcome", string(outcome)).
		Bool("placeholder", rec.IsPlaceholder()).
		Bool("active", rec.Active).
		Msg("replication message applied")
	return nil
}

func (s *replicationService) mark(ctx context.Context, key string, log zerolog.Logger) {
	if s.dedup == nil {
		return
	}
	if err := s.dedup.Mark(ctx, key); err != nil {
		log.Warn().Err(err).Msg("failed to set dedup key")
	}
}

// DedupKey identifies a message for deduplication: its message id, or a
// fingerprint of its content when the producer did not set one.
func DedupKey(msg domain.ReplicationMessage) string {
	if msg.MessageID != uuid.Nil {
		return msg.MessageID.String()
	}
	active := "-"
	if msg.Active != nil {
		active = strconv.FormatBool(*msg.Active)
	}
	h := xxh3.HashString128(string(msg.Type) + "|" + msg.ClientID.String() + "|" + msg.ClientLogin + "|" + active +
		"|" + strconv.FormatInt(msg.OccurredAt.UnixNano(), 10))
	b := h.Bytes()
	return fmt.Sprintf("fp:%x", b[:])
}
