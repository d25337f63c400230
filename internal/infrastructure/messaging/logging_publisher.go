package messaging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// LoggingPublisher stands in for the broker when none is configured. It
// only logs, so nothing reaches a Ticket service.
type LoggingPublisher struct {
	log zerolog.Logger
}

func NewLoggingPublisher(log zerolog.Logger) *LoggingPublisher {
	return &LoggingPublisher{log: log}
}

func (p *LoggingPublisher) Publish(_ context.Context, msg domain.ReplicationMessage) error {
	e := p.log.Warn().
		Str("message_id", msg.MessageID.String()).
		Str("message_type", string(msg.Type)).
		Str("client_id", msg.ClientID.String())
	if msg.Active != nil {
		e = e.Bool("active", *msg.Active)
	}
	e.Msg("no broker configured, replication message not delivered")
	return nil
}
