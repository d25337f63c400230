package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType names a replication message on the wire.
type MessageType string

const (
	MessageClientCreated    MessageType = "client.created"
	MessageClientReferenced MessageType = "client.referenced"
	MessageClientStatus     MessageType = "client.status"
)

// ClientCreateMessage declares a new client identity with its login.
type ClientCreateMessage struct {
	ClientID    uuid.UUID
	ClientLogin string
}

// ClientUUIDMessage signals that a client id exists without carrying the login.
type ClientUUIDMessage struct {
	ClientID uuid.UUID
}

// ClientStatusMessage carries an activation change for a client.
type ClientStatusMessage struct {
	ClientID uuid.UUID
	Active   bool
}

// ReplicationMessage is the envelope every identity change travels in.
// MessageID is assigned by the producer and is the idempotency key.
type ReplicationMessage struct {
	MessageID   uuid.UUID   `json:"message_id"`
	Type        MessageType `json:"type"`
	ClientID    uuid.UUID   `json:"client_id"`
	ClientLogin string      `json:"client_login,omitempty"`
	Active      *bool       `json:"active,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

func NewClientCreated(m ClientCreateMessage, now time.Time) ReplicationMessage {
	return ReplicationMessage{
		MessageID:   uuid.New(),
		Type:        MessageClientCreated,
		ClientID:    m.ClientID,
		ClientLogin: m.ClientLogin,
		OccurredAt:  now.UTC(),
	}
}

func NewClientReferenced(m ClientUUIDMessage, now time.Time) ReplicationMessage {
	return ReplicationMessage{
		MessageID:  uuid.New(),
		Type:       MessageClientReferenced,
		ClientID:   m.ClientID,
		OccurredAt: now.UTC(),
	}
}

func NewClientStatus(m ClientStatusMessage, now time.Time) ReplicationMessage {
	active := m.Active
	return ReplicationMessage{
		MessageID:  uuid.New(),
		Type:       MessageClientStatus,
		ClientID:   m.ClientID,
		Active:     &active,
		OccurredAt: now.UTC(),
	}
}

// Update validates the envelope and translates it into a mirror update.
// Validation failures wrap ErrMalformedMessage.
func (m ReplicationMessage) Update() (MirrorUpdate, error) {
	if m.ClientID == uuid.Nil {
		return MirrorUpdate{}, fmt.Errorf("%w: missing client_id", ErrMalformedMessage)
	}
	switch m.Type {
	case MessageClientCreated:
		if m.ClientLogin == "" {
			return MirrorUpdate{}, fmt.Errorf("%w: %s without client_login", ErrMalformedMessage, m.Type)
		}
		// A replayed creation must not undo a later deactivation, so Active stays nil.
		return MirrorUpdate{ClientID: m.ClientID, Login: m.ClientLogin}, nil
	case MessageClientReferenced:
		return MirrorUpdate{ClientID: m.ClientID}, nil
	case MessageClientStatus:
		if m.Active == nil {
			return MirrorUpdate{}, fmt.Errorf("%w: %s without active", ErrMalformedMessage, m.Type)
		}
		active := *m.Active
		return MirrorUpdate{ClientID: m.ClientID, Active: &active}, nil
	default:
		return MirrorUpdate{}, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, m.Type)
	}
}
