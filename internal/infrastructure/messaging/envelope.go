// Package messaging holds the wire envelope for replication messages and
// the broker-independent publishers.
package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// Encode serializes a replication message into its JSON envelope.
func Encode(msg domain.ReplicationMessage) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode replication message: %w", err)
	}
	return b, nil
}

// Decode parses a JSON envelope. Anything that is not a well-formed
// replication message wraps domain.ErrMalformedMessage.
func Decode(b []byte) (domain.ReplicationMessage, error) {
	var msg domain.ReplicationMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return domain.ReplicationMessage{}, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if _, err := msg.Update(); err != nil {
		return msg, err
	}
	return msg, nil
}
