package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestReplicationMessage_Update(t *testing.T) {
	id := uuid.New()
	now := time.Now()

	tests := []struct {
		name    string
		msg     ReplicationMessage
		want    MirrorUpdate
		wantErr error
	}{
		{
			name: "created",
			msg:  NewClientCreated(ClientCreateMessage{ClientID: id, ClientLogin: "alice_smith"}, now),
			want: MirrorUpdate{ClientID: id, Login: "alice_smith"},
		},
		{
			name: "referenced",
			msg:  NewClientReferenced(ClientUUIDMessage{ClientID: id}, now),
			want: MirrorUpdate{ClientID: id},
		},
		{
			name:    "created without login",
			msg:     ReplicationMessage{Type: MessageClientCreated, ClientID: id},
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "status without flag",
			msg:     ReplicationMessage{Type: MessageClientStatus, ClientID: id},
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "nil client id",
			msg:     ReplicationMessage{Type: MessageClientReferenced},
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "unknown type",
			msg:     ReplicationMessage{Type: "client.deleted", ClientID: id},
			wantErr: ErrMalformedMessage,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.msg.Update()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if !IsPermanent(err) {
					t.Errorf("malformed messages must be permanent")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ClientID != tc.want.ClientID || got.Login != tc.want.Login || got.Active != nil {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReplicationMessage_StatusUpdate(t *testing.T) {
	msg := NewClientStatus(ClientStatusMessage{ClientID: uuid.New(), Active: false}, time.Now())
	u, err := msg.Update()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Active == nil || *u.Active {
		t.Errorf("expected active=false, got %v", u.Active)
	}
	if u.Login != "" {
		t.Errorf("status message must not carry a login")
	}
}

func TestTicketType_Price(t *testing.T) {
	base := decimal.RequireFromString("12.35")

	if got := TicketNormal.Price(base); !got.Equal(base) {
		t.Errorf("normal: got %s", got)
	}
	// 12.35 * 0.7 = 8.645, rounded half away from zero.
	if got := TicketReduced.Price(base); !got.Equal(decimal.RequireFromString("8.65")) {
		t.Errorf("reduced: got %s", got)
	}
}

func TestParseTicketType(t *testing.T) {
	if tt, err := ParseTicketType(""); err != nil || tt != TicketNormal {
		t.Errorf("empty should default to normal, got %s %v", tt, err)
	}
	if tt, err := ParseTicketType("REDUCED"); err != nil || tt != TicketReduced {
		t.Errorf("expected reduced, got %s %v", tt, err)
	}
	if _, err := ParseTicketType("vip"); !errors.Is(err, ErrInvalidTicketType) {
		t.Errorf("expected ErrInvalidTicketType, got %v", err)
	}
}
