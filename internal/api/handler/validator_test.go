package handler

import (
	"strings"
	"testing"
)

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		req  any
		want string
	}{
		{"required", &createTicketRequest{MovieID: "9b2f6a51-33c2-4c4e-9d8e-54f1e0a3a7c1"}, "clientid is required"},
		{"uuid", &createTicketRequest{ClientID: "nope", MovieID: "9b2f6a51-33c2-4c4e-9d8e-54f1e0a3a7c1"}, "clientid must be a valid uuid"},
		{"oneof", &createTicketRequest{
			ClientID:   "9b2f6a51-33c2-4c4e-9d8e-54f1e0a3a7c1",
			MovieID:    "9b2f6a51-33c2-4c4e-9d8e-54f1e0a3a7c1",
			TicketType: "vip",
		}, "tickettype must be one of: normal reduced"},
		{"min", &registerRequest{Login: "bob", Password: "secret-pw"}, "login must be at least 8"},
		{"max", &registerRequest{Login: "a_login_that_is_far_too_long", Password: "secret-pw"}, "login must be at most 20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if err == nil {
				t.Fatalf("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err.Error())
			}
			if strings.Contains(err.Error(), "failed validation") {
				t.Errorf("tag fell through to the generic message: %q", err.Error())
			}
		})
	}
}
