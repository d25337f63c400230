package handler

import "time"

type registerRequest struct {
	Login    string `json:"login"    validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type createIdentityRequest struct {
	Login    string `json:"login"    validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"required,oneof=CLIENT STAFF ADMIN"`
}

type loginRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type statusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type identityResponse struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type authResponse struct {
	Token string            `json:"token,omitempty"`
	User  *identityResponse `json:"user,omitempty"`
}

// Replication is "pending" when the identity was stored but the Ticket
// service has not been told yet; an admin resync repairs it.
type registerResponse struct {
	User        identityResponse `json:"user"`
	Replication string           `json:"replication,omitempty"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
