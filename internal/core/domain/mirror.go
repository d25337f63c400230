package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ClientMirrorRecord is the Ticket service's local copy of a client identity
// owned by the User service. An empty Login marks a placeholder created from
// a bare reference that is still waiting for the full creation message.
type ClientMirrorRecord struct {
	ID     uuid.UUID `json:"id"`
	Login  string    `json:"login"`
	Active bool      `json:"active"`
}

// IsPlaceholder reports whether the login has not been replicated yet.
func (r ClientMirrorRecord) IsPlaceholder() bool {
	return r.Login == ""
}

// MirrorUpdate is the change a single replication message asks for.
// An empty Login leaves the login alone; a nil Active leaves the flag alone.
type MirrorUpdate struct {
	ClientID uuid.UUID
	Login    string
	Active   *bool
}

// UpsertOutcome describes what an upsert did to the mirror.
type UpsertOutcome string

const (
	OutcomeCreated   UpsertOutcome = "created"
	OutcomeUpdated   UpsertOutcome = "updated"
	OutcomeUnchanged UpsertOutcome = "unchanged"
)

// Merge applies update to existing and returns the resulting record.
// existing is nil when the id has never been seen.
//
// Login is write-once: it may fill an empty login but never replace a
// different one; that case returns ErrIdentityConflict and the existing
// record unchanged. Every storage engine runs Merge inside its own per-id
// atomic section.
func Merge(existing *ClientMirrorRecord, update MirrorUpdate) (ClientMirrorRecord, UpsertOutcome, error) {
	if existing == nil {
		rec := ClientMirrorRecord{ID: update.ClientID, Login: update.Login, Active: true}
		if update.Active != nil {
			rec.Active = *update.Active
		}
		return rec, OutcomeCreated, nil
	}

	rec := *existing
	if update.Login != "" {
		switch rec.Login {
		case "":
			rec.Login = update.Login
		case update.Login:
		default:
			return *existing, OutcomeUnchanged, fmt.Errorf("%w: client %s has login %q, message carries %q",
				ErrIdentityConflict, rec.ID, rec.Login, update.Login)
		}
	}
	if update.Active != nil {
		rec.Active = *update.Active
	}

	if rec == *existing {
		return rec, OutcomeUnchanged, nil
	}
	return rec, OutcomeUpdated, nil
}
