package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

func newStore(t *testing.T) *ClientMirrorStore {
	t.Helper()
	s, err := NewClientMirrorStore()
	require.NoError(t, err)
	return s
}

func TestClientMirrorStore_GetUnknown(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrClientNotFound)

	ok, err := s.Exists(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClientMirrorStore_UpsertIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	update := domain.MirrorUpdate{ClientID: uuid.New(), Login: "alice_smith"}

	_, outcome, err := s.Upsert(ctx, update)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCreated, outcome)

	for i := 0; i < 3; i++ {
		_, outcome, err = s.Upsert(ctx, update)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeUnchanged, outcome)
	}

	rec, err := s.Get(ctx, update.ClientID)
	require.NoError(t, err)
	require.Equal(t, domain.ClientMirrorRecord{ID: update.ClientID, Login: "alice_smith", Active: true}, *rec)
}

func TestClientMirrorStore_ConflictKeepsRecord(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	_, _, err := s.Upsert(ctx, domain.MirrorUpdate{ClientID: id, Login: "alice_smith"})
	require.NoError(t, err)

	kept, _, err := s.Upsert(ctx, domain.MirrorUpdate{ClientID: id, Login: "mallory_x"})
	require.ErrorIs(t, err, domain.ErrIdentityConflict)
	require.Equal(t, "alice_smith", kept.Login)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice_smith", rec.Login)
}

// Concurrent placeholder and creation upserts for the same ids must always
// end with the login filled in, whatever the interleaving.
func TestClientMirrorStore_ConcurrentFillIn(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ids := make([]uuid.UUID, 50)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		login := fmt.Sprintf("client_%04d", i)
		for j := 0; j < 4; j++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _, err := s.Upsert(ctx, domain.MirrorUpdate{ClientID: id})
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				_, _, err := s.Upsert(ctx, domain.MirrorUpdate{ClientID: id, Login: login})
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	for i, id := range ids {
		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("client_%04d", i), rec.Login)
		require.True(t, rec.Active)
	}
}
