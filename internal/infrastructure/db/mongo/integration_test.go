//go:build integration

package mongo_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	repo "github.com/cinemaplex/cinema-system/internal/infrastructure/db/mongo"
)

var mongoURI string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	mongoURI = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	client, db, err := repo.Connect(ctx, repo.Config{URI: mongoURI, Database: "cinema_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	require.NoError(t, repo.EnsureIndexes(ctx, db))

	t.Run("client_mirror", func(t *testing.T) {
		mirror := repo.NewClientMirrorRepository(db)
		id := uuid.New()

		_, outcome, err := mirror.Upsert(ctx, domain.MirrorUpdate{ClientID: id})
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeCreated, outcome)

		_, outcome, err = mirror.Upsert(ctx, domain.MirrorUpdate{ClientID: id, Login: "alice_smith"})
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeUpdated, outcome)

		_, _, err = mirror.Upsert(ctx, domain.MirrorUpdate{ClientID: id, Login: "mallory_x"})
		require.ErrorIs(t, err, domain.ErrIdentityConflict)

		rec, err := mirror.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.ClientMirrorRecord{ID: id, Login: "alice_smith", Active: true}, *rec)

		ok, err := mirror.Exists(ctx, uuid.New())
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("client_mirror_concurrent_status", func(t *testing.T) {
		mirror := repo.NewClientMirrorRepository(db)
		id := uuid.New()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, _ = mirror.Upsert(ctx, domain.MirrorUpdate{ClientID: id, Login: "bob_jones"})
			}()
		}
		wg.Wait()

		rec, err := mirror.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "bob_jones", rec.Login)
	})

	t.Run("identities", func(t *testing.T) {
		identities := repo.NewIdentityRepository(db)
		now := time.Now().UTC().Truncate(time.Millisecond)
		id := &domain.Identity{
			ID: uuid.New(), Login: "carol_white", PasswordHash: "x",
			Role: domain.RoleClient, Active: true, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, identities.Create(ctx, id))

		dup := *id
		dup.ID = uuid.New()
		require.ErrorIs(t, identities.Create(ctx, &dup), domain.ErrUserExists)

		got, err := identities.FindByLogin(ctx, "carol_white")
		require.NoError(t, err)
		require.Equal(t, id.ID, got.ID)

		got, err = identities.SetActive(ctx, id.ID, false)
		require.NoError(t, err)
		require.False(t, got.Active)
	})

	t.Run("movies_and_tickets", func(t *testing.T) {
		movies := repo.NewMovieRepository(db)
		tickets := repo.NewTicketRepository(db)
		m := &domain.Movie{
			ID: uuid.New(), Title: "Metropolis", BasePrice: decimal.RequireFromString("10.00"),
			ScreeningRoom: 1, AvailableSeats: 1,
			ScreeningTime: time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, movies.Create(ctx, m))

		after, err := movies.ReserveSeat(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, 0, after.AvailableSeats)
		_, err = movies.ReserveSeat(ctx, m.ID)
		require.ErrorIs(t, err, domain.ErrNoSeatsAvailable)

		edited := *after
		edited.Title = "Metropolis (restored)"
		require.ErrorIs(t, movies.ReplaceIfUnchanged(ctx, m, &edited), domain.ErrPreconditionFailed)
		require.NoError(t, movies.ReplaceIfUnchanged(ctx, after, &edited))

		tk := &domain.Ticket{
			ID: uuid.New(), MovieTime: m.ScreeningTime, FinalPrice: decimal.RequireFromString("7"),
			ClientID: uuid.New(), MovieID: m.ID,
		}
		require.NoError(t, tickets.Create(ctx, tk))
		list, err := tickets.ListByClient(ctx, tk.ClientID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.True(t, list[0].FinalPrice.Equal(tk.FinalPrice))
	})
}
