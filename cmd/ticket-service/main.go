package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cinemaplex/cinema-system/internal/api"
	"github.com/cinemaplex/cinema-system/internal/api/handler"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
	"github.com/cinemaplex/cinema-system/internal/core/service"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/cache"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/config"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/db/memory"
	mongodb "github.com/cinemaplex/cinema-system/internal/infrastructure/db/mongo"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/db/postgres"
	redisdb "github.com/cinemaplex/cinema-system/internal/infrastructure/db/redis"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/messaging/kafka"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/queue"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/token"
	"github.com/cinemaplex/cinema-system/pkg/logger"
	"github.com/cinemaplex/cinema-system/pkg/tracing"
)

const serviceName = "ticket-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Service: serviceName})
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: serviceName})

	traceName := cfg.Tracing.ServiceName
	if traceName == "" {
		traceName = serviceName
	}
	shutdownTracing, err := tracing.Init(ctx, traceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create mongo indexes")
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	health := map[string]handler.Pinger{
		"mongodb": mongodb.Pinger{DB: db},
		"redis":   redisdb.Pinger{Client: rdb},
	}
	mirrorStore := newMirrorStore(ctx, cfg, db, health, log)
	mirror := cache.NewMirrorStore(mirrorStore, cfg.Mirror.CacheTTL)

	signer, generated, err := token.NewSignerFromSeed(cfg.Signature.KeySeed, cfg.Signature.VerifyKeys)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build entity signer")
	}
	if generated {
		log.Warn().Msg("SIGNATURE_KEY_SEED not set; signatures will not survive a restart")
	}
	codec, err := token.NewJWTCodec(token.JWTConfig{
		Secret: []byte(cfg.Token.Secret),
		TTL:    cfg.Token.TTL,
		Issuer: cfg.Token.Issuer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token codec")
	}

	movieRepo := mongodb.NewMovieRepository(db)
	ticketRepo := mongodb.NewTicketRepository(db)
	movies := service.NewMovieService(movieRepo, signer, log)
	tickets := service.NewTicketService(mirror, movieRepo, ticketRepo, signer, log)
	groupID, dedup := replicationSource(cfg, rdb, uuid.NewString())
	replicator := service.NewReplicationService(mirror, dedup, log)

	// --- Replication consumer ---
	var workers sync.WaitGroup
	if cfg.Kafka.Enabled() {
		startReplication(ctx, cfg, groupID, replicator, &workers, log)
	} else {
		log.Warn().Msg("KAFKA_BROKERS not set; the client mirror will not receive updates")
	}

	e := api.NewTicketRouter(api.TicketDeps{
		ServiceName:   serviceName,
		Authenticator: service.NewSessionVerifier(codec),
		Movies:        movies,
		Tickets:       tickets,
		Signer:        signer,
		Health:        health,
		Log:           log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("mirror_backend", cfg.Mirror.Backend).Msg("ticket service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received interruption signal, shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	workers.Wait()
	shutdownStores(shutdownCtx, mongoClient, rdb.Close, log)
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("shutdown complete")
}

// newMirrorStore picks the client mirror engine named by MIRROR_BACKEND.
func newMirrorStore(ctx context.Context, cfg *config.Config, db *mongo.Database, health map[string]handler.Pinger, log zerolog.Logger) ports.ClientMirrorStore {
	switch cfg.Mirror.Backend {
	case config.MirrorBackendPostgres:
		gdb, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		if err := postgres.RunMigrations(gdb); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate postgres")
		}
		health["postgres"] = postgres.Pinger{DB: gdb}
		return postgres.NewClientMirrorStore(gdb)
	case config.MirrorBackendMemory:
		store, err := memory.NewClientMirrorStore()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build memory mirror")
		}
		log.Warn().Msg("client mirror is in memory; it is rebuilt from the start of the topic on every boot")
		return store
	default:
		return mongodb.NewClientMirrorRepository(db)
	}
}

// replicationSource picks the consumer group and dedup checker. A memory
// mirror is empty after a restart, so it joins a fresh group that starts at
// the first offset and replays every message without the dedup keys left
// by the previous boot.
func replicationSource(cfg *config.Config, rdb *goredis.Client, bootID string) (string, ports.DedupChecker) {
	if cfg.Mirror.Backend == config.MirrorBackendMemory {
		return cfg.Kafka.GroupID + "-" + bootID, nil
	}
	return cfg.Kafka.GroupID, redisdb.NewDedupChecker(rdb, cfg.Redis.DedupTTL)
}

// startReplication runs the Kafka consumer feeding the sharded dispatcher.
// Both stop with ctx; unacknowledged messages stay uncommitted.
func startReplication(ctx context.Context, cfg *config.Config, groupID string, replicator ports.IdentityReplicator, wg *sync.WaitGroup, log zerolog.Logger) {
	dispatcher := queue.NewDispatcher(cfg.Mirror.Workers, replicator, log)
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: groupID,
		Topic:   cfg.Kafka.IdentityTopic,
	}, dispatcher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build kafka consumer")
	}

	dispatcher.Start(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer dispatcher.Wait()
		defer func() {
			if err := consumer.Close(); err != nil {
				log.Error().Err(err).Msg("close kafka consumer")
			}
		}()
		log.Info().
			Str("topic", cfg.Kafka.IdentityTopic).
			Str("group_id", groupID).
			Int("workers", cfg.Mirror.Workers).
			Msg("replication consumer started")
		if err := consumer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("replication consumer stopped")
		}
	}()
}

func shutdownStores(ctx context.Context, client *mongo.Client, closeRedis func() error, log zerolog.Logger) {
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	if err := closeRedis(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}
