package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinemaplex/cinema-system/internal/api"
	"github.com/cinemaplex/cinema-system/internal/api/handler"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
	"github.com/cinemaplex/cinema-system/internal/core/service"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/config"
	mongodb "github.com/cinemaplex/cinema-system/internal/infrastructure/db/mongo"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/messaging"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/messaging/kafka"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/token"
	"github.com/cinemaplex/cinema-system/pkg/logger"
	"github.com/cinemaplex/cinema-system/pkg/tracing"
)

const serviceName = "user-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Service: serviceName})
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: serviceName})

	shutdownTracing, err := tracing.Init(ctx, tracingName(cfg), cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create mongo indexes")
	}

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

	publisher, closePublisher := newPublisher(cfg.Kafka, log)

	identityRepo := mongodb.NewIdentityRepository(db)
	identities := service.NewIdentityService(identityRepo, publisher, signer, log)
	auth := service.NewAuthService(identityRepo, codec)

	e := api.NewUserRouter(api.UserDeps{
		ServiceName: serviceName,
		Identities:  identities,
		Auth:        auth,
		Signer:      signer,
		Health:      map[string]handler.Pinger{"mongodb": mongodb.Pinger{DB: db}},
		Log:         log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("kid", signer.KeyID()).Msg("user service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received interruption signal, shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := closePublisher(); err != nil {
		log.Error().Err(err).Msg("close publisher")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("shutdown complete")
}

// newPublisher returns the Kafka publisher, or a logging stand-in when no
// broker is configured.
func newPublisher(cfg config.KafkaConfig, log zerolog.Logger) (ports.ReplicationPublisher, func() error) {
	if !cfg.Enabled() {
		log.Warn().Msg("KAFKA_BROKERS not set; client replication is disabled")
		return messaging.NewLoggingPublisher(log), func() error { return nil }
	}
	p, err := kafka.NewPublisher(cfg.Brokers, cfg.IdentityTopic)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build kafka publisher")
	}
	return p, p.Close
}

func tracingName(cfg *config.Config) string {
	if cfg.Tracing.ServiceName != "" {
		return cfg.Tracing.ServiceName
	}
	return serviceName
}
