package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Mirror storage engines for the Ticket service.
const (
	MirrorBackendMongo    = "mongo"
	MirrorBackendPostgres = "postgres"
	MirrorBackendMemory   = "memory"
)

// Config is shared by both services; each reads the parts it needs.
type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Token     TokenConfig
	Signature SignatureConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Mirror    MirrorConfig
	Postgres  PostgresConfig
	Tracing   TracingConfig
}

type TokenConfig struct {
	Secret string        `env:"JWT_SECRET"`
	TTL    time.Duration `env:"TOKEN_TTL,    default=1h"`
	Issuer string        `env:"TOKEN_ISSUER, default=cinema-user-service"`
}

type SignatureConfig struct {
	// KeySeed is a base64 Ed25519 seed. Empty generates a key at boot.
	KeySeed string `env:"SIGNATURE_KEY_SEED"`
	// VerifyKeys are extra base64 public keys still accepted after a rotation.
	VerifyKeys []string `env:"SIGNATURE_VERIFY_KEYS"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=cinema"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	DedupTTL time.Duration `env:"DEDUP_TTL,      default=24h"`
}

type KafkaConfig struct {
	Brokers       []string `env:"KAFKA_BROKERS"`
	GroupID       string   `env:"KAFKA_GROUP_ID,       default=ticket-service-mirror"`
	IdentityTopic string   `env:"KAFKA_TOPIC_IDENTITY, default=identity.replication"`
}

// Enabled reports whether a broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type MirrorConfig struct {
	Backend  string        `env:"MIRROR_BACKEND,      default=mongo"`
	CacheTTL time.Duration `env:"MIRROR_CACHE_TTL,    default=30s"`
	Workers  int           `env:"REPLICATION_WORKERS, default=8"`
}

type PostgresConfig struct {
	DSN      string `env:"POSTGRES_DSN"`
	MaxConns int    `env:"POSTGRES_MAX_CONNS, default=10"`
}

type TracingConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Mirror.Backend = strings.ToLower(strings.TrimSpace(cfg.Mirror.Backend))
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Token.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Token.TTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.Mirror.Backend {
	case MirrorBackendMongo, MirrorBackendMemory:
	case MirrorBackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN is required when MIRROR_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown MIRROR_BACKEND %q", c.Mirror.Backend)
	}
	return nil
}

// IsDevelopment reports whether the process runs with ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
