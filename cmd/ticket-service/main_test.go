package main

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cinemaplex/cinema-system/internal/api/handler"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/config"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/db/memory"
)

func testConfig(backend string) *config.Config {
	cfg := &config.Config{}
	cfg.Kafka.GroupID = "ticket-service-mirror"
	cfg.Mirror.Backend = backend
	return cfg
}

func TestReplicationSource_MemoryReplaysFromFreshGroup(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
	defer rdb.Close()

	groupID, dedup := replicationSource(testConfig(config.MirrorBackendMemory), rdb, "boot-1")
	require.Equal(t, "ticket-service-mirror-boot-1", groupID)
	require.Nil(t, dedup, "dedup keys from an earlier boot would hide the replay")

	next, _ := replicationSource(testConfig(config.MirrorBackendMemory), rdb, "boot-2")
	require.NotEqual(t, groupID, next)
}

func TestReplicationSource_DurableMirrorKeepsGroup(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
	defer rdb.Close()

	for _, backend := range []string{config.MirrorBackendMongo, config.MirrorBackendPostgres} {
		groupID, dedup := replicationSource(testConfig(backend), rdb, "boot-1")
		require.Equal(t, "ticket-service-mirror", groupID, backend)
		require.NotNil(t, dedup, backend)
	}
}

func TestNewMirrorStore_Memory(t *testing.T) {
	health := map[string]handler.Pinger{}
	store := newMirrorStore(context.Background(), testConfig(config.MirrorBackendMemory), nil, health, zerolog.Nop())

	_, ok := store.(*memory.ClientMirrorStore)
	require.True(t, ok, "expected the memory store, got %T", store)
	require.Empty(t, health)
}
