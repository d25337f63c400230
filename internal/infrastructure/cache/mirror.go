// Package cache puts a short-lived in-process cache in front of the client
// mirror. Only hits are cached; a miss always goes to the store so a client
// that was just replicated is visible immediately.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

const defaultTTL = 30 * time.Second

// MirrorStore decorates a ports.ClientMirrorStore. Upserts through this
// instance evict the entry; upserts applied by another replica become
// visible after the TTL.
//
// Every change bumps a per-client generation. A Get only fills the cache
// when no upsert for that client finished while it was reading the store.
type MirrorStore struct {
	next  ports.ClientMirrorStore
	cache *gocache.Cache

	mu          sync.Mutex
	generations map[uuid.UUID]uint64
}

func NewMirrorStore(next ports.ClientMirrorStore, ttl time.Duration) *MirrorStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MirrorStore{
		next:        next,
		cache:       gocache.New(ttl, 2*ttl),
		generations: make(map[uuid.UUID]uint64),
	}
}

func (s *MirrorStore) Upsert(ctx context.Context, update domain.MirrorUpdate) (domain.ClientMirrorRecord, domain.UpsertOutcome, error) {
	rec, outcome, err := s.next.Upsert(ctx, update)
	if err == nil && outcome != domain.OutcomeUnchanged {
		s.mu.Lock()
		s.generations[update.ClientID]++
		s.cache.Delete(update.ClientID.String())
		s.mu.Unlock()
	}
	return rec, outcome, err
}

func (s *MirrorStore) Exists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	if _, ok := s.cache.Get(clientID.String()); ok {
		return true, nil
	}
	return s.next.Exists(ctx, clientID)
}

func (s *MirrorStore) Get(ctx context.Context, clientID uuid.UUID) (*domain.ClientMirrorRecord, error) {
	key := clientID.String()
	if v, ok := s.cache.Get(key); ok {
		rec := v.(domain.ClientMirrorRecord)
		return &rec, nil
	}

	gen := s.generation(clientID)
	rec, err := s.next.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generations[clientID] == gen {
		s.cache.Set(key, *rec, gocache.DefaultExpiration)
	}
	s.mu.Unlock()
	return rec, nil
}

func (s *MirrorStore) generation(clientID uuid.UUID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[clientID]
}
