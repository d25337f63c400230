package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubMirror struct {
	mu        sync.Mutex
	records   map[uuid.UUID]domain.ClientMirrorRecord
	upsertErr error
	getErr    error
	upserts   int
}

func newStubMirror() *stubMirror {
	return &stubMirror{records: make(map[uuid.UUID]domain.ClientMirrorRecord)}
}

func (m *stubMirror) Upsert(_ context.Context, u domain.MirrorUpdate) (domain.ClientMirrorRecord, domain.UpsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return domain.ClientMirrorRecord{}, "", m.upsertErr
	}
	var existing *domain.ClientMirrorRecord
	if rec, ok := m.records[u.ClientID]; ok {
		existing = &rec
	}
	rec, outcome, err := domain.Merge(existing, u)
	if err == nil {
		m.records[u.ClientID] = rec
	}
	return rec, outcome, err
}

func (m *stubMirror) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	_, ok := m.records[id]
	return ok, nil
}

func (m *stubMirror) Get(_ context.Context, id uuid.UUID) (*domain.ClientMirrorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return &rec, nil
}

type stubDedup struct {
	seen    map[string]bool
	dupErr  error
	markErr error
	marked  []string
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, key string) (bool, error) {
	if d.dupErr != nil {
		return false, d.dupErr
	}
	return d.seen[key], nil
}

func (d *stubDedup) Mark(_ context.Context, key string) error {
	if d.markErr != nil {
		return d.markErr
	}
	d.seen[key] = true
	d.marked = append(d.marked, key)
	return nil
}

func newReplicator(store ports.ClientMirrorStore, dedup ports.DedupChecker) ports.IdentityReplicator {
	return NewReplicationService(store, dedup, zerolog.Nop())
}

func created(id uuid.UUID, login string) domain.ReplicationMessage {
	return domain.NewClientCreated(domain.ClientCreateMessage{ClientID: id, ClientLogin: login}, time.Now())
}

func referenced(id uuid.UUID) domain.ReplicationMessage {
	return domain.NewClientReferenced(domain.ClientUUIDMessage{ClientID: id}, time.Now())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReplicationService_Apply_Idempotent(t *testing.T) {
	store := newStubMirror()
	svc := newReplicator(store, nil)
	id := uuid.New()

	// Each application is a fresh delivery with its own message id, so the
	// merge itself must make the repeats harmless.
	for i := 0; i < 5; i++ {
		if err := svc.Apply(context.Background(), created(id, "alice_smith")); err != nil {
			t.Fatalf("apply #%d: unexpected error: %v", i, err)
		}
	}

	if len(store.records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(store.records))
	}
	want := domain.ClientMirrorRecord{ID: id, Login: "alice_smith", Active: true}
	if got := store.records[id]; got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestReplicationService_Apply_Conflict(t *testing.T) {
	store := newStubMirror()
	svc := newReplicator(store, newStubDedup())
	id := uuid.New()

	if err := svc.Apply(context.Background(), created(id, "alice_smith")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.Apply(context.Background(), created(id, "mallory_x"))
	if !errors.Is(err, domain.ErrIdentityConflict) {
		t.Fatalf("expected ErrIdentityConflict, got %v", err)
	}
	if !domain.IsPermanent(err) {
		t.Errorf("conflict must be permanent so the consumer moves on")
	}
	if store.records[id].Login != "alice_smith" {
		t.Errorf("expected login to stay alice_smith, got %q", store.records[id].Login)
	}
}

func TestReplicationService_Apply_FillInOrderIndependent(t *testing.T) {
	id := uuid.New()
	ctx := context.Background()

	a := newStubMirror()
	svcA := newReplicator(a, nil)
	if err := svcA.Apply(ctx, referenced(id)); err != nil {
		t.Fatal(err)
	}
	if !a.records[id].IsPlaceholder() || !a.records[id].Active {
		t.Fatalf("expected active placeholder, got %+v", a.records[id])
	}
	if err := svcA.Apply(ctx, created(id, "alice_smith")); err != nil {
		t.Fatal(err)
	}

	b := newStubMirror()
	svcB := newReplicator(b, nil)
	if err := svcB.Apply(ctx, created(id, "alice_smith")); err != nil {
		t.Fatal(err)
	}
	if err := svcB.Apply(ctx, referenced(id)); err != nil {
		t.Fatal(err)
	}

	if a.records[id] != b.records[id] {
		t.Errorf("order changed the result: %+v vs %+v", a.records[id], b.records[id])
	}
}

func TestReplicationService_Apply_StatusThenCreate(t *testing.T) {
	store := newStubMirror()
	svc := newReplicator(store, nil)
	id := uuid.New()
	ctx := context.Background()

	deactivate := domain.NewClientStatus(domain.ClientStatusMessage{ClientID: id, Active: false}, time.Now())
	if err := svc.Apply(ctx, deactivate); err != nil {
		t.Fatal(err)
	}
	if err := svc.Apply(ctx, created(id, "alice_smith")); err != nil {
		t.Fatal(err)
	}

	got := store.records[id]
	if got.Login != "alice_smith" || got.Active {
		t.Errorf("a late creation must fill the login and keep the deactivation, got %+v", got)
	}
}

func TestReplicationService_Apply_DuplicateMessageSkipped(t *testing.T) {
	store := newStubMirror()
	dedup := newStubDedup()
	svc := newReplicator(store, dedup)
	msg := created(uuid.New(), "alice_smith")

	for i := 0; i < 3; i++ {
		if err := svc.Apply(context.Background(), msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.upserts != 1 {
		t.Errorf("expected one upsert, got %d", store.upserts)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != msg.MessageID.String() {
		t.Errorf("expected message id marked once, got %v", dedup.marked)
	}
}

func TestReplicationService_Apply_DedupErrorAppliesAnyway(t *testing.T) {
	store := newStubMirror()
	dedup := newStubDedup()
	dedup.dupErr = errors.New("redis down")
	dedup.markErr = errors.New("redis down")
	svc := newReplicator(store, dedup)
	id := uuid.New()

	if err := svc.Apply(context.Background(), created(id, "alice_smith")); err != nil {
		t.Fatalf("expected dedup failure to be tolerated, got %v", err)
	}
	if _, ok := store.records[id]; !ok {
		t.Error("expected record to be written")
	}
}

func TestReplicationService_Apply_TransientStoreError(t *testing.T) {
	store := newStubMirror()
	store.upsertErr = errors.New("connection refused")
	dedup := newStubDedup()
	svc := newReplicator(store, dedup)
	msg := created(uuid.New(), "alice_smith")

	err := svc.Apply(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsPermanent(err) {
		t.Error("storage faults must be retried")
	}
	if len(dedup.marked) != 0 {
		t.Error("a message that was not persisted must not be marked")
	}

	store.upsertErr = nil
	if err := svc.Apply(context.Background(), msg); err != nil {
		t.Fatalf("redelivery should succeed, got %v", err)
	}
}

func TestReplicationService_Apply_Malformed(t *testing.T) {
	store := newStubMirror()
	svc := newReplicator(store, nil)

	err := svc.Apply(context.Background(), domain.ReplicationMessage{Type: domain.MessageClientCreated, ClientID: uuid.New()})
	if !errors.Is(err, domain.ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
	if store.upserts != 0 {
		t.Error("malformed message must not reach the store")
	}
}

func TestDedupKey_FallsBackToFingerprint(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := domain.ReplicationMessage{Type: domain.MessageClientCreated, ClientID: id, ClientLogin: "alice_smith", OccurredAt: at}
	b := a
	c := a
	c.OccurredAt = at.Add(time.Second)

	if DedupKey(a) != DedupKey(b) {
		t.Error("identical payloads must share a key")
	}
	if DedupKey(a) == DedupKey(c) {
		t.Error("messages emitted at different times must not share a key")
	}

	a.MessageID = uuid.New()
	if DedupKey(a) != a.MessageID.String() {
		t.Error("message id must win when present")
	}
}
