package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// scriptedReplicator fails the first failures[msgID] attempts with err.
type scriptedReplicator struct {
	mu       sync.Mutex
	applied  map[uuid.UUID][]uuid.UUID // client -> message ids in apply order
	failures map[uuid.UUID]int
	err      error
	attempts map[uuid.UUID]int
}

func newScripted() *scriptedReplicator {
	return &scriptedReplicator{
		applied:  make(map[uuid.UUID][]uuid.UUID),
		failures: make(map[uuid.UUID]int),
		attempts: make(map[uuid.UUID]int),
	}
}

func (r *scriptedReplicator) Apply(_ context.Context, msg domain.ReplicationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[msg.MessageID]++
	if r.attempts[msg.MessageID] <= r.failures[msg.MessageID] {
		return r.err
	}
	r.applied[msg.ClientID] = append(r.applied[msg.ClientID], msg.MessageID)
	return nil
}

func newTestDispatcher(workers int, r ports.IdentityReplicator) *Dispatcher {
	d := NewDispatcher(workers, r, zerolog.Nop())
	d.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return d
}

type ackRecorder struct {
	mu    sync.Mutex
	acked map[uuid.UUID]int
	wg    sync.WaitGroup
}

func (a *ackRecorder) delivery(msg domain.ReplicationMessage) ports.Delivery {
	a.wg.Add(1)
	return ports.Delivery{Message: msg, Ack: func() {
		a.mu.Lock()
		a.acked[msg.MessageID]++
		a.mu.Unlock()
		a.wg.Done()
	}}
}

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for acks")
	}
}

func TestDispatcher_PreservesPerClientOrder(t *testing.T) {
	r := newScripted()
	r.err = errors.New("store unavailable")
	d := newTestDispatcher(4, r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	acks := &ackRecorder{acked: make(map[uuid.UUID]int)}
	clients := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	want := make(map[uuid.UUID][]uuid.UUID)
	for i := 0; i < 20; i++ {
		for _, c := range clients {
			msg := domain.NewClientCreated(domain.ClientCreateMessage{ClientID: c, ClientLogin: fmt.Sprintf("client_%d", i)}, time.Now())
			if i%5 == 0 {
				r.mu.Lock()
				r.failures[msg.MessageID] = 2
				r.mu.Unlock()
			}
			want[c] = append(want[c], msg.MessageID)
			if err := d.Enqueue(ctx, acks.delivery(msg)); err != nil {
				t.Fatal(err)
			}
		}
	}
	waitFor(t, &acks.wg)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range clients {
		got := r.applied[c]
		if len(got) != len(want[c]) {
			t.Fatalf("client %s: applied %d, want %d", c, len(got), len(want[c]))
		}
		for i := range got {
			if got[i] != want[c][i] {
				t.Fatalf("client %s: out of order at %d", c, i)
			}
		}
	}
}

func TestDispatcher_PermanentErrorAcked(t *testing.T) {
	r := newScripted()
	r.err = fmt.Errorf("apply: %w", domain.ErrIdentityConflict)
	d := newTestDispatcher(2, r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	msg := domain.NewClientCreated(domain.ClientCreateMessage{ClientID: uuid.New(), ClientLogin: "mallory_x"}, time.Now())
	r.failures[msg.MessageID] = 100

	acks := &ackRecorder{acked: make(map[uuid.UUID]int)}
	if err := d.Enqueue(ctx, acks.delivery(msg)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, &acks.wg)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts[msg.MessageID] != 1 {
		t.Errorf("permanent errors must not be retried, got %d attempts", r.attempts[msg.MessageID])
	}
	if acks.acked[msg.MessageID] != 1 {
		t.Errorf("expected exactly one ack, got %d", acks.acked[msg.MessageID])
	}
}

func TestDispatcher_CancelLeavesUnacked(t *testing.T) {
	r := newScripted()
	r.err = errors.New("store unavailable")
	d := newTestDispatcher(1, r)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	msg := domain.NewClientReferenced(domain.ClientUUIDMessage{ClientID: uuid.New()}, time.Now())
	r.failures[msg.MessageID] = 1 << 30

	var acked bool
	var mu sync.Mutex
	if err := d.Enqueue(ctx, ports.Delivery{Message: msg, Ack: func() {
		mu.Lock()
		acked = true
		mu.Unlock()
	}}); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	cancel()
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	if acked {
		t.Fatal("a message that never applied must not be acked")
	}
}

func TestDispatcher_EnqueueRespectsContext(t *testing.T) {
	d := newTestDispatcher(1, newScripted())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := domain.NewClientReferenced(domain.ClientUUIDMessage{ClientID: uuid.New()}, time.Now())
	// Workers are not started, so the buffer fills and the next send blocks.
	for i := 0; i < channelBuffer; i++ {
		if err := d.Enqueue(context.Background(), ports.Delivery{Message: msg, Ack: func() {}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Enqueue(ctx, ports.Delivery{Message: msg, Ack: func() {}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := newTestDispatcher(8, newScripted())
	id := uuid.New()
	first := d.shardIndex(id)
	for i := 0; i < 10; i++ {
		if got := d.shardIndex(id); got != first {
			t.Fatalf("shard changed: %d vs %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard %d out of range", first)
	}
}
