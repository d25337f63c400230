package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes replication deliveries to a fixed set of workers using
// consistent hashing on the client id, so messages about one client are
// applied one at a time and in arrival order while different clients
// proceed in parallel.
type Dispatcher struct {
	workers    []chan ports.Delivery
	replicator ports.IdentityReplicator
	log        zerolog.Logger
	newBackOff func() backoff.BackOff
	wg         sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, replicator ports.IdentityReplicator, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:    make([]chan ports.Delivery, numWorkers),
		replicator: replicator,
		log:        log,
		newBackOff: defaultBackOff,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Delivery, channelBuffer)
	}
	return d
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	// Retry until the store comes back or the process stops.
	b.MaxElapsedTime = 0
	return b
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func(id int, ch <-chan ports.Delivery) {
			defer d.wg.Done()
			d.runWorker(ctx, id, ch)
		}(i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a delivery to the worker responsible for its client id.
// It blocks while that worker's buffer is full.
func (d *Dispatcher) Enqueue(ctx context.Context, delivery ports.Delivery) error {
	idx := d.shardIndex(delivery.Message.ClientID)
	select {
	case d.workers[idx] <- delivery:
		metrics.ReplicationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a client id deterministically to a worker index.
func (d *Dispatcher) shardIndex(clientID uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write(clientID[:])
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Delivery) {
	depth := metrics.ReplicationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.process(ctx, id, delivery)
		}
	}
}

// process applies one delivery, retrying transient failures in place.
// The delivery is acked when it applied or can never apply; a cancelled
// context leaves it unacked for redelivery.
func (d *Dispatcher) process(ctx context.Context, workerID int, delivery ports.Delivery) {
	msg := delivery.Message
	attempt := 0
	op := func() error {
		attempt++
		err := d.replicator.Apply(ctx, msg)
		if err == nil {
			return nil
		}
		if domain.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		metrics.ReplicationRetriesTotal.Inc()
		d.log.Warn().Err(err).
			Str("client_id", msg.ClientID.String()).
			Str("message_id", msg.MessageID.String()).
			Int("worker_id", workerID).
			Int("attempt", attempt).
			Msg("replication apply failed, retrying")
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(d.newBackOff(), ctx))
	switch {
	case err == nil:
		delivery.Ack()
	case domain.IsPermanent(err):
		d.log.Error().Err(err).
			Str("client_id", msg.ClientID.String()).
			Str("message_id", msg.MessageID.String()).
			Int("worker_id", workerID).
			Msg("replication message rejected")
		delivery.Ack()
	default:
		d.log.Info().Err(err).
			Str("message_id", msg.MessageID.String()).
			Int("worker_id", workerID).
			Msg("replication message left for redelivery")
	}
}
