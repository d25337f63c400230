package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cinemaplex/cinema-system/internal/api/metrics"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
	"github.com/cinemaplex/cinema-system/internal/infrastructure/messaging"
)

const defaultCommitInterval = time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink receives decoded deliveries. Enqueue blocks while the sink is full.
type Sink interface {
	Enqueue(ctx context.Context, d ports.Delivery) error
}

type ConsumerConfig struct {
	Brokers        []string
	GroupID        string
	Topic          string
	CommitInterval time.Duration
}

// Consumer fetches replication messages without auto-commit and commits
// each partition only up to its highest contiguously acknowledged offset.
type Consumer struct {
	reader         messageReader
	sink           Sink
	offsets        *offsetTracker
	commitInterval time.Duration
	newBackOff     func() backoff.BackOff
	log            zerolog.Logger
}

func NewConsumer(cfg ConsumerConfig, sink Sink, log zerolog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer requires at least one broker")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka consumer requires group id")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka consumer requires a topic")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: []string{cfg.Topic},
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(reader, sink, cfg.CommitInterval, log), nil
}

func newConsumer(reader messageReader, sink Sink, commitInterval time.Duration, log zerolog.Logger) *Consumer {
	if commitInterval <= 0 {
		commitInterval = defaultCommitInterval
	}
	return &Consumer{
		reader:         reader,
		sink:           sink,
		offsets:        newOffsetTracker(),
		commitInterval: commitInterval,
		newBackOff:     fetchBackOff,
		log:            log,
	}
}

func fetchBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return b
}

// Run consumes until ctx is cancelled. Fetch errors are retried with
// backoff; Run only gives up when the backoff policy stops. Acknowledged
// offsets are committed periodically and once more on the way out.
func (c *Consumer) Run(ctx context.Context) error {
	commitCtx, stopCommits := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.commitLoop(commitCtx)
	}()
	defer func() {
		stopCommits()
		<-done
	}()

	bo := c.newBackOff()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("kafka fetch: %w", err)
			}
			c.log.Error().Err(err).Dur("retry_in", wait).Msg("kafka fetch failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()
		c.offsets.fetched(m)

		msg, err := messaging.Decode(m.Value)
		if err != nil {
			metrics.ReplicationMessagesTotal.WithLabelValues(string(msg.Type), "malformed").Inc()
			c.log.Warn().Err(err).
				Str("topic", m.Topic).
				Int("partition", m.Partition).
				Int64("offset", m.Offset).
				Msg("malformed replication message skipped")
			c.offsets.ack(m.Topic, m.Partition, m.Offset)
			continue
		}

		topic, partition, offset := m.Topic, m.Partition, m.Offset
		delivery := ports.Delivery{
			Message: msg,
			Ack:     func() { c.offsets.ack(topic, partition, offset) },
		}
		if err := c.sink.Enqueue(ctx, delivery); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) commitLoop(ctx context.Context) {
	ticker := time.NewTicker(c.commitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Final commit outlives the cancelled context briefly.
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.commit(final)
			cancel()
			return
		case <-ticker.C:
			c.commit(ctx)
		}
	}
}

func (c *Consumer) commit(ctx context.Context) {
	msgs := c.offsets.committable()
	if len(msgs) == 0 {
		return
	}
	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		// Usually a rebalance; the new owner redelivers from the last commit.
		c.log.Error().Err(err).Int("partitions", len(msgs)).Msg("offset commit failed")
		return
	}
	c.log.Debug().
		Int("partitions", len(msgs)).
		Int("in_flight", c.offsets.inFlight()).
		Msg("offsets committed")
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
