package kafka

import (
	"sort"
	"sync"

	"github.com/segmentio/kafka-go"
)

type topicPartition struct {
	topic     string
	partition int
}

// partitionOffsets tracks one partition. pending holds fetched offsets in
// fetch order; only an acknowledged prefix of it may be committed.
type partitionOffsets struct {
	pending []int64
	acked   map[int64]bool
}

// offsetTracker decides which offsets are safe to commit. Workers ack out of
// order, so committing an offset is only allowed once every earlier fetched
// offset of the same partition is acked too.
type offsetTracker struct {
	mu    sync.Mutex
	parts map[topicPartition]*partitionOffsets
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{parts: make(map[topicPartition]*partitionOffsets)}
}

func (t *offsetTracker) fetched(m kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := topicPartition{m.Topic, m.Partition}
	p, ok := t.parts[key]
	if !ok {
		p = &partitionOffsets{acked: make(map[int64]bool)}
		t.parts[key] = p
	}
	// The group rebalanced and the partition restarted from its committed
	// offset. Whatever was pending is being redelivered.
	if n := len(p.pending); n > 0 && m.Offset <= p.pending[n-1] {
		p.pending = p.pending[:0]
		p.acked = make(map[int64]bool)
	}
	p.pending = append(p.pending, m.Offset)
}

func (t *offsetTracker) ack(topic string, partition int, offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.parts[topicPartition{topic, partition}]
	if !ok {
		return
	}
	p.acked[offset] = true
}

// committable pops the acknowledged prefix of every partition and returns,
// per partition, the last message of that prefix.
func (t *offsetTracker) committable() []kafka.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []kafka.Message
	for key, p := range t.parts {
		n := 0
		for n < len(p.pending) && p.acked[p.pending[n]] {
			delete(p.acked, p.pending[n])
			n++
		}
		if n == 0 {
			continue
		}
		last := p.pending[n-1]
		p.pending = append(p.pending[:0], p.pending[n:]...)
		out = append(out, kafka.Message{Topic: key.topic, Partition: key.partition, Offset: last})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Topic != out[j].Topic {
			return out[i].Topic < out[j].Topic
		}
		return out[i].Partition < out[j].Partition
	})
	return out
}

// inFlight is the number of fetched offsets not yet committed.
func (t *offsetTracker) inFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.parts {
		n += len(p.pending)
	}
	return n
}
