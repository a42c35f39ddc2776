package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/JoeTonDev/trading-fractals/internal/metrics"
)

var (
	// ErrClosed is returned when sending on a closed producer or receiving from a drained, closed queue.
	ErrClosed = errors.New("event queue closed")
	// ErrQueueFull is returned by the reject overflow policy.
	ErrQueueFull = errors.New("event queue full")
	// ErrNilEvent is returned when a producer sends a nil Event.
	ErrNilEvent = errors.New("nil event")
)

// OverflowPolicy decides what a bounded queue does when a producer sends while full.
type OverflowPolicy string

const (
	// Block parks the producer until the consumer frees a slot.
	Block OverflowPolicy = "block"
	// DropOldest evicts the head of the queue to make room.
	DropOldest OverflowPolicy = "drop_oldest"
	// Reject returns ErrQueueFull to the producer.
	Reject OverflowPolicy = "reject"
)

// ParseOverflowPolicy normalizes a configured policy name; empty selects Block.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch p := OverflowPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Block, nil
	case Block, DropOldest, Reject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q", s)
	}
}

// QueueConfig sizes the queue. Capacity 0 means unbounded.
type QueueConfig struct {
	Capacity int
	Policy   OverflowPolicy
	// OnDrop, if set, observes events evicted by DropOldest or refused by Reject.
	OnDrop func(Event)
}

// Queue is a multi-producer, single-consumer FIFO. It closes once every producer
// handle has been closed.
type Queue struct {
	mu        sync.Mutex
	items     []Event
	capacity  int
	policy    OverflowPolicy
	onDrop    func(Event)
	producers int
	closed    bool
	ready     chan struct{}
	space     chan struct{}
}

// Tx is a producer handle. Clone it for each additional producer and Close it when done.
type Tx struct {
	q    *Queue
	mu   sync.Mutex
	done bool
}

// NewQueue returns the first producer handle and the consumer side.
func NewQueue(cfg QueueConfig) (*Tx, *Queue) {
	policy := cfg.Policy
	if policy == "" {
		policy = Block
	}
	q := &Queue{
		capacity:  max(cfg.Capacity, 0),
		policy:    policy,
		onDrop:    cfg.OnDrop,
		producers: 1,
		ready:     make(chan struct{}, 1),
		space:     make(chan struct{}, 1),
	}
	return &Tx{q: q}, q
}

// Len reports the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Recv blocks until an event is available. It returns ErrClosed once every producer is
// closed and the queue is empty.
func (q *Queue) Recv(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			e := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			depth := len(q.items)
			q.mu.Unlock()
			metrics.QueueDepth.Set(float64(depth))
			wake(q.space)
			return e, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *Queue) push(ctx context.Context, e Event) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if q.capacity == 0 || len(q.items) < q.capacity {
			q.items = append(q.items, e)
			depth := len(q.items)
			q.mu.Unlock()
			metrics.QueueDepth.Set(float64(depth))
			wake(q.ready)
			return nil
		}

		switch q.policy {
		case DropOldest:
			dropped := q.items[0]
			q.items[0] = nil
			q.items = append(q.items[1:], e)
			q.mu.Unlock()
			q.dropped(dropped)
			wake(q.ready)
			return nil
		case Reject:
			q.mu.Unlock()
			q.dropped(e)
			return ErrQueueFull
		}
		q.mu.Unlock()

		select {
		case <-q.space:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *Queue) dropped(e Event) {
	metrics.EventsDropped.WithLabelValues(string(q.policy)).Inc()
	if q.onDrop != nil {
		q.onDrop(e)
	}
}

func (q *Queue) release() {
	q.mu.Lock()
	q.producers--
	if q.producers == 0 {
		q.closed = true
	}
	q.mu.Unlock()
	wake(q.ready)
}

func wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Send enqueues e. Under the Block policy it waits for space without a deadline.
func (tx *Tx) Send(e Event) error {
	return tx.SendContext(context.Background(), e)
}

// SendContext enqueues e, giving up when ctx is done while blocked on a full queue.
func (tx *Tx) SendContext(ctx context.Context, e Event) error {
	if e == nil {
		return ErrNilEvent
	}
	tx.mu.Lock()
	done := tx.done
	tx.mu.Unlock()
	if done {
		return ErrClosed
	}
	return tx.q.push(ctx, e)
}

// Clone registers another producer on the same queue.
func (tx *Tx) Clone() *Tx {
	tx.mu.Lock()
	done := tx.done
	tx.mu.Unlock()

	tx.q.mu.Lock()
	defer tx.q.mu.Unlock()
	if done || tx.q.closed {
		return &Tx{q: tx.q, done: true}
	}
	tx.q.producers++
	return &Tx{q: tx.q}
}

// Close releases the producer. The queue closes after the last producer is released.
func (tx *Tx) Close() {
	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return
	}
	tx.done = true
	tx.mu.Unlock()
	tx.q.release()
}
