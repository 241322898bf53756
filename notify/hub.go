package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/observability"
)

// DefaultQueueSize is the per-subscriber queue capacity.
const DefaultQueueSize = 256

// ErrHubStopped is returned by Subscribe after Stop.
var ErrHubStopped = errors.New("notify: hub stopped")

// Subscriber is one registration on a topic.
type Subscriber struct {
	ID    string
	Topic string

	events  chan []byte
	evicted atomic.Bool
}

// Events returns the queue of published payloads. It is closed on
// Unsubscribe, eviction or hub shutdown.
func (s *Subscriber) Events() <-chan []byte {
	return s.events
}

// Evicted reports whether the subscriber was dropped for a full queue.
func (s *Subscriber) Evicted() bool {
	return s.evicted.Load()
}

// Option configures a Hub.
type Option func(*Hub)

// WithQueueSize sets the per-subscriber queue capacity.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithMetrics records publish, subscriber and eviction metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// Hub fans published payloads out to the subscribers of a topic.
//
// Sends happen under the read lock and queues are only closed under the
// write lock, so a publish never sends on a closed queue and a concurrent
// Subscribe is ordered entirely before or after it.
type Hub struct {
	mu        sync.RWMutex
	topics    map[string]map[string]*Subscriber
	stopped   bool
	queueSize int
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		topics:    make(map[string]map[string]*Subscriber),
		queueSize: DefaultQueueSize,
		log:       logger.WithComponent("notify"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber on topic. The subscriber receives
// every message published after Subscribe returns.
func (h *Hub) Subscribe(topic string) (*Subscriber, error) {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		Topic:  topic,
		events: make(chan []byte, h.queueSize),
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrHubStopped
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*Subscriber)
		h.topics[topic] = subs
	}
	subs[sub.ID] = sub
	total := len(subs)
	h.mu.Unlock()

	h.metrics.SubscriberDelta(context.Background(), topic, 1)
	h.log.Debug("Subscriber registered", logger.Fields(
		logger.FieldTopic, topic,
		logger.FieldSubscriberID, sub.ID,
		"topic_subscribers", total,
	))
	return sub, nil
}

// Unsubscribe removes sub from topic and closes its queue. Calling it for a
// subscriber that is already gone is a no-op.
func (h *Hub) Unsubscribe(topic string, sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	removed := h.remove(topic, sub)
	h.mu.Unlock()

	if removed {
		h.metrics.SubscriberDelta(context.Background(), topic, -1)
		h.log.Debug("Subscriber unregistered", logger.Fields(
			logger.FieldTopic, topic,
			logger.FieldSubscriberID, sub.ID,
		))
	}
}

// remove must be called with h.mu held for writing.
func (h *Hub) remove(topic string, sub *Subscriber) bool {
	subs, ok := h.topics[topic]
	if !ok {
		return false
	}
	if current, ok := subs[sub.ID]; !ok || current != sub {
		return false
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	close(sub.events)
	return true
}

// Publish delivers data to every subscriber registered on topic and returns
// the number of queues it reached. It never blocks; subscribers with a full
// queue are evicted.
func (h *Hub) Publish(topic string, data []byte) int {
	var (
		delivered int
		slow      []*Subscriber
	)

	h.mu.RLock()
	for _, sub := range h.topics[topic] {
		if sub.evicted.Load() {
			continue
		}
		select {
		case sub.events <- data:
			delivered++
		default:
			// Later publishes skip it so the queue never has a gap before it closes.
			if sub.evicted.CompareAndSwap(false, true) {
				slow = append(slow, sub)
			}
		}
	}
	h.mu.RUnlock()

	ctx := context.Background()
	h.metrics.RecordPublish(ctx, topic, delivered)

	if len(slow) > 0 {
		h.evict(topic, slow)
	}

	h.log.Debug("Message published", logger.Fields(
		logger.FieldTopic, topic,
		"delivered", delivered,
		"evicted", len(slow),
		"data_size", len(data),
	))
	return delivered
}

func (h *Hub) evict(topic string, slow []*Subscriber) {
	h.mu.Lock()
	var removed int
	for _, sub := range slow {
		if h.remove(topic, sub) {
			removed++
		}
	}
	h.mu.Unlock()

	ctx := context.Background()
	for i := 0; i < removed; i++ {
		h.metrics.RecordEviction(ctx, topic)
	}
	if removed > 0 {
		h.metrics.SubscriberDelta(ctx, topic, int64(-removed))
	}
	for _, sub := range slow {
		h.log.Warn("Subscriber evicted, queue full", logger.Fields(
			logger.FieldTopic, topic,
			logger.FieldSubscriberID, sub.ID,
			"queue_size", h.queueSize,
		))
	}
}

// Stop closes every subscriber queue and rejects further subscriptions.
// Safe to call multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true

	ctx := context.Background()
	closed := 0
	for topic, subs := range h.topics {
		for _, sub := range subs {
			close(sub.events)
			closed++
		}
		h.metrics.SubscriberDelta(ctx, topic, int64(-len(subs)))
		delete(h.topics, topic)
	}
	h.log.Debug("Hub stopped", logger.Fields("closed_subscribers", closed))
}

// Stopped reports whether Stop has been called.
func (h *Hub) Stopped() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stopped
}

// SubscriberCount returns the number of subscribers on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// TotalSubscribers returns the number of subscribers across all topics.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, subs := range h.topics {
		n += len(subs)
	}
	return n
}

// Topics returns the topics that currently have subscribers, sorted.
func (h *Hub) Topics() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	topics := make([]string, 0, len(h.topics))
	for topic := range h.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}
