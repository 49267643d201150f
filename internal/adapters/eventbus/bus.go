package eventbus

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

// Subscriber is a channel that receives events for a specific topic.
// Use a buffered channel to avoid blocking the publisher.
type Subscriber = chan domain.Event

// DefaultBufferSize is used when Subscribe is called with a non-positive size.
const DefaultBufferSize = 10

// SimpleEventBus is a basic in-memory event bus implementation using channels.
type SimpleEventBus struct {
	subscribers map[string]map[Subscriber]struct{} // topic -> set of subscriber channels
	mu          sync.RWMutex                       // Protects subscribers, isStopped
	stopChan    chan struct{}
	isStopped   bool
	dropped     map[string]int // events dropped per topic because a buffer was full
	droppedMu   sync.Mutex
	logger      zerolog.Logger
}

var _ domain.EventBus = (*SimpleEventBus)(nil)

// NewSimpleEventBus creates a new SimpleEventBus.
func NewSimpleEventBus(logger zerolog.Logger) *SimpleEventBus {
	return &SimpleEventBus{
		subscribers: make(map[string]map[Subscriber]struct{}),
		stopChan:    make(chan struct{}),
		dropped:     make(map[string]int),
		logger:      logger,
	}
}

// Publish sends an event to all subscribers of the event's topic.
// Sends never block: a subscriber whose buffer is full misses the event.
func (b *SimpleEventBus) Publish(event domain.Event) {
	b.mu.RLock()
	if b.isStopped {
		b.mu.RUnlock()
		b.logger.Debug().Str("topic", event.Topic).Msg("event bus stopped, ignoring publish")
		return
	}

	subsMap := b.subscribers[event.Topic]
	if len(subsMap) == 0 {
		b.mu.RUnlock()
		return
	}

	// Copy the subscriber set so sends happen outside the lock
	subsList := make([]Subscriber, 0, len(subsMap))
	for sub := range subsMap {
		subsList = append(subsList, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subsList {
		select {
		case sub <- event:
		case <-b.stopChan:
			return
		default:
			b.droppedMu.Lock()
			b.dropped[event.Topic]++
			b.droppedMu.Unlock()
			b.logger.Warn().Str("topic", event.Topic).Msg("subscriber buffer full, event dropped")
		}
	}
}

// Subscribe creates a new subscriber channel for a given topic.
// bufferSize determines the capacity of the subscriber channel.
func (b *SimpleEventBus) Subscribe(topic string, bufferSize int) (Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isStopped {
		return nil, fmt.Errorf("eventbus is stopped")
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	sub := make(Subscriber, bufferSize)
	if _, found := b.subscribers[topic]; !found {
		b.subscribers[topic] = make(map[Subscriber]struct{})
	}
	b.subscribers[topic][sub] = struct{}{}
	return sub, nil
}

// Unsubscribe removes a subscriber channel from a topic.
// It's the subscriber's responsibility to close their channel.
func (b *SimpleEventBus) Unsubscribe(topic string, sub Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subsMap, found := b.subscribers[topic]
	if !found {
		return fmt.Errorf("topic %s not found", topic)
	}
	if _, ok := subsMap[sub]; !ok {
		return fmt.Errorf("subscriber not found for topic %s", topic)
	}
	delete(subsMap, sub)
	if len(subsMap) == 0 {
		delete(b.subscribers, topic)
	}
	return nil
}

// Dropped returns how many events for topic were dropped on full buffers.
func (b *SimpleEventBus) Dropped(topic string) int {
	b.droppedMu.Lock()
	defer b.droppedMu.Unlock()
	return b.dropped[topic]
}

// Stop signals the event bus to stop publishing and forgets every subscriber.
func (b *SimpleEventBus) Stop() {
	b.mu.Lock()
	if b.isStopped {
		b.mu.Unlock()
		return
	}
	close(b.stopChan)
	b.isStopped = true
	b.subscribers = make(map[string]map[Subscriber]struct{})
	b.mu.Unlock()

	b.logger.Debug().Msg("event bus stopped")
}
