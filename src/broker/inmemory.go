package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryBroker is a channel-based Broker for local mode and tests.
// Every published message is retained so a late subscriber starts from the
// beginning of the topic, the way the Redpanda consumer does.
type InMemoryBroker struct {
	mu     sync.RWMutex
	topics map[string]*memTopic
	closed bool
}

type memTopic struct {
	log  []Message
	subs map[string]*subscription // groupID -> subscription
}

// subscription pumps queued messages to its channel without blocking
// publishers.
type subscription struct {
	mu     sync.Mutex
	queue  []Message
	notify chan struct{}
	out    chan Message
	done   chan struct{}
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{topics: make(map[string]*memTopic)}
}

func (b *InMemoryBroker) topic(name string) *memTopic {
	t, ok := b.topics[name]
	if !ok {
		t = &memTopic{subs: make(map[string]*subscription)}
		b.topics[name] = t
	}
	return t
}

// Publish appends a message to topic and hands it to every subscribed group.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	t := b.topic(topic)
	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    int64(len(t.log)),
		Timestamp: time.Now().UnixMilli(),
	}
	t.log = append(t.log, msg)
	for _, s := range t.subs {
		s.push(msg)
	}
	return nil
}

// Subscribe returns a channel that receives every message of topic, starting
// with the ones already published. One subscription per group is allowed.
// The channel is closed when ctx is done or the broker is closed.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	t := b.topic(topic)
	if _, exists := t.subs[groupID]; exists {
		return nil, fmt.Errorf("consumer already exists for topic %s and group %s", topic, groupID)
	}

	s := &subscription{
		queue:  append([]Message(nil), t.log...),
		notify: make(chan struct{}, 1),
		out:    make(chan Message, 100),
		done:   make(chan struct{}),
	}
	t.subs[groupID] = s

	go func() {
		s.run(ctx)
		b.unsubscribe(topic, groupID, s)
	}()

	return s.out, nil
}

func (b *InMemoryBroker) unsubscribe(topic, groupID string, s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[topic]; ok && t.subs[groupID] == s {
		delete(t.subs, groupID)
	}
}

// Close stops every subscription and closes their channels.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, t := range b.topics {
		for _, s := range t.subs {
			close(s.done)
		}
	}
	return nil
}

func (s *subscription) push(msg Message) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.notify:
				continue
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
		msg := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- msg:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}
