package realtime

import (
	"context"
	"sync"
)

// MemoryBroker is a single-process Broker.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan string]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[string]map[chan string]struct{}),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, topic, event string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	for ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
			// Subscriber already has events queued and will re-read state
		}
	}

	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic string) (<-chan string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	ch := make(chan string, subscriberBuffer)
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan string]struct{})
	}
	b.subs[topic][ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(topic, ch)
	}()

	return ch, nil
}

func (b *MemoryBroker) unsubscribe(topic string, ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subs[topic]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}

	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(b.subs, topic)
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for topic, subs := range b.subs {
		for ch := range subs {
			close(ch)
		}
		delete(b.subs, topic)
	}

	return nil
}
