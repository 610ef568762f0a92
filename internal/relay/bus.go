// Package relay is the signaling relay: a websocket endpoint per user plus a
// pub/sub bus fanning envelopes out to channel subscribers. Delivery is
// fire-and-forget; the only guarantee is per-channel ordering of what is
// actually delivered.
package relay

import (
	"context"
	"sync"
)

// Bus routes raw envelope bytes to channel subscribers.
type Bus interface {
	Publish(ctx context.Context, channel string, data []byte) error
	// Subscribe registers fn for a channel and returns a cancel function.
	Subscribe(ctx context.Context, channel string, fn func([]byte)) (func(), error)
	Close() error
}

// MemoryBus is the single-node Bus. Publishing to a channel nobody is
// subscribed to drops the message silently.
type MemoryBus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]func([]byte)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]func([]byte))}
}

func (b *MemoryBus) Publish(_ context.Context, channel string, data []byte) error {
	b.mu.RLock()
	fns := make([]func([]byte), 0, len(b.subs[channel]))
	for _, fn := range b.subs[channel] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(data)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, channel string, fn func([]byte)) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]func([]byte))
	}
	b.subs[channel][id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[channel], id)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			b.mu.Unlock()
		})
	}, nil
}

func (b *MemoryBus) Close() error { return nil }

// Subscribers reports how many subscriptions a channel has.
func (b *MemoryBus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}
