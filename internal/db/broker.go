package db

import (
	"context"
	"sync"

	"caresync/pkg"
)

// Broker fans query events out to in-process subscribers (SSE streams and
// websocket clients).  Slow subscribers lose events rather than block the
// publisher.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan pkg.QueryEvent
}

// NewBroker returns a broker with no subscribers.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan pkg.QueryEvent)}
}

// Publish implements the API's event publisher for single-instance
// deployments that run without Postgres.
func (b *Broker) Publish(_ context.Context, ev pkg.QueryEvent) error {
	b.Broadcast(ev)
	return nil
}

// Broadcast delivers ev to every current subscriber.
func (b *Broker) Broadcast(ev pkg.QueryEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a subscriber that lives until ctx is done, at which
// point the returned channel is closed.
func (b *Broker) Subscribe(ctx context.Context) <-chan pkg.QueryEvent {
	ch := make(chan pkg.QueryEvent, 16)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}
