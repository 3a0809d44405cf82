package steamclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// eventBus is a topic-keyed pub/sub dispatcher, topic being an EMsg. It
// generalizes two patterns found separately in the teacher: the ad-hoc
// single-shot `OnPacket` rewiring in `expectEMsg`, and (from
// original_source's EventEmitter) `on`/`remove_listener`/`emit`/`wait_for`.
// Unlike the teacher's single mutable callback field, multiple independent
// subscribers can coexist per topic — service adapters, a catch-all
// OnPacket-style subscriber, and WaitFor callers all register independently.
type eventBus struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[EMsg][]*subscription
	next uint64
}

type subscription struct {
	id    uint64
	topic EMsg
	fn    func(*Packet)
	async bool
}

func newEventBus(logger *slog.Logger) *eventBus {
	return &eventBus{
		logger: logger,
		subs:   make(map[EMsg][]*subscription),
	}
}

// On registers fn to be called for every packet Emitted under topic.
// When async is true, fn runs in its own goroutine per event so a slow or
// blocking subscriber cannot stall Emit or other subscribers. It returns a
// handle to pass to Off.
func (b *eventBus) On(topic EMsg, fn func(*Packet), async bool) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs[topic] = append(b.subs[topic], &subscription{id: id, topic: topic, fn: fn, async: async})
	return id
}

// Off removes a previously registered subscriber.
func (b *eventBus) Off(topic EMsg, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Emit dispatches pkt to every subscriber registered for pkt.EMsg, over a
// snapshot of the subscriber slice taken under the lock — a subscriber
// that calls Off on itself (or another) mid-callback neither panics nor
// skips a sibling. Each subscriber's panic is recovered and logged rather
// than propagated, so one bad handler cannot take down the read loop or
// its siblings.
func (b *eventBus) Emit(pkt *Packet) {
	b.mu.Lock()
	subs := append([]*subscription(nil), b.subs[pkt.EMsg]...)
	b.mu.Unlock()

	for _, s := range subs {
		if s.async {
			go b.dispatch(s, pkt)
		} else {
			b.dispatch(s, pkt)
		}
	}
}

func (b *eventBus) dispatch(s *subscription, pkt *Packet) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked", "topic", pkt.EMsg, "panic", r)
		}
	}()
	s.fn(pkt)
}

// WaitFor blocks until a packet matching topic (and, if non-nil, predicate)
// is Emitted, ctx is done, or done closes. It installs a one-shot
// subscriber before returning, so callers should arrange for the matching
// Emit to happen only after WaitFor has been called (e.g. by calling
// WaitFor before sending the request that triggers the response).
func (b *eventBus) WaitFor(ctx context.Context, topic EMsg, predicate func(*Packet) bool, done <-chan struct{}) (*Packet, error) {
	ch := make(chan *Packet, 1)

	var id uint64
	id = b.On(topic, func(pkt *Packet) {
		if predicate != nil && !predicate(pkt) {
			return
		}
		select {
		case ch <- pkt:
		default:
		}
	}, false)
	defer b.Off(topic, id)

	select {
	case pkt := <-ch:
		return pkt, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for %s", ErrTimeout, topic)
	case <-done:
		return nil, ErrDisconnected
	}
}
