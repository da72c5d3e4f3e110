package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Broadcaster delivers session events to subscribers in subscription order.
// Delivery happens outside the internal lock, so subscribers may subscribe,
// unsubscribe, or call back into the session manager from their callback.
type Broadcaster struct {
	mu     sync.Mutex
	subs   []*subscriber
	logger *slog.Logger
}

type subscriber struct {
	id      string
	fn      func(Event)
	removed atomic.Bool
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	sub *subscriber
	b   *Broadcaster
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{logger: logger.With("component", "session_broadcaster")}
}

// Subscribe registers fn. Subscribers added during a notification do not receive
// that notification.
func (b *Broadcaster) Subscribe(fn func(Event)) *Subscription {
	s := &subscriber{id: uuid.NewString(), fn: fn}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return &Subscription{sub: s, b: b}
}

// ID returns the unique handle of the subscription.
func (s *Subscription) ID() string {
	if s == nil || s.sub == nil {
		return ""
	}
	return s.sub.id
}

// Unsubscribe removes the subscription. It is idempotent, and a subscriber removed
// during a notification is not called for the rest of it.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.sub == nil || s.b == nil {
		return
	}
	if s.sub.removed.Swap(true) {
		return
	}
	s.b.remove(s.sub.id)
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Notify delivers ev to every subscriber registered at the time of the call.
// A panicking subscriber is logged and does not stop delivery to the others.
func (b *Broadcaster) Notify(ev Event) {
	b.mu.Lock()
	snapshot := make([]*subscriber, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		if s.removed.Load() {
			continue
		}
		b.deliver(s, ev)
	}
}

func (b *Broadcaster) deliver(s *subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic in session subscriber",
				"subscriber_id", s.id,
				"event", string(ev.Kind()),
				"panic", r)
		}
	}()
	s.fn(ev)
}
