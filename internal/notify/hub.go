package notify

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/port"
)

const DefaultBuffer = 64

var _ port.Publisher = (*Hub)(nil)

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full is evicted and its channel closed, so it never keeps
// streaming past a gap. It resubscribes to get a fresh snapshot.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

type Subscription struct {
	ch      chan domain.Event
	hub     *Hub
	once    sync.Once
	evicted atomic.Bool
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new subscriber. The initial events are queued ahead
// of anything published afterwards.
func (h *Hub) Subscribe(initial ...domain.Event) *Subscription {
	size := h.buffer
	if len(initial) > size {
		size = len(initial)
	}
	s := &Subscription{ch: make(chan domain.Event, size), hub: h}
	for _, ev := range initial {
		s.ch <- ev
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) Publish(ev domain.Event) {
	var slow []*Subscription
	h.mu.RLock()
	for s := range h.subs {
		if s.evicted.Load() {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			if s.evicted.CompareAndSwap(false, true) {
				slow = append(slow, s)
			}
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.logger.Warn("subscriber too slow, closing its stream", "event", ev.Kind())
		s.Unsubscribe()
	}
}

// Len reports the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()
	for s := range subs {
		s.once.Do(func() { close(s.ch) })
	}
}

// C is closed after Unsubscribe or Hub.Close.
func (s *Subscription) C() <-chan domain.Event {
	return s.ch
}

// Evicted reports whether the hub closed the subscription because its
// buffer overflowed.
func (s *Subscription) Evicted() bool {
	return s.evicted.Load()
}

func (s *Subscription) Unsubscribe() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}
