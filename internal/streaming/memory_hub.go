package streaming

import (
	"context"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls more than this far behind starts losing events.
const subscriberBuffer = 64

// MemoryHub is an in-process ResultHub: every subscriber gets its own
// buffered channel, and Publish fans out to the ones whose filter matches.
// Delivery is best-effort; a full channel drops the event rather than
// blocking the session's evaluation goroutine.
type MemoryHub struct {
	mu   sync.RWMutex
	subs map[*subscription]struct{}
}

type subscription struct {
	ch     chan ResultEvent
	filter EventFilter
}

func (s *subscription) wants(e ResultEvent) bool {
	if s.filter.SessionID != "" && s.filter.SessionID != e.SessionID {
		return false
	}
	if s.filter.DiagramID != "" && s.filter.DiagramID != e.DiagramID {
		return false
	}
	return true
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[*subscription]struct{})}
}

// Publish delivers the event to every matching subscriber without blocking.
func (h *MemoryHub) Publish(ctx context.Context, event ResultEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.wants(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// subscriber is behind; drop
		}
	}
	return nil
}

// Subscribe registers a filtered subscription and returns its channel plus
// a cancel function that detaches it. The channel is never closed; after
// cancel it simply stops receiving.
func (h *MemoryHub) Subscribe(ctx context.Context, filter EventFilter) (<-chan ResultEvent, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sub := &subscription{
		ch:     make(chan ResultEvent, subscriberBuffer),
		filter: filter,
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}

	return sub.ch, cancel, nil
}

var _ ResultHub = (*MemoryHub)(nil)
