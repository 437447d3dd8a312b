package player

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Tick is one frame-rate progress sample from the visible slot.
type Tick struct {
	ItemID   string
	Current  float64
	Duration float64
}

var (
	ErrSubscriberExists = errors.New("player: subscriber id already registered")
	ErrUnknownSub       = errors.New("player: unknown subscriber id")
	ErrNilChannel       = errors.New("player: nil subscriber channel")
)

// ProgressBus fans progress ticks out to subscriber channels without ever
// blocking the publisher. Ticks arrive at display refresh rate; a subscriber
// that cannot keep up loses ticks rather than stalling the frame loop or
// flooding the playback store's subscriber graph.
//
// Drop ticks, never queue: a stale playhead sample is worthless.
type ProgressBus struct {
	mu   sync.RWMutex
	subs map[string]chan<- Tick

	published atomic.Uint64
	dropped   atomic.Uint64
}

// BusStats is a point-in-time snapshot of bus throughput.
type BusStats struct {
	Subscribers int
	Published   uint64
	Dropped     uint64
}

// NewProgressBus creates an empty bus.
func NewProgressBus() *ProgressBus {
	return &ProgressBus{subs: make(map[string]chan<- Tick)}
}

// Subscribe registers a channel to receive ticks. The caller owns the
// channel and chooses its buffer depth; depth 1 is plenty for a UI control
// that only wants the latest sample.
func (b *ProgressBus) Subscribe(id string, ch chan<- Tick) error {
	if ch == nil {
		return ErrNilChannel
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subs[id]; exists {
		return ErrSubscriberExists
	}
	b.subs[id] = ch
	return nil
}

// Unsubscribe removes a subscriber by id.
func (b *ProgressBus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subs[id]; !exists {
		return ErrUnknownSub
	}
	delete(b.subs, id)
	return nil
}

// Publish sends the tick to every subscriber whose channel has room and
// drops it for the rest. Never blocks.
func (b *ProgressBus) Publish(t Tick) {
	b.published.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- t:
		default:
			b.dropped.Add(1)
		}
	}
}

// Stats returns a throughput snapshot.
func (b *ProgressBus) Stats() BusStats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return BusStats{
		Subscribers: n,
		Published:   b.published.Load(),
		Dropped:     b.dropped.Load(),
	}
}
