package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vertigo_feed_pages_total", Help: "Feed page fetches"},
		[]string{"status"},
	)
	recyclePasses = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vertigo_feed_recycle_passes_total", Help: "Recycle passes over the exhausted feed"},
	)
)

// RegisterMetrics registers the feed metrics with the default registry.
func RegisterMetrics() {
	prometheus.MustRegister(pagesFetched, recyclePasses)
}

// Source is the paginated feed the pager pulls from. An empty NextCursor in
// the returned page signals exhaustion.
type Source interface {
	FetchPage(ctx context.Context, cursor string) (*Page, error)
}

// ErrCoolingDown is returned when a recycle pass is requested before the
// previous one has settled.
var ErrCoolingDown = errors.New("feed: recycle cooling down")

// Pager pulls pages from a Source and, once the source is exhausted, keeps
// the feed alive by re-emitting the already-delivered sequence. Recycling is
// done by modulo indexing over the delivered buffer, so every cycle hands out
// the same *Item values instead of fresh copies; identity-based change
// detection downstream keeps working across cycles.
type Pager struct {
	source Source
	clock  Clock

	// cool-down between recycle passes; a tuning knob, not a contract
	cooldown time.Duration

	mu           sync.Mutex
	delivered    []*Item
	cursor       string
	exhausted    bool
	recycleIdx   int
	lastRecycle  time.Time
	lastFetchErr error
}

// NewPager creates a pager over the given source. A zero cooldown disables
// the recycle throttle (useful in tests).
func NewPager(source Source, clock Clock, cooldown time.Duration) *Pager {
	if clock == nil {
		clock = RealClock{}
	}
	return &Pager{source: source, clock: clock, cooldown: cooldown}
}

// Next returns the next batch of items. While the source has pages left it
// fetches the next one; afterwards it recycles the delivered buffer in
// order, one page-sized window per call.
//
// A fetch failure is returned to the caller and leaves the cursor untouched,
// so the same cursor is retried on the next call. The feed itself stays
// usable throughout.
func (p *Pager) Next(ctx context.Context) ([]*Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.exhausted {
		return p.fetchLocked(ctx)
	}
	return p.recycleLocked()
}

func (p *Pager) fetchLocked(ctx context.Context) ([]*Item, error) {
	page, err := p.source.FetchPage(ctx, p.cursor)
	if err == nil {
		err = page.Validate()
	}
	if err != nil {
		pagesFetched.WithLabelValues("failure").Inc()
		p.lastFetchErr = err
		return nil, fmt.Errorf("fetch page (cursor %q): %w", p.cursor, err)
	}

	pagesFetched.WithLabelValues("success").Inc()
	p.lastFetchErr = nil
	p.delivered = append(p.delivered, page.Items...)
	p.cursor = page.NextCursor
	if page.NextCursor == "" {
		p.exhausted = true
		log.Printf("🔁 Feed source exhausted after %d items, recycling from here on", len(p.delivered))
	}
	return page.Items, nil
}

func (p *Pager) recycleLocked() ([]*Item, error) {
	if len(p.delivered) == 0 {
		return nil, errors.New("feed: nothing to recycle")
	}

	// Starting a new pass over the buffer is throttled so a burst of
	// approaching-end signals cannot spin the feed.
	if p.recycleIdx == 0 {
		now := p.clock.Now()
		if p.cooldown > 0 && !p.lastRecycle.IsZero() && now.Sub(p.lastRecycle) < p.cooldown {
			return nil, ErrCoolingDown
		}
		p.lastRecycle = now
		recyclePasses.Inc()
	}

	window := len(p.delivered)
	if window > defaultRecycleWindow {
		window = defaultRecycleWindow
	}

	batch := make([]*Item, 0, window)
	for i := 0; i < window; i++ {
		batch = append(batch, p.delivered[(p.recycleIdx+i)%len(p.delivered)])
	}
	p.recycleIdx = (p.recycleIdx + window) % len(p.delivered)
	return batch, nil
}

// defaultRecycleWindow caps how many items a single recycle call emits.
const defaultRecycleWindow = 10

// Exhausted reports whether the underlying source has run out of pages.
func (p *Pager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// LastError returns the most recent fetch failure, or nil after a success.
func (p *Pager) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFetchErr
}

// Delivered returns how many distinct items the source has handed out.
func (p *Pager) Delivered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.delivered)
}
