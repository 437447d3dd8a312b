package feed

import (
	"log"
	"sync"
)

// ScrollerConfig holds the virtualization tuning knobs.
type ScrollerConfig struct {
	// WindowRadius is how many items around the centered one stay live;
	// everything further out renders as a placeholder.
	WindowRadius int
	// ApproachThreshold fires the approaching-end signal when fewer than
	// this many items remain after the centered one.
	ApproachThreshold int
}

// DefaultScrollerConfig mirrors the production defaults.
func DefaultScrollerConfig() ScrollerConfig {
	return ScrollerConfig{WindowRadius: 2, ApproachThreshold: 2}
}

// Scroller virtualizes the item list: it tracks the centered index, keeps a
// small live window around it, and raises callbacks when the centered item
// changes or the tail of loaded data comes close.
//
// Index reports are idempotent by item ID, not by numeric index. Recycling
// reuses positions for logically new traversals, so two different indices
// can hold the same item and must not re-trigger downstream work.
type Scroller struct {
	cfg ScrollerConfig

	// OnIndexChange receives the newly centered item and the one expected
	// to become active next (nil at the end of loaded data).
	OnIndexChange func(current, next *Item)
	// OnApproachingEnd fires when the remaining tail drops below the
	// threshold. It is the pager's cue, nothing else's.
	OnApproachingEnd func()

	mu         sync.Mutex
	items      []*Item
	index      int
	centeredID string
	byID       map[string]int
}

// NewScroller creates an empty scroller.
func NewScroller(cfg ScrollerConfig) *Scroller {
	if cfg.WindowRadius <= 0 {
		cfg.WindowRadius = 2
	}
	if cfg.ApproachThreshold <= 0 {
		cfg.ApproachThreshold = 2
	}
	return &Scroller{cfg: cfg, byID: make(map[string]int)}
}

// Append adds freshly paged (or recycled) items to the tail.
func (s *Scroller) Append(items []*Item) {
	s.mu.Lock()
	for _, it := range items {
		s.items = append(s.items, it)
		// first occurrence wins; recycled duplicates keep their original slot
		if _, seen := s.byID[it.ID]; !seen {
			s.byID[it.ID] = len(s.items) - 1
		}
	}
	s.mu.Unlock()
}

// Len returns the number of loaded positions, recycled repeats included.
func (s *Scroller) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Item returns the item at the given position, or nil when out of range.
func (s *Scroller) Item(i int) *Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

// Index returns the centered position.
func (s *Scroller) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// SetIndex reports a new centered position (the snap target after a swipe).
// Re-reporting a position holding the already-centered item is a no-op, so
// downstream subscribers never see duplicate transitions.
func (s *Scroller) SetIndex(i int) {
	s.mu.Lock()
	if i < 0 || i >= len(s.items) {
		s.mu.Unlock()
		return
	}
	current := s.items[i]
	changed := current.ID != s.centeredID
	s.index = i
	s.centeredID = current.ID

	var next *Item
	if i+1 < len(s.items) {
		next = s.items[i+1]
	}
	remaining := len(s.items) - 1 - i
	approaching := remaining < s.cfg.ApproachThreshold

	onChange := s.OnIndexChange
	onApproach := s.OnApproachingEnd
	s.mu.Unlock()

	if changed && onChange != nil {
		onChange(current, next)
	}
	if approaching && onApproach != nil {
		onApproach()
	}
}

// Window reports the inclusive range of positions that should be mounted
// live. Everything outside renders a placeholder to keep memory bounded.
func (s *Scroller) Window() (lo, hi int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo = s.index - s.cfg.WindowRadius
	if lo < 0 {
		lo = 0
	}
	hi = s.index + s.cfg.WindowRadius
	if hi >= len(s.items) {
		hi = len(s.items) - 1
	}
	return lo, hi
}

// Live reports whether the position falls inside the mounted window.
func (s *Scroller) Live(i int) bool {
	lo, hi := s.Window()
	return i >= lo && i <= hi
}

// ApplyCounterPatch replaces every loaded occurrence of the item with a copy
// carrying the new counters. The old value is never mutated in place.
// Returns true when at least one position was patched.
func (s *Scroller) ApplyCounterPatch(id string, c Counters) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	first, ok := s.byID[id]
	if !ok {
		return false
	}

	// Recycled duplicates can only sit after the first occurrence, so the
	// scan starts there.
	var replacement *Item
	patched := false
	for i := first; i < len(s.items); i++ {
		it := s.items[i]
		if it.ID != id {
			continue
		}
		if replacement == nil {
			replacement = it.WithCounters(c)
		}
		s.items[i] = replacement
		patched = true
	}
	if patched {
		log.Printf("🔄 Counters patched for %s (likes=%d comments=%d)", id, c.Likes, c.Comments)
	}
	return patched
}
