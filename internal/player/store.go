package player

import (
	"log"
	"sync"

	"vertigo/internal/feed"
)

// Progress is the advisory playhead position. It is overwritten at high
// frequency and must never be used as a synchronization primitive.
type Progress struct {
	Current  float64
	Duration float64
}

// State is the full content of the playback store. Pure data: every piece of
// policy (which slot plays what) lives in the Player, which treats the store
// as its only input.
type State struct {
	Active   *feed.Item
	Preload  *feed.Item
	Playing  bool
	Muted    bool
	Progress Progress
}

// Store is the single source of playback truth. All components read and
// write play/pause/mute intent exclusively through it; nobody talks to a
// decoder directly. Updates are applied in call order (single writer,
// last-write-wins) and subscribers are notified synchronously.
type Store struct {
	mu   sync.Mutex
	next int
	subs map[int]func(State)

	active  *feed.Item
	preload *feed.Item
	// wantPlaying is what the play/pause control last asked for. The
	// effective Playing flag is wantPlaying gated on the active item
	// actually having a decoder, so scrolling video→markup→video restores
	// the control's choice.
	wantPlaying bool
	muted       bool
	progress    Progress
}

// NewStore creates a store in the paused, unmuted, empty state.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

// Subscribe registers a callback invoked synchronously after every state
// change. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Active:   s.active,
		Preload:  s.preload,
		Playing:  s.wantPlaying && s.active.IsVideo(),
		Muted:    s.muted,
		Progress: s.progress,
	}
}

// SetActive atomically updates the active and preload items. Re-reporting
// the already-active item with the same preload is a no-op, so duplicate
// index reports never fan out. A preload sharing the active item's ID is an
// invariant violation; it degrades to "no preload" rather than panicking.
func (s *Store) SetActive(item, preloadItem *feed.Item) {
	s.mu.Lock()
	if preloadItem != nil && item != nil && preloadItem.ID == item.ID {
		log.Printf("⚠️ Preload equals active (%s), dropping preload", item.ID)
		preloadItem = nil
	}
	// Reference equality, not ID: counter patches replace the object and
	// must propagate, while a re-report of the identical objects is skipped.
	if s.active == item && s.preload == preloadItem {
		s.mu.Unlock()
		return
	}
	s.active = item
	s.preload = preloadItem
	s.notifyLocked()
}

// TogglePlay flips the play/pause control.
func (s *Store) TogglePlay() {
	s.mu.Lock()
	s.wantPlaying = !s.wantPlaying
	s.notifyLocked()
}

// SetPlaying sets the play/pause control directly.
func (s *Store) SetPlaying(playing bool) {
	s.mu.Lock()
	if s.wantPlaying == playing {
		s.mu.Unlock()
		return
	}
	s.wantPlaying = playing
	s.notifyLocked()
}

// SetMuted sets the global mute flag. It only ever applies to the visible
// slot; the preloading slot is always muted regardless.
func (s *Store) SetMuted(muted bool) {
	s.mu.Lock()
	if s.muted == muted {
		s.mu.Unlock()
		return
	}
	s.muted = muted
	s.notifyLocked()
}

// SetProgress overwrites the advisory playhead. Frame-rate progress goes
// through the progress bus instead; this is for the occasional discrete
// update (pause, seek).
func (s *Store) SetProgress(current, duration float64) {
	s.mu.Lock()
	s.progress = Progress{Current: current, Duration: duration}
	s.notifyLocked()
}

// notifyLocked snapshots, releases the lock and calls subscribers.
// Subscribers run on the caller's goroutine, in keeping with the
// single-threaded, callback-driven model.
func (s *Store) notifyLocked() {
	state := s.snapshotLocked()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}
