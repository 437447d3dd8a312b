// Package session wires one mounted feed view together: pager, scroller,
// playback store, player and gate. It owns the control flow — scroll events
// write to the store, the player reacts — but no policy of its own.
package session

import (
	"context"
	"errors"
	"log"
	"time"

	"vertigo/internal/feed"
	"vertigo/internal/gate"
	"vertigo/internal/player"
)

// Config bundles the per-session tuning knobs.
type Config struct {
	Scroller        feed.ScrollerConfig
	RecycleCooldown time.Duration
	Clock           feed.Clock
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		Scroller:        feed.DefaultScrollerConfig(),
		RecycleCooldown: time.Second,
	}
}

// Session is one mounted feed view. Everything lives for exactly as long as
// the view does; the two decoder slots are created at mount and never
// recreated.
type Session struct {
	Pager    *feed.Pager
	Scroller *feed.Scroller
	Store    *player.Store
	Player   *player.Player
	Bus      *player.ProgressBus

	viewer gate.Viewer
}

// New mounts a session over the given source and decoder pair.
func New(src feed.Source, decA, decB player.Decoder, viewer gate.Viewer, cfg Config) *Session {
	s := &Session{
		Pager:    feed.NewPager(src, cfg.Clock, cfg.RecycleCooldown),
		Scroller: feed.NewScroller(cfg.Scroller),
		Store:    player.NewStore(),
		Bus:      player.NewProgressBus(),
		viewer:   viewer,
	}
	s.Player = player.New(s.Store, s.Bus, decA, decB)
	s.Player.Silenced = gate.Silencer(viewer)

	s.Scroller.OnIndexChange = func(current, next *feed.Item) {
		s.Store.SetActive(current, next)
	}
	s.Scroller.OnApproachingEnd = func() {
		// Fetch errors are recoverable: the next approaching-end signal
		// retries the same cursor. The feed keeps rendering what it has.
		if err := s.loadMore(context.Background()); err != nil {
			log.Printf("⚠️ Feed top-up failed: %v", err)
		}
	}
	return s
}

// Start performs the initial page load and centers the first item.
func (s *Session) Start(ctx context.Context) error {
	if err := s.loadMore(ctx); err != nil {
		return err
	}
	if s.Scroller.Len() == 0 {
		return errors.New("session: feed is empty")
	}
	s.Scroller.SetIndex(0)
	return nil
}

// Advance scrolls one item forward (the swipe-up gesture).
func (s *Session) Advance() {
	s.Scroller.SetIndex(s.Scroller.Index() + 1)
}

// Retreat scrolls one item back.
func (s *Session) Retreat() {
	s.Scroller.SetIndex(s.Scroller.Index() - 1)
}

// Obscured reports whether the currently active item is gated for this
// viewer. The UI layers a lock overlay on top; playback preloads regardless.
func (s *Session) Obscured() bool {
	return gate.ShouldObscure(s.Store.Snapshot().Active, s.viewer)
}

// ApplyCounterPatch accepts a counter update pushed from the platform and
// replaces the matching item immutably. If the patched item is on screen,
// the refreshed object is pushed through the store so subscribers see the
// new numbers; the player's rebind is a no-op since the stream URL is
// unchanged.
func (s *Session) ApplyCounterPatch(id string, c feed.Counters) {
	if !s.Scroller.ApplyCounterPatch(id, c) {
		return
	}
	st := s.Store.Snapshot()
	if st.Active == nil || (st.Active.ID != id && (st.Preload == nil || st.Preload.ID != id)) {
		return
	}
	idx := s.Scroller.Index()
	s.Store.SetActive(s.Scroller.Item(idx), s.Scroller.Item(idx+1))
}

// loadMore asks the pager for the next batch and appends it. A cool-down
// refusal is not an error; it just means the feed already has enough.
func (s *Session) loadMore(ctx context.Context) error {
	items, err := s.Pager.Next(ctx)
	if err != nil {
		if errors.Is(err, feed.ErrCoolingDown) {
			return nil
		}
		return err
	}
	s.Scroller.Append(items)
	return nil
}

// Close tears the session down and parks the decoders.
func (s *Session) Close() {
	s.Player.Close()
}
