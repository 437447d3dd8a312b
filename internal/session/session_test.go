package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"vertigo/internal/feed"
	"vertigo/internal/gate"
	"vertigo/internal/player"
)

type scriptedSource struct {
	pages   map[string]*feed.Page
	failing map[string]bool
}

func (s *scriptedSource) FetchPage(_ context.Context, cursor string) (*feed.Page, error) {
	if s.failing[cursor] {
		return nil, errors.New("network down")
	}
	page, ok := s.pages[cursor]
	if !ok {
		return nil, errors.New("unknown cursor")
	}
	return page, nil
}

func video(id string) *feed.Item {
	return &feed.Item{
		ID:         id,
		Kind:       feed.KindVideo,
		AccessTier: feed.TierPublic,
		Video:      &feed.VideoPayload{HLSURL: "https://cdn.example/" + id + "/index.m3u8"},
	}
}

func markup(id string) *feed.Item {
	return &feed.Item{
		ID:         id,
		Kind:       feed.KindMarkup,
		AccessTier: feed.TierPublic,
		Markup:     &feed.MarkupPayload{HTML: "<p>slide</p>"},
	}
}

func mount(t *testing.T, src feed.Source, viewer gate.Viewer) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = feed.MockClock{MockTime: time.Unix(1000, 0)}
	cfg.RecycleCooldown = 0
	s := New(src, player.NewSimDecoder(30*time.Second), player.NewSimDecoder(30*time.Second), viewer, cfg)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("session start failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestScrollAcrossMarkupRestoresPlayState(t *testing.T) {
	src := &scriptedSource{
		pages: map[string]*feed.Page{
			"": {Items: []*feed.Item{video("v1"), markup("m1"), video("v2")}},
		},
		failing: map[string]bool{},
	}
	s := mount(t, src, gate.Viewer{})

	s.Store.SetPlaying(true)
	if !s.Store.Snapshot().Playing {
		t.Fatal("v1 should be playing")
	}

	s.Advance() // v1 -> m1
	st := s.Store.Snapshot()
	if st.Active.ID != "m1" {
		t.Fatalf("active = %s, want m1", st.Active.ID)
	}
	if st.Playing {
		t.Fatal("markup slide must force paused")
	}

	s.Advance() // m1 -> v2
	st = s.Store.Snapshot()
	if st.Active.ID != "v2" {
		t.Fatalf("active = %s, want v2", st.Active.ID)
	}
	if !st.Playing {
		t.Fatal("play state should revert to the control's last choice")
	}
}

func TestFetchFailureKeepsFeedAlive(t *testing.T) {
	src := &scriptedSource{
		pages: map[string]*feed.Page{
			"":   {Items: []*feed.Item{video("v1"), video("v2"), video("v3")}, NextCursor: "c1"},
			"c1": {Items: []*feed.Item{video("v4")}, NextCursor: "c2"},
		},
		failing: map[string]bool{"c1": true},
	}
	s := mount(t, src, gate.Viewer{})

	// Scrolling toward the tail triggers a fetch that fails. Loaded items
	// keep rendering and scrolling keeps working.
	s.Advance()
	s.Advance()
	if got := s.Store.Snapshot().Active.ID; got != "v3" {
		t.Fatalf("active = %s, want v3", got)
	}
	if s.Scroller.Len() != 3 {
		t.Fatalf("failed fetch should not grow the feed, len=%d", s.Scroller.Len())
	}
	if s.Pager.LastError() == nil {
		t.Fatal("pager should remember the failure")
	}

	// The network recovers; the next approaching-end retries cursor c1.
	src.failing["c1"] = false
	s.Retreat()
	s.Advance()
	if s.Scroller.Len() != 4 {
		t.Fatalf("retry did not deliver the page, len=%d", s.Scroller.Len())
	}
	if s.Scroller.Item(3).ID != "v4" {
		t.Fatalf("cursor advanced past the failed page: %s", s.Scroller.Item(3).ID)
	}
}

func TestRestrictedItemPreloadsButStaysSilent(t *testing.T) {
	restricted := video("v1")
	restricted.AccessTier = feed.TierRestricted
	src := &scriptedSource{
		pages:   map[string]*feed.Page{"": {Items: []*feed.Item{restricted, video("v2")}}},
		failing: map[string]bool{},
	}

	decA := player.NewSimDecoder(30 * time.Second)
	decB := player.NewSimDecoder(30 * time.Second)
	cfg := DefaultConfig()
	cfg.Clock = feed.MockClock{MockTime: time.Unix(1000, 0)}
	s := New(src, decA, decB, gate.Viewer{}, cfg) // anonymous viewer
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Close()

	if !s.Obscured() {
		t.Fatal("restricted item should be obscured for an anonymous viewer")
	}

	s.Store.SetMuted(false)
	s.Store.SetPlaying(true)

	var front *player.SimDecoder
	urlA, _, _, visA := decA.Snapshot()
	if visA {
		front = decA
	} else {
		front = decB
	}
	url, _, muted, _ := front.Snapshot()
	if url == "" && urlA == "" {
		t.Fatal("restricted item should still preload its slot")
	}
	if !muted {
		t.Fatal("no audio may be audible while obscured, even when playing")
	}
}

func TestRecycledFeedScrollsForever(t *testing.T) {
	src := &scriptedSource{
		pages: map[string]*feed.Page{
			"":   {Items: []*feed.Item{video("a"), video("b")}, NextCursor: "c1"},
			"c1": {Items: []*feed.Item{video("c")}},
		},
		failing: map[string]bool{},
	}
	s := mount(t, src, gate.Viewer{})

	// Swipe far past the source's three distinct items.
	seen := []string{s.Store.Snapshot().Active.ID}
	for i := 0; i < 8; i++ {
		s.Advance()
		seen = append(seen, s.Store.Snapshot().Active.ID)
	}

	want := []string{"a", "b", "c", "a", "b", "c", "a", "b", "c"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s (full: %v)", i, seen[i], want[i], seen)
		}
	}
}

func TestCounterPatchReachesActiveItem(t *testing.T) {
	src := &scriptedSource{
		pages:   map[string]*feed.Page{"": {Items: []*feed.Item{video("v1"), video("v2")}}},
		failing: map[string]bool{},
	}
	s := mount(t, src, gate.Viewer{})

	before := s.Store.Snapshot().Active

	s.ApplyCounterPatch("v1", feed.Counters{Likes: 99, Comments: 5, Liked: true})
	after := s.Store.Snapshot().Active
	if after == before {
		t.Fatal("active item object should have been replaced")
	}
	if after.Counters.Likes != 99 || !after.Counters.Liked {
		t.Fatalf("counters not applied: %+v", after.Counters)
	}

	// Patching something off-screen leaves the store alone.
	s.ApplyCounterPatch("ghost", feed.Counters{Likes: 1})
	if s.Store.Snapshot().Active != after {
		t.Fatal("unknown patch disturbed the active item")
	}
}
