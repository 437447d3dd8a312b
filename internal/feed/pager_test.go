package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// scriptedSource serves a fixed set of pages keyed by cursor and can be told
// to fail specific cursors.
type scriptedSource struct {
	pages   map[string]*Page
	failing map[string]bool
	calls   []string
}

func (s *scriptedSource) FetchPage(_ context.Context, cursor string) (*Page, error) {
	s.calls = append(s.calls, cursor)
	if s.failing[cursor] {
		return nil, errors.New("boom")
	}
	page, ok := s.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("unknown cursor %q", cursor)
	}
	return page, nil
}

func videoItem(id string) *Item {
	return &Item{
		ID:         id,
		Kind:       KindVideo,
		AccessTier: TierPublic,
		Video:      &VideoPayload{HLSURL: "https://cdn.example/" + id + "/index.m3u8"},
	}
}

func twoPageSource() *scriptedSource {
	return &scriptedSource{
		pages: map[string]*Page{
			"":   {Items: []*Item{videoItem("a1"), videoItem("a2")}, NextCursor: "c1"},
			"c1": {Items: []*Item{videoItem("b1"), videoItem("b2")}},
		},
		failing: map[string]bool{},
	}
}

func TestPagerPagination(t *testing.T) {
	src := twoPageSource()
	p := NewPager(src, MockClock{MockTime: time.Unix(1000, 0)}, time.Second)

	first, err := p.Next(context.Background())
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(first) != 2 || first[0].ID != "a1" {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if p.Exhausted() {
		t.Fatal("pager exhausted after one page")
	}

	second, err := p.Next(context.Background())
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second) != 2 || second[0].ID != "b1" {
		t.Fatalf("unexpected second page: %+v", second)
	}
	if !p.Exhausted() {
		t.Fatal("pager should be exhausted after the last page")
	}
}

func TestPagerRecyclingPreservesIdentity(t *testing.T) {
	src := twoPageSource()
	clock := MockClock{MockTime: time.Unix(1000, 0)}
	p := NewPager(src, clock, 0) // cooldown off

	var delivered []*Item
	for i := 0; i < 2; i++ {
		batch, err := p.Next(context.Background())
		if err != nil {
			t.Fatalf("page %d failed: %v", i, err)
		}
		delivered = append(delivered, batch...)
	}

	recycled, err := p.Next(context.Background())
	if err != nil {
		t.Fatalf("recycle failed: %v", err)
	}
	if len(recycled) != len(delivered) {
		t.Fatalf("recycle emitted %d items, want %d", len(recycled), len(delivered))
	}
	for i, it := range recycled {
		// Same pointers, not fresh objects: equality checks downstream
		// rely on identity surviving the cycle.
		if it != delivered[i] {
			t.Fatalf("recycled item %d is a fresh object (id %s)", i, it.ID)
		}
	}
	if got := []string{recycled[0].ID, recycled[1].ID, recycled[2].ID, recycled[3].ID}; got[0] != "a1" || got[1] != "a2" || got[2] != "b1" || got[3] != "b2" {
		t.Fatalf("recycle broke ordering: %v", got)
	}
}

func TestPagerRecycleCooldown(t *testing.T) {
	src := twoPageSource()
	clock := MockClock{MockTime: time.Unix(1000, 0)}
	p := NewPager(src, clock, time.Second)

	for i := 0; i < 2; i++ {
		if _, err := p.Next(context.Background()); err != nil {
			t.Fatalf("page %d failed: %v", i, err)
		}
	}

	// First full pass is allowed.
	if _, err := p.Next(context.Background()); err != nil {
		t.Fatalf("first recycle pass failed: %v", err)
	}
	// Second pass inside the cool-down window is suppressed.
	if _, err := p.Next(context.Background()); !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("expected ErrCoolingDown, got %v", err)
	}

	// After the window elapses the pass goes through again.
	p.clock = MockClock{MockTime: clock.MockTime.Add(2 * time.Second)}
	if _, err := p.Next(context.Background()); err != nil {
		t.Fatalf("recycle after cooldown failed: %v", err)
	}
}

func TestPagerRetriesFailedCursor(t *testing.T) {
	src := twoPageSource()
	src.failing["c1"] = true
	p := NewPager(src, MockClock{MockTime: time.Unix(1000, 0)}, time.Second)

	if _, err := p.Next(context.Background()); err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if _, err := p.Next(context.Background()); err == nil {
		t.Fatal("expected fetch failure for cursor c1")
	}
	if p.LastError() == nil {
		t.Fatal("LastError should report the failure")
	}

	// The failure must not advance the cursor: the next demand retries c1.
	src.failing["c1"] = false
	batch, err := p.Next(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if batch[0].ID != "b1" {
		t.Fatalf("retry skipped cursor c1, got %s", batch[0].ID)
	}
	if p.LastError() != nil {
		t.Fatalf("LastError should clear after success, got %v", p.LastError())
	}
	if got := src.calls; got[len(got)-1] != "c1" || got[len(got)-2] != "c1" {
		t.Fatalf("expected c1 retried, call log: %v", got)
	}
}

func TestPagerRejectsMalformedPage(t *testing.T) {
	src := &scriptedSource{
		pages: map[string]*Page{
			"": {Items: []*Item{{ID: "bad", Kind: "hologram"}}},
		},
		failing: map[string]bool{},
	}
	p := NewPager(src, MockClock{}, 0)

	if _, err := p.Next(context.Background()); err == nil {
		t.Fatal("malformed page should surface as a fetch failure")
	}
	if p.Delivered() != 0 {
		t.Fatal("malformed page must not be delivered")
	}
}
