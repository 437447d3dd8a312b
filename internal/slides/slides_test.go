package slides

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vertigo/internal/feed"
)

const deckYAML = `
stride: 4
slides:
  - id: slide-welcome
    owner: Editorial
    html: "<h1>Hello</h1><script>alert(1)</script>"
  - id: slide-promo
    owner: Editorial
    access_tier: restricted
    html: "<p>Members get more</p>"
`

func writeDeck(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slides.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDeckLoadSanitizes(t *testing.T) {
	deck := NewDeck()
	if err := deck.Load(writeDeck(t, deckYAML)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if deck.Stride() != 4 {
		t.Errorf("Stride = %d, want 4", deck.Stride())
	}

	first := deck.Next()
	if first == nil {
		t.Fatal("Next returned nil for a loaded deck")
	}
	if strings.Contains(first.Markup.HTML, "script") {
		t.Errorf("script survived sanitization: %q", first.Markup.HTML)
	}
	if !strings.Contains(first.Markup.HTML, "<h1>Hello</h1>") {
		t.Errorf("benign markup lost: %q", first.Markup.HTML)
	}
	if first.AccessTier != feed.TierPublic {
		t.Errorf("missing tier should default to public, got %q", first.AccessTier)
	}
}

func TestDeckRotation(t *testing.T) {
	deck := NewDeck()
	if err := deck.Load(writeDeck(t, deckYAML)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := []string{deck.Next().ID, deck.Next().ID, deck.Next().ID}
	want := []string{"slide-welcome", "slide-promo", "slide-welcome"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rotation[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDeckSlidesAreValidItems(t *testing.T) {
	deck := NewDeck()
	if err := deck.Load(writeDeck(t, deckYAML)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := deck.Next().Validate(); err != nil {
			t.Errorf("slide %d fails wire validation: %v", i, err)
		}
	}
}

func TestEmptyDeck(t *testing.T) {
	deck := NewDeck()
	if deck.Next() != nil {
		t.Error("unloaded deck should return nil")
	}
	if deck.Stride() != 0 {
		t.Error("unloaded deck stride should be 0")
	}
}
