package slides

import (
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"vertigo/internal/feed"
	"vertigo/internal/markup"
)

// DeckConfig matches the curated-slides YAML file. Slides are editorial
// markup items (announcements, onboarding cards) interleaved into the feed
// between videos.
type DeckConfig struct {
	Stride int     `yaml:"stride"` // one slide every N videos; 0 disables
	Slides []Slide `yaml:"slides"`
}

type Slide struct {
	ID         string `yaml:"id"`
	Owner      string `yaml:"owner"`
	AccessTier string `yaml:"access_tier"`
	HTML       string `yaml:"html"`
}

// Deck is a loaded, sanitized slide rotation. Reloadable at runtime.
type Deck struct {
	mu     sync.RWMutex
	config *DeckConfig
	cursor int
}

func NewDeck() *Deck {
	return &Deck{}
}

// Load reads and sanitizes the slide file. Safe to call again on a live
// deck; the rotation restarts from the first slide.
func (d *Deck) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg DeckConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	// Slide bodies are hand-edited YAML, so they go through the same
	// sanitizer as user markup before they can reach a client.
	for i := range cfg.Slides {
		clean, err := markup.Sanitize(cfg.Slides[i].HTML)
		if err != nil {
			return err
		}
		cfg.Slides[i].HTML = clean
		if cfg.Slides[i].AccessTier == "" {
			cfg.Slides[i].AccessTier = string(feed.TierPublic)
		}
	}

	d.mu.Lock()
	d.config = &cfg
	d.cursor = 0
	d.mu.Unlock()

	log.Printf("📋 Slide deck loaded: %d slides, stride %d", len(cfg.Slides), cfg.Stride)
	return nil
}

// Stride returns how many videos separate consecutive slides (0 = disabled).
func (d *Deck) Stride() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.config == nil {
		return 0
	}
	return d.config.Stride
}

// Next returns the next slide in rotation as a feed item, or nil when the
// deck is empty.
func (d *Deck) Next() *feed.Item {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.config == nil || len(d.config.Slides) == 0 {
		return nil
	}

	s := d.config.Slides[d.cursor%len(d.config.Slides)]
	d.cursor++

	return &feed.Item{
		ID:         s.ID,
		Kind:       feed.KindMarkup,
		OwnerName:  s.Owner,
		AccessTier: feed.AccessTier(s.AccessTier),
		Markup:     &feed.MarkupPayload{HTML: s.HTML},
	}
}
