package player

import (
	"sync"
	"time"
)

// SimDecoder is an in-process decoder backend used by the headless session
// driver and in tests. It "plays" by advancing a clock, nothing more.
type SimDecoder struct {
	// ItemDuration is reported as the duration of whatever is attached.
	ItemDuration time.Duration

	mu      sync.Mutex
	url     string
	playing bool
	muted   bool
	visible bool
	pos     time.Duration

	attaches int
}

// NewSimDecoder creates a simulated decoder whose every item lasts d.
func NewSimDecoder(d time.Duration) *SimDecoder {
	return &SimDecoder{ItemDuration: d}
}

func (d *SimDecoder) Attach(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attaches++
	d.url = url
	d.pos = 0
	return nil
}

func (d *SimDecoder) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = ""
	d.playing = false
	d.pos = 0
}

func (d *SimDecoder) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = true
	return nil
}

func (d *SimDecoder) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
}

func (d *SimDecoder) SetMuted(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
}

func (d *SimDecoder) SetVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = visible
}

func (d *SimDecoder) CanPlayAdaptive() bool { return true }

func (d *SimDecoder) Position() (current, duration float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos.Seconds(), d.ItemDuration.Seconds()
}

// Step advances the simulated playhead, the stand-in for decoded frames
// actually rendering. Paused decoders do not move.
func (d *SimDecoder) Step(dt time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing {
		return
	}
	d.pos += dt
	if d.pos > d.ItemDuration {
		d.pos = d.ItemDuration
	}
}

// Snapshot exposes the backend state for assertions and status lines.
func (d *SimDecoder) Snapshot() (url string, playing, muted, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, d.playing, d.muted, d.visible
}

// Attaches counts real source attaches (reuse no-ops excluded).
func (d *SimDecoder) Attaches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attaches
}
