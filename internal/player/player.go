package player

import (
	"log"
	"sync"

	"vertigo/internal/feed"
)

// slot is one of exactly two long-lived decoder bindings. Slots are never
// destroyed or recreated, only rebound, so a decoder's warm-up cost is paid
// once per session instead of once per item.
type slot struct {
	name     string
	dec      Decoder
	boundID  string
	boundURL string
	visible  bool
}

// Player owns the two decoder slots and keeps them consistent with the
// playback store: whichever item is active is rendered by a slot that
// already started loading before it became visible, while the other slot
// silently primes the preload item so the next swipe has no cold start.
//
// The player holds no queue of transitions. Every store change re-derives
// slot roles from the latest snapshot; an update arriving while a previous
// bind is still loading simply supersedes it.
type Player struct {
	store *Store
	bus   *ProgressBus

	// Silenced lets the access gate force-mute the visible slot without
	// touching the store's mute flag. Optional.
	Silenced func(*feed.Item) bool

	mu    sync.Mutex
	slots [2]*slot
	unsub func()
}

// New wires a player to the store with two decoder backends. The player
// starts tracking store changes immediately and applies the current state
// once, so mounting mid-session works.
func New(store *Store, bus *ProgressBus, a, b Decoder) *Player {
	p := &Player{
		store: store,
		bus:   bus,
		slots: [2]*slot{
			{name: "A", dec: a},
			{name: "B", dec: b},
		},
	}
	p.unsub = store.Subscribe(p.apply)
	p.apply(store.Snapshot())
	return p
}

// Close stops tracking the store and parks both slots.
func (p *Player) Close() {
	if p.unsub != nil {
		p.unsub()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.slots {
		p.bind(s, nil)
		s.dec.SetVisible(false)
		s.visible = false
	}
}

// apply is the whole state machine: derive each slot's role from the store
// snapshot, rebind and restyle accordingly. Idempotent; calling it twice
// with the same snapshot changes nothing.
func (p *Player) apply(st State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	front, back := p.assign(st.Active)

	p.bind(front, st.Active)
	p.bind(back, st.Preload)

	// Visible slot: raised, mute per store (gate can override), playing
	// only when the store says so and there is a decoder-backed item.
	if !front.visible {
		transitions.Inc()
	}
	front.visible = true
	back.visible = false
	front.dec.SetVisible(true)
	back.dec.SetVisible(false)

	muted := st.Muted
	if p.Silenced != nil && p.Silenced(st.Active) {
		muted = true
	}
	front.dec.SetMuted(muted)

	if st.Playing && st.Active.IsVideo() {
		if err := front.dec.Play(); err != nil {
			// Autoplay rejection and friends: swallow, leave the store
			// alone. The user sees "paused" and the ordinary control
			// recovers it.
			autoplayRejected.Inc()
			log.Printf("⏸️ Play refused on slot %s: %v", front.name, err)
		}
	} else {
		front.dec.Pause()
	}

	// The back slot exists to hold decoded data, not to be heard.
	back.dec.SetMuted(true)
	back.dec.Pause()
}

// assign picks which slot faces the viewer for the given active item.
// A slot already bound to the item keeps it (the usual case: the previous
// preload slot gets promoted, so the work it did is the work that pays
// off). Otherwise the currently hidden slot takes the active item, so the
// on-screen slot is swapped only once the newcomer is bound — no flash.
func (p *Player) assign(active *feed.Item) (front, back *slot) {
	a, b := p.slots[0], p.slots[1]
	if active != nil {
		if a.boundID == active.ID {
			return a, b
		}
		if b.boundID == active.ID {
			return b, a
		}
	}
	if a.visible {
		return b, a
	}
	return a, b
}

// bind points a slot at an item. Rebinding the unchanged stream URL is a
// no-op so the decoder never restarts for the same source; non-video items
// and nil detach the slot entirely.
func (p *Player) bind(s *slot, it *feed.Item) {
	if !it.IsVideo() {
		if s.boundURL != "" {
			s.dec.Detach()
			s.dec.Pause()
			s.boundURL = ""
		}
		if it != nil {
			s.boundID = it.ID
		} else {
			s.boundID = ""
		}
		return
	}

	url := p.pickURL(it.Video, s.dec)
	s.boundID = it.ID
	if url == s.boundURL {
		sourceReuse.Inc()
		return
	}
	if err := s.dec.Attach(url); err != nil {
		// A failed attach leaves the slot detached; the item plays as
		// "paused" until the next transition retries it.
		attachFailures.Inc()
		log.Printf("❌ Attach failed on slot %s (%s): %v", s.name, it.ID, err)
		s.boundURL = ""
		return
	}
	binds.Inc()
	s.boundURL = url
}

// pickURL prefers the adaptive stream when the backend handles it natively
// and falls back to the progressive download otherwise. Items without a
// fallback always use the adaptive URL.
func (p *Player) pickURL(v *feed.VideoPayload, dec Decoder) string {
	if dec.CanPlayAdaptive() || v.MP4URL == "" {
		return v.HLSURL
	}
	return v.MP4URL
}

// Tick is the display-refresh callback. While the visible slot is playing a
// video it samples the playhead and republishes it on the progress bus —
// deliberately not through the store, which would fan every frame out to
// the full subscriber graph. Paused or non-video states cost one snapshot
// read and nothing else.
func (p *Player) Tick() {
	st := p.store.Snapshot()
	if !st.Playing || !st.Active.IsVideo() {
		return
	}

	p.mu.Lock()
	var front *slot
	for _, s := range p.slots {
		if s.visible {
			front = s
			break
		}
	}
	if front == nil || front.boundID != st.Active.ID {
		p.mu.Unlock()
		return
	}
	current, duration := front.dec.Position()
	id := front.boundID
	p.mu.Unlock()

	p.bus.Publish(Tick{ItemID: id, Current: current, Duration: duration})
}

// VisibleSlot reports which slot currently faces the viewer and the item ID
// it is bound to. Diagnostic surface for the session driver and tests.
func (p *Player) VisibleSlot() (name, itemID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.slots {
		if s.visible {
			return s.name, s.boundID
		}
	}
	return "", ""
}
