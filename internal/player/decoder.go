package player

// Decoder is the playback backend behind one slot: in the browser build this
// wraps a single long-lived media element. Slots are created once and only
// ever rebound, so a Decoder must survive any number of Attach/Detach cycles
// without reinitialization.
//
// Attach replaces the current source. Any load still in flight for the
// previous source is implicitly abandoned by the backend; there is at most
// one pending bind per decoder, so no cancellation token is needed.
type Decoder interface {
	// Attach points the decoder at a new stream URL. Attaching the URL that
	// is already bound must be a cheap no-op on the backend side too.
	Attach(url string) error

	// Detach drops the current source and stops decoding.
	Detach()

	// Play starts (or resumes) playback. The backend may refuse, e.g. an
	// autoplay policy rejection; the caller treats that as "paused".
	Play() error

	// Pause halts playback without dropping buffered data.
	Pause()

	SetMuted(muted bool)

	// SetVisible raises or hides the decoder's output surface
	// (opacity/z-order in the browser build).
	SetVisible(visible bool)

	// CanPlayAdaptive reports whether the backend handles an adaptive
	// (HLS) source directly. When false the progressive fallback is used.
	CanPlayAdaptive() bool

	// Position returns the current playback position and total duration
	// in seconds. Zero duration means "not known yet".
	Position() (current, duration float64)
}
