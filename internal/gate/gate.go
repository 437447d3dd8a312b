// Package gate decides whether an item's content should be obscured pending
// entitlement. It is deliberately dumb: a pure function of the item's access
// tier and an externally supplied viewer state. Auth itself lives elsewhere.
package gate

import "vertigo/internal/feed"

// Viewer is the entitlement input, derived outside this package (JWT claims
// on the web, session state in the apps).
type Viewer struct {
	LoggedIn bool
	// Role mirrors the platform roles: "viewer", "member", "admin".
	Role string
}

// Entitled reports whether the viewer may see restricted content.
func (v Viewer) Entitled() bool {
	if !v.LoggedIn {
		return false
	}
	return v.Role == "member" || v.Role == "admin"
}

// ShouldObscure reports whether the UI must render the lock overlay and
// suppress audio for this item. The player still binds and preloads an
// obscured item normally so that unlocking is instant.
func ShouldObscure(it *feed.Item, v Viewer) bool {
	if it == nil {
		return false
	}
	if it.AccessTier != feed.TierRestricted {
		return false
	}
	return !v.Entitled()
}

// Silencer adapts the gate to the player's force-mute hook.
func Silencer(v Viewer) func(*feed.Item) bool {
	return func(it *feed.Item) bool {
		return ShouldObscure(it, v)
	}
}
