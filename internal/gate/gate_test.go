package gate

import (
	"testing"

	"vertigo/internal/feed"
)

func item(tier feed.AccessTier) *feed.Item {
	return &feed.Item{
		ID:         "v1",
		Kind:       feed.KindVideo,
		AccessTier: tier,
		Video:      &feed.VideoPayload{HLSURL: "https://cdn.example/v1.m3u8"},
	}
}

func TestShouldObscure(t *testing.T) {
	cases := []struct {
		name   string
		tier   feed.AccessTier
		viewer Viewer
		want   bool
	}{
		{"public anonymous", feed.TierPublic, Viewer{}, false},
		{"restricted anonymous", feed.TierRestricted, Viewer{}, true},
		{"restricted plain viewer", feed.TierRestricted, Viewer{LoggedIn: true, Role: "viewer"}, true},
		{"restricted member", feed.TierRestricted, Viewer{LoggedIn: true, Role: "member"}, false},
		{"restricted admin", feed.TierRestricted, Viewer{LoggedIn: true, Role: "admin"}, false},
		{"public member", feed.TierPublic, Viewer{LoggedIn: true, Role: "member"}, false},
		// A forged role without a session counts for nothing.
		{"restricted logged-out member role", feed.TierRestricted, Viewer{LoggedIn: false, Role: "member"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldObscure(item(tc.tier), tc.viewer); got != tc.want {
				t.Fatalf("ShouldObscure = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShouldObscureNilItem(t *testing.T) {
	if ShouldObscure(nil, Viewer{}) {
		t.Fatal("nil item must not be obscured")
	}
}

func TestSilencer(t *testing.T) {
	silenced := Silencer(Viewer{})
	if !silenced(item(feed.TierRestricted)) {
		t.Fatal("anonymous viewer should be silenced on restricted content")
	}
	if silenced(item(feed.TierPublic)) {
		t.Fatal("public content must stay audible")
	}
}
