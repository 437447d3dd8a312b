package ingest

import (
	"strings"
	"testing"
)

func TestNewAssetLayout(t *testing.T) {
	layout := NewAssetLayout("My First Clip!")

	if layout.ID == "" {
		t.Fatal("layout has no ID")
	}

	prefix := strings.TrimSuffix(layout.PlaylistKey, "/master.m3u8")
	if !strings.HasPrefix(prefix, "videos/my_first_clip-") {
		t.Errorf("unexpected prefix: %s", prefix)
	}
	if layout.FallbackKey != prefix+"/fallback.mp4" {
		t.Errorf("fallback not under the same prefix: %s", layout.FallbackKey)
	}
	if layout.PosterKey != prefix+"/poster.jpg" {
		t.Errorf("poster not under the same prefix: %s", layout.PosterKey)
	}
}

func TestNewAssetLayoutUntitled(t *testing.T) {
	layout := NewAssetLayout("!!!")
	if !strings.HasPrefix(layout.PlaylistKey, "videos/untitled-") {
		t.Errorf("symbols-only title should fall back to untitled: %s", layout.PlaylistKey)
	}
}

func TestBuildPlaylist(t *testing.T) {
	layout := NewAssetLayout("clip")
	playlist := BuildPlaylist(layout, 12.5)

	for _, want := range []string{
		"#EXTM3U",
		"#EXT-X-TARGETDURATION:13",
		"#EXT-X-PLAYLIST-TYPE:VOD",
		"#EXTINF:12.500,",
		"fallback.mp4",
		"#EXT-X-ENDLIST",
	} {
		if !strings.Contains(playlist, want) {
			t.Errorf("playlist missing %q:\n%s", want, playlist)
		}
	}
}

func TestBuildPlaylistZeroDuration(t *testing.T) {
	playlist := BuildPlaylist(NewAssetLayout("clip"), 0)
	if !strings.Contains(playlist, "#EXT-X-TARGETDURATION:1") {
		t.Errorf("zero duration should clamp to 1s target:\n%s", playlist)
	}
}
