package ingest

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"vertigo/internal/utils"
)

// AssetLayout fixes where one video's files live in the media bucket.
// Everything for a clip sits under a single prefix so cleanup is one
// List+Delete away.
type AssetLayout struct {
	ID          string // PublicID of the catalog entry
	PlaylistKey string
	FallbackKey string
	PosterKey   string // filled from a sidecar still when the uploader ships one
}

func NewAssetLayout(title string) AssetLayout {
	id := uuid.NewString()
	slug := strings.ToLower(utils.Sanitize(title, "untitled"))
	prefix := fmt.Sprintf("videos/%s-%s", slug, id[:8])
	return AssetLayout{
		ID:          id,
		PlaylistKey: prefix + "/master.m3u8",
		FallbackKey: prefix + "/fallback.mp4",
		PosterKey:   prefix + "/poster.jpg",
	}
}

// BuildPlaylist renders a single-rendition VOD playlist that plays the
// progressive file as one segment. Real multi-bitrate ladders come from a
// transcoder; until one runs, this keeps HLS-first clients working against
// the same URL shape.
func BuildPlaylist(layout AssetLayout, duration float64) string {
	if duration <= 0 {
		duration = 1
	}
	target := int(math.Ceil(duration))

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	b.WriteString(fmt.Sprintf("#EXT-X-TARGETDURATION:%d\n", target))
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	b.WriteString(fmt.Sprintf("#EXTINF:%.3f,\n", duration))
	b.WriteString("fallback.mp4\n")
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}
