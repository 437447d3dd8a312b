package feed

import "fmt"

// Kind discriminates the two item flavours in the feed.
type Kind string

const (
	KindVideo  Kind = "video"
	KindMarkup Kind = "markup"
)

// AccessTier controls whether an item is gated behind entitlement.
type AccessTier string

const (
	TierPublic     AccessTier = "public"
	TierRestricted AccessTier = "restricted"
)

// Counters holds the social numbers for an item. They are owned by the
// platform side; the playback engine only ever copies them around.
type Counters struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Liked    bool  `json:"liked"`
}

// VideoPayload carries the media sources for a video item.
// HLS is preferred; MP4 is the progressive-download fallback.
type VideoPayload struct {
	HLSURL    string `json:"hls_url"`
	MP4URL    string `json:"mp4_url,omitempty"`
	PosterURL string `json:"poster_url,omitempty"`
}

// MarkupPayload carries a sanitized HTML slide.
type MarkupPayload struct {
	HTML string `json:"html"`
}

// Item is one unit of scrollable content. Treat it as immutable: counter
// updates go through WithCounters, which returns a fresh value, so that
// pointer equality stays a valid "did anything change" check downstream.
type Item struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	OwnerID     string     `json:"owner_id"`
	OwnerName   string     `json:"owner_name"`
	OwnerAvatar string     `json:"owner_avatar,omitempty"`
	AccessTier  AccessTier `json:"access_tier"`
	Counters    Counters   `json:"counters"`

	Video  *VideoPayload  `json:"video,omitempty"`
	Markup *MarkupPayload `json:"markup,omitempty"`
}

// IsVideo reports whether the item drives a decoder.
func (it *Item) IsVideo() bool {
	return it != nil && it.Kind == KindVideo
}

// WithCounters returns a copy of the item with replaced counters.
// The receiver is left untouched.
func (it *Item) WithCounters(c Counters) *Item {
	clone := *it
	clone.Counters = c
	return &clone
}

// Validate checks the wire shape of an item coming from the feed source.
// A page containing an invalid item is rejected wholesale.
func (it *Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("item missing id")
	}
	switch it.Kind {
	case KindVideo:
		if it.Video == nil || it.Video.HLSURL == "" {
			return fmt.Errorf("video item %s missing stream url", it.ID)
		}
	case KindMarkup:
		if it.Markup == nil {
			return fmt.Errorf("markup item %s missing payload", it.ID)
		}
	default:
		return fmt.Errorf("item %s has unknown kind %q", it.ID, it.Kind)
	}
	switch it.AccessTier {
	case TierPublic, TierRestricted:
	default:
		return fmt.Errorf("item %s has unknown access tier %q", it.ID, it.AccessTier)
	}
	return nil
}

// Page is one fetch result from the feed source.
// An empty NextCursor means the source is exhausted.
type Page struct {
	Items      []*Item `json:"items"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// Validate rejects malformed pages (treated as a fetch failure upstream).
func (p *Page) Validate() error {
	for _, it := range p.Items {
		if it == nil {
			return fmt.Errorf("page contains nil item")
		}
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}
