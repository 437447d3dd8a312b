package models

import (
	"time"

	"gorm.io/gorm"
)

// Entry is one feed unit as stored by the platform: either a video with its
// asset keys or a markup slide. The playback engine never sees this row
// directly; it is mapped to the wire item shape by the feed handler.
type Entry struct {
	gorm.Model

	// PublicID is the stable identifier exposed on the wire (UUID).
	PublicID string `gorm:"uniqueIndex;not null" json:"public_id"`

	// Kind is "video" or "markup".
	Kind string `gorm:"type:varchar(10);index;not null" json:"kind"`

	Title string `json:"title"`

	// Attribution
	OwnerID uint  `gorm:"index" json:"owner_id"`
	Owner   *User `json:"owner,omitempty"`

	// Gating: "public" or "restricted"
	AccessTier string `gorm:"type:varchar(16);index;default:'public'" json:"access_tier"`

	// Video assets (bucket keys, resolved to URLs at serve time)
	PlaylistKey string  `json:"playlist_key"` // HLS playlist
	FallbackKey string  `json:"fallback_key"` // progressive MP4
	PosterKey   string  `json:"poster_key"`
	Duration    float64 `json:"duration"` // seconds

	// Markup body (already sanitized at write time)
	Body string `gorm:"type:text" json:"body"`

	// Denormalized social counters, maintained by the social handlers.
	LikeCount    int64 `gorm:"default:0" json:"like_count"`
	CommentCount int64 `gorm:"default:0" json:"comment_count"`

	// Publication ordering for the feed cursor.
	PublishedAt time.Time `gorm:"index" json:"published_at"`
	IsPublished bool      `gorm:"default:true;index" json:"is_published"`
}

// Like records one user liking one entry.
type Like struct {
	gorm.Model
	UserID  uint `gorm:"index:idx_like_user_entry,unique" json:"user_id"`
	EntryID uint `gorm:"index:idx_like_user_entry,unique" json:"entry_id"`
}

// Comment is a flat comment on an entry. Threading lives outside this
// service.
type Comment struct {
	gorm.Model
	EntryID uint   `gorm:"index" json:"entry_id"`
	UserID  uint   `gorm:"index" json:"user_id"`
	User    *User  `json:"user,omitempty"`
	Body    string `gorm:"type:text;not null" json:"body"`
}
