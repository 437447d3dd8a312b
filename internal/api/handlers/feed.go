package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vertigo/internal/feed"
	"vertigo/internal/models"
	"vertigo/internal/slides"
	"vertigo/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FeedHandler serves the scrollable feed in wire-item form: published
// entries in reverse-chronological order, with curated slides interleaved
// every few videos.
type FeedHandler struct {
	db       *gorm.DB
	storage  *storage.Client
	deck     *slides.Deck
	pageSize int
}

func NewFeedHandler(db *gorm.DB, st *storage.Client, deck *slides.Deck, pageSize int) *FeedHandler {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &FeedHandler{db: db, storage: st, deck: deck, pageSize: pageSize}
}

// GetFeed returns one page of feed items plus an opaque cursor for the next
// page. An empty next_cursor means the feed is exhausted.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.pageSize)))
	if limit <= 0 || limit > 50 {
		limit = h.pageSize
	}

	query := h.db.Model(&models.Entry{}).
		Preload("Owner").
		Where("is_published = ?", true).
		Order("published_at DESC, id DESC")

	if cursor := c.Query("cursor"); cursor != "" {
		after, afterID, err := decodeCursor(cursor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed cursor"})
			return
		}
		query = query.Where("published_at < ? OR (published_at = ? AND id < ?)", after, after, afterID)
	}

	var entries []models.Entry
	// Fetch one extra row to learn whether another page exists.
	if err := query.Limit(limit + 1).Find(&entries).Error; err != nil {
		slog.Error("Failed to fetch feed page", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	nextCursor := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		nextCursor = encodeCursor(last.PublishedAt, last.ID)
	}

	items := h.buildItems(c, entries)

	c.JSON(http.StatusOK, feed.Page{Items: items, NextCursor: nextCursor})
}

// buildItems maps DB rows to wire items, marks which ones the viewer has
// liked, and splices in a curated slide after every stride videos.
func (h *FeedHandler) buildItems(c *gin.Context, entries []models.Entry) []*feed.Item {
	liked := h.likedSet(c, entries)
	stride := 0
	if h.deck != nil {
		stride = h.deck.Stride()
	}

	items := make([]*feed.Item, 0, len(entries))
	videos := 0
	for i := range entries {
		items = append(items, h.toItem(&entries[i], liked[entries[i].ID]))
		if entries[i].Kind == string(feed.KindVideo) {
			videos++
			if stride > 0 && videos%stride == 0 {
				if slide := h.deck.Next(); slide != nil {
					items = append(items, slide)
				}
			}
		}
	}
	return items
}

func (h *FeedHandler) toItem(e *models.Entry, liked bool) *feed.Item {
	item := &feed.Item{
		ID:         e.PublicID,
		Kind:       feed.Kind(e.Kind),
		OwnerID:    strconv.FormatUint(uint64(e.OwnerID), 10),
		AccessTier: feed.AccessTier(e.AccessTier),
		Counters: feed.Counters{
			Likes:    e.LikeCount,
			Comments: e.CommentCount,
			Liked:    liked,
		},
	}
	if e.Owner != nil {
		item.OwnerName = e.Owner.DisplayName
		item.OwnerAvatar = e.Owner.AvatarURL
	}

	switch item.Kind {
	case feed.KindVideo:
		item.Video = &feed.VideoPayload{
			HLSURL:    h.storage.PublicURL(e.PlaylistKey),
			PosterURL: h.storage.PublicURL(e.PosterKey),
		}
		if e.FallbackKey != "" {
			item.Video.MP4URL = h.storage.PublicURL(e.FallbackKey)
		}
	case feed.KindMarkup:
		item.Markup = &feed.MarkupPayload{HTML: e.Body}
	}
	return item
}

// likedSet returns the subset of entry IDs the authenticated viewer has
// liked. Anonymous viewers get an empty set.
func (h *FeedHandler) likedSet(c *gin.Context, entries []models.Entry) map[uint]bool {
	userID := viewerID(c)
	if userID == 0 || len(entries) == 0 {
		return nil
	}

	ids := make([]uint, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}

	var likes []models.Like
	h.db.Where("user_id = ? AND entry_id IN ?", userID, ids).Find(&likes)

	set := make(map[uint]bool, len(likes))
	for _, l := range likes {
		set[l.EntryID] = true
	}
	return set
}

// viewerID extracts the authenticated user ID from the gin context, or 0.
// JWT numeric claims decode as float64.
func viewerID(c *gin.Context) uint {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return uint(v)
	case uint:
		return v
	default:
		return 0
	}
}

func encodeCursor(at time.Time, id uint) string {
	raw := fmt.Sprintf("%d:%d", at.UnixMicro(), id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (time.Time, uint, error) {
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, 0, err
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("bad cursor shape")
	}
	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, err
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.UnixMicro(micros).UTC(), uint(id), nil
}
