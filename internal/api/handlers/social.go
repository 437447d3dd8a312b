package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"vertigo/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CounterEvent is one counter patch pushed over the SSE stream. Clients
// apply it to whichever on-screen items match the ID.
type CounterEvent struct {
	ItemID   string `json:"item_id"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
}

// CounterHub fans counter patches out to connected SSE streams. Slow
// consumers drop events rather than stalling the writer.
type CounterHub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan CounterEvent
}

func NewCounterHub() *CounterHub {
	return &CounterHub{subs: make(map[int]chan CounterEvent)}
}

func (h *CounterHub) Subscribe() (int, <-chan CounterEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan CounterEvent, 16)
	h.subs[id] = ch
	return id, ch
}

func (h *CounterHub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *CounterHub) Publish(ev CounterEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default: // drop rather than block
		}
	}
}

// SocialHandler owns likes, comments, and the live counter feed
type SocialHandler struct {
	db  *gorm.DB
	hub *CounterHub
}

func NewSocialHandler(db *gorm.DB, hub *CounterHub) *SocialHandler {
	return &SocialHandler{db: db, hub: hub}
}

// ToggleLike flips the viewer's like on an entry and returns the new state.
func (h *SocialHandler) ToggleLike(c *gin.Context) {
	userID := viewerID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	var entry models.Entry
	if err := h.db.Where("public_id = ?", c.Param("id")).First(&entry).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}

	liked := false
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		result := tx.Where("user_id = ? AND entry_id = ?", userID, entry.ID).First(&existing)

		if result.Error == gorm.ErrRecordNotFound {
			if err := tx.Create(&models.Like{UserID: userID, EntryID: entry.ID}).Error; err != nil {
				return err
			}
			liked = true
			return tx.Model(&entry).Update("like_count", gorm.Expr("like_count + 1")).Error
		}
		if result.Error != nil {
			return result.Error
		}

		if err := tx.Unscoped().Delete(&existing).Error; err != nil {
			return err
		}
		// A like row existed, so the count is at least 1.
		return tx.Model(&entry).Update("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		slog.Error("Failed to toggle like", "entry", entry.PublicID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	h.db.First(&entry, entry.ID) // reread for fresh counts
	h.hub.Publish(CounterEvent{ItemID: entry.PublicID, Likes: entry.LikeCount, Comments: entry.CommentCount})

	c.JSON(http.StatusOK, gin.H{
		"liked":    liked,
		"likes":    entry.LikeCount,
		"comments": entry.CommentCount,
	})
}

// Unlike removes the viewer's like if present. Removing a like that was
// never set is a no-op, not an error; the client may be replaying state.
func (h *SocialHandler) Unlike(c *gin.Context) {
	userID := viewerID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	var entry models.Entry
	if err := h.db.Where("public_id = ?", c.Param("id")).First(&entry).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Where("user_id = ? AND entry_id = ?", userID, entry.ID).Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&entry).Update("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		slog.Error("Failed to unlike", "entry", entry.PublicID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	h.db.First(&entry, entry.ID)
	h.hub.Publish(CounterEvent{ItemID: entry.PublicID, Likes: entry.LikeCount, Comments: entry.CommentCount})

	c.JSON(http.StatusOK, gin.H{
		"liked":    false,
		"likes":    entry.LikeCount,
		"comments": entry.CommentCount,
	})
}

// CreateComment appends a flat comment to an entry.
func (h *SocialHandler) CreateComment(c *gin.Context) {
	userID := viewerID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	var req struct {
		Body string `json:"body" binding:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment body required"})
		return
	}

	var entry models.Entry
	if err := h.db.Where("public_id = ?", c.Param("id")).First(&entry).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}

	comment := models.Comment{EntryID: entry.ID, UserID: userID, Body: req.Body}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&entry).Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		slog.Error("Failed to create comment", "entry", entry.PublicID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	h.db.First(&entry, entry.ID)
	h.hub.Publish(CounterEvent{ItemID: entry.PublicID, Likes: entry.LikeCount, Comments: entry.CommentCount})

	c.JSON(http.StatusCreated, gin.H{"id": comment.ID})
}

// GetComments returns a page of comments for an entry, newest first.
func (h *SocialHandler) GetComments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit > 200 {
		limit = 200
	}

	var entry models.Entry
	if err := h.db.Where("public_id = ?", c.Param("id")).First(&entry).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}

	var comments []models.Comment
	result := h.db.Preload("User").
		Where("entry_id = ?", entry.ID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": comments,
		"meta": gin.H{"total": entry.CommentCount, "limit": limit, "offset": offset},
	})
}

// GetEntryCounters returns the counters for a single entry.
func (h *SocialHandler) GetEntryCounters(c *gin.Context) {
	var entry models.Entry
	if err := h.db.Select("public_id, like_count, comment_count").
		Where("public_id = ?", c.Param("id")).First(&entry).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	c.JSON(http.StatusOK, CounterEvent{ItemID: entry.PublicID, Likes: entry.LikeCount, Comments: entry.CommentCount})
}

// GetCounters returns current counters for a comma-separated list of item
// IDs. Clients poll this as a fallback when SSE is unavailable.
func (h *SocialHandler) GetCounters(c *gin.Context) {
	ids := c.QueryArray("id")
	if len(ids) == 0 || len(ids) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Between 1 and 100 id params required"})
		return
	}

	var entries []models.Entry
	if err := h.db.Select("public_id, like_count, comment_count").
		Where("public_id IN ?", ids).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]CounterEvent, 0, len(entries))
	for _, e := range entries {
		out = append(out, CounterEvent{ItemID: e.PublicID, Likes: e.LikeCount, Comments: e.CommentCount})
	}
	c.JSON(http.StatusOK, gin.H{"counters": out})
}

// StreamCounters pushes live counter patches over SSE until the client
// disconnects. A heartbeat keeps idle proxies from cutting the connection.
func (h *SocialHandler) StreamCounters(c *gin.Context) {
	id, ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("counters", ev)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
