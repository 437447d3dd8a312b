package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"vertigo/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EntryHandler covers the admin side of the catalog: listing, editing and
// unpublishing entries.
type EntryHandler struct {
	db *gorm.DB
}

func NewEntryHandler(db *gorm.DB) *EntryHandler {
	return &EntryHandler{db: db}
}

// Lightweight row for the admin catalog table.
type CatalogEntry struct {
	ID           uint    `json:"id"`
	PublicID     string  `json:"public_id"`
	Kind         string  `json:"kind"`
	Title        string  `json:"title"`
	AccessTier   string  `json:"access_tier"`
	Duration     float64 `json:"duration"`
	LikeCount    int64   `json:"like_count"`
	CommentCount int64   `json:"comment_count"`
	IsPublished  bool    `json:"is_published"`
}

// GetEntries returns a paginated, lightweight list of catalog entries
func (h *EntryHandler) GetEntries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("search")

	if limit > 200 {
		limit = 200 // Hard cap to protect the server
	}

	query := h.db.Model(&models.Entry{})
	if search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var entries []CatalogEntry
	result := query.
		Select("id, public_id, kind, title, access_tier, duration, like_count, comment_count, is_published").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries)
	if result.Error != nil {
		slog.Error("Failed to fetch entries", "error", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": entries,
		"meta": gin.H{"total": total, "limit": limit, "offset": offset},
	})
}

// UpdateEntry edits mutable catalog fields (title, tier, publication, poster).
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	// Protect derived and identity fields from being modified via the API.
	// poster_key stays editable so a still can be attached after ingest.
	for _, key := range []string{"id", "public_id", "kind", "playlist_key", "fallback_key", "duration", "like_count", "comment_count", "owner_id"} {
		delete(updateData, key)
	}

	result := h.db.Model(&models.Entry{}).Where("public_id = ?", c.Param("id")).Updates(updateData)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update entry"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry updated successfully"})
}

// DeleteEntry soft-deletes an entry; assets stay in the media bucket.
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	result := h.db.Where("public_id = ?", c.Param("id")).Delete(&models.Entry{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete entry"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
}
