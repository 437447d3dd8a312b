package ingest

import (
	"log"
	"strings"

	"vertigo/internal/models"
)

// RepairCatalog cross-checks published video entries against the media
// bucket and fixes what it can: missing playlists are regenerated from the
// fallback file, entries whose fallback is gone get unpublished.
func (w *Worker) RepairCatalog() {
	log.Println("🛠️ Starting catalog repair...")

	var entries []models.Entry
	err := w.db.DB.Where("kind = ? AND is_published = ?", "video", true).Find(&entries).Error
	if err != nil {
		log.Printf("❌ Failed to fetch entries: %v", err)
		return
	}

	count := len(entries)
	log.Printf("🧐 Checking %d published videos against storage.", count)

	repaired, unpublished := 0, 0
	for i, entry := range entries {
		if i > 0 && i%25 == 0 {
			log.Printf("⏳ Repair progress: %d/%d entries...", i, count)
		}

		fallbackOK, err := w.storage.MediaFileExists(entry.FallbackKey)
		if err != nil {
			log.Printf("   ⚠️ Storage check failed for %s: %v", entry.PublicID, err)
			continue
		}
		if !fallbackOK {
			// The source of truth is gone; the entry can't play.
			log.Printf("   🚫 Unpublishing %s (missing %s)", entry.PublicID, entry.FallbackKey)
			w.db.DB.Model(&entry).Update("is_published", false)
			unpublished++
			continue
		}

		playlistOK, err := w.storage.MediaFileExists(entry.PlaylistKey)
		if err != nil || playlistOK {
			continue
		}

		// Playlist lost (bucket cleanup, partial ingest crash): cheap to
		// rebuild from what the entry already knows.
		log.Printf("   🔧 Rebuilding playlist for %s", entry.PublicID)
		layout := AssetLayout{
			ID:          entry.PublicID,
			PlaylistKey: entry.PlaylistKey,
			FallbackKey: entry.FallbackKey,
		}
		playlist := strings.NewReader(BuildPlaylist(layout, entry.Duration))
		if err := w.storage.UploadMediaFile(entry.PlaylistKey, playlist, "application/vnd.apple.mpegurl", "public, max-age=60"); err != nil {
			log.Printf("   ❌ Playlist rebuild failed for %s: %v", entry.PublicID, err)
			continue
		}
		repaired++
	}

	log.Printf("✅ Repair complete: %d playlists rebuilt, %d entries unpublished.", repaired, unpublished)
}
