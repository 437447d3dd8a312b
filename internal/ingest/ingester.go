package ingest

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vertigo/internal/config"
	database "vertigo/internal/db"
	"vertigo/internal/markup"
	"vertigo/internal/metadata"
	"vertigo/internal/models"
	"vertigo/internal/storage"
	"vertigo/internal/utils"
)

var (
	jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vertigo_ingest_jobs_total",
			Help: "Total ingest jobs",
		},
		[]string{"status"},
	)
	duration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vertigo_ingest_duration_seconds",
			Help:    "Processing time",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(jobs, duration)
}

type Worker struct {
	cfg     *config.Config
	storage *storage.Client
	db      *database.Client
}

func New(cfg *config.Config, store *storage.Client, db *database.Client) *Worker {
	return &Worker{cfg: cfg, storage: store, db: db}
}

func (w *Worker) Run() {
	ticker := time.NewTicker(time.Duration(w.cfg.Server.PollingInterval) * time.Second)
	defer ticker.Stop()

	log.Printf("Watcher started on '%s'...", w.cfg.Storage.BucketIngest)
	w.processQueue()

	for range ticker.C {
		w.processQueue()
	}
}

func (w *Worker) processQueue() {
	keys, err := w.storage.ListIngestFiles()
	if err != nil {
		log.Printf("Error listing bucket: %v", err)
		return
	}

	if len(keys) > 0 {
		log.Printf("Found %d items in ingest queue.", len(keys))
	}

	for _, key := range keys {
		if strings.HasSuffix(key, "/") {
			continue
		}

		var err error
		switch strings.ToLower(filepath.Ext(key)) {
		case ".mp4", ".m4v", ".mov":
			log.Printf("Processing video: %s", key)
			err = w.processVideo(key)
		case ".html", ".htm":
			log.Printf("Processing slide: %s", key)
			err = w.processMarkup(key)
		default:
			continue
		}

		if err != nil {
			log.Printf("❌ FAILED %s: %v", key, err)
			jobs.WithLabelValues("failure").Inc()
		} else {
			log.Printf("✅ PUBLISHED %s", key)
			jobs.WithLabelValues("success").Inc()
		}
	}
}

func (w *Worker) processVideo(key string) error {
	timer := prometheus.NewTimer(duration)
	defer timer.ObserveDuration()

	baseName := filepath.Base(key)
	rawPath := filepath.Join(w.cfg.Server.TempDir, "raw_"+baseName)
	defer os.Remove(rawPath)

	// 1. Download
	if err := w.downloadTo(key, rawPath); err != nil {
		return err
	}

	// 2. Extract metadata; a file without a moov box never played anywhere,
	// so treat it as corrupt and drop it from the queue.
	clip, err := metadata.GetLocal(rawPath)
	if err != nil {
		return err
	}
	if clip.Duration == 0 {
		if _, derr := probeDuration(rawPath); derr != nil {
			log.Printf("   ❌ Skipping corrupted file: %s", baseName)
			return w.storage.DeleteIngestFile(key)
		}
	}
	if clip.Title == "" {
		clip.Title = utils.CleanFilename(baseName)
	}

	// 3. Lay out and upload assets
	layout := NewAssetLayout(clip.Title)

	fRaw, err := os.Open(rawPath)
	if err != nil {
		return err
	}
	defer fRaw.Close()

	log.Printf("   -> Uploading to: %s", layout.FallbackKey)
	if err := w.storage.UploadMediaFile(layout.FallbackKey, fRaw, "video/mp4", "public, max-age=31536000"); err != nil {
		return err
	}

	playlist := strings.NewReader(BuildPlaylist(layout, clip.Duration))
	if err := w.storage.UploadMediaFile(layout.PlaylistKey, playlist, "application/vnd.apple.mpegurl", "public, max-age=60"); err != nil {
		return err
	}

	posterKey, err := w.sidecarPoster(key, layout)
	if err != nil {
		return err
	}

	// 4. DB Persistence, idempotent on the fallback key so a re-run of the
	// same queue item cannot double-publish.
	entry := models.Entry{
		PublicID:    layout.ID,
		Kind:        "video",
		Title:       clip.Title,
		AccessTier:  "public",
		PlaylistKey: layout.PlaylistKey,
		FallbackKey: layout.FallbackKey,
		PosterKey:   posterKey,
		Duration:    clip.Duration,
		PublishedAt: time.Now().UTC(),
		IsPublished: true,
	}
	w.db.DB.Where(models.Entry{FallbackKey: layout.FallbackKey}).Assign(entry).FirstOrCreate(&entry)

	return w.storage.DeleteIngestFile(key)
}

// sidecarPoster publishes an uploader-provided still dropped next to the
// clip in the queue (clip.mp4 + clip.jpg). Extracting a frame from the video
// itself is the transcoder's job, like the multi-bitrate ladder; until one
// runs, a sidecar is the only way an ingested video gets a poster. No
// sidecar means no poster, which is fine.
func (w *Worker) sidecarPoster(videoKey string, layout AssetLayout) (string, error) {
	stem := strings.TrimSuffix(videoKey, filepath.Ext(videoKey))
	candidates := []struct {
		ext   string
		ctype string
	}{
		{".jpg", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".png", "image/png"},
	}

	for _, c := range candidates {
		obj, err := w.storage.DownloadIngestFile(stem + c.ext)
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(obj.Body)
		obj.Body.Close()
		if err != nil {
			return "", err
		}

		posterKey := strings.TrimSuffix(layout.PosterKey, ".jpg") + c.ext
		log.Printf("   -> Uploading poster to: %s", posterKey)
		if err := w.storage.UploadMediaFile(posterKey, bytes.NewReader(raw), c.ctype, "public, max-age=31536000"); err != nil {
			return "", err
		}
		if err := w.storage.DeleteIngestFile(stem + c.ext); err != nil {
			return "", err
		}
		return posterKey, nil
	}
	return "", nil
}

// processMarkup turns an uploaded HTML fragment into a markup entry. The
// body is sanitized before it is stored; nothing unsanitized reaches the DB.
func (w *Worker) processMarkup(key string) error {
	timer := prometheus.NewTimer(duration)
	defer timer.ObserveDuration()

	obj, err := w.storage.DownloadIngestFile(key)
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	if err != nil {
		return err
	}

	clean, err := markup.Sanitize(string(raw))
	if err != nil {
		return err
	}

	title := utils.CleanFilename(filepath.Base(key))
	layout := NewAssetLayout(title)

	entry := models.Entry{
		PublicID:    layout.ID,
		Kind:        "markup",
		Title:       title,
		AccessTier:  "public",
		Body:        clean,
		PublishedAt: time.Now().UTC(),
		IsPublished: true,
	}
	w.db.DB.Where(models.Entry{Kind: "markup", Title: title}).Assign(entry).FirstOrCreate(&entry)

	return w.storage.DeleteIngestFile(key)
}

func (w *Worker) downloadTo(key, path string) error {
	obj, err := w.storage.DownloadIngestFile(key)
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, obj.Body)
	return err
}

func probeDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return metadata.ReadMP4Duration(f)
}
