package storage

import (
	"io"
	"strings"
	"testing"

	"vertigo/internal/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.Provider = "local"
	cfg.Storage.LocalRoot = t.TempDir()
	cfg.Storage.BucketMedia = "media"
	cfg.Storage.BucketIngest = "ingest"
	cfg.Storage.PublicBase = "https://cdn.test"
	return New(cfg)
}

func TestMediaRoundTrip(t *testing.T) {
	c := testClient(t)
	key := "videos/clip-abc/fallback.mp4"

	exists, err := c.MediaFileExists(key)
	if err != nil || exists {
		t.Fatalf("fresh bucket: exists=%v err=%v", exists, err)
	}

	body := strings.NewReader("not really an mp4")
	if err := c.UploadMediaFile(key, body, "video/mp4", "public, max-age=60"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	exists, err = c.MediaFileExists(key)
	if err != nil || !exists {
		t.Fatalf("after upload: exists=%v err=%v", exists, err)
	}

	obj, err := c.DownloadMediaFile(key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer obj.Body.Close()

	data, _ := io.ReadAll(obj.Body)
	if string(data) != "not really an mp4" {
		t.Errorf("round trip corrupted body: %q", data)
	}
	if obj.ContentType != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", obj.ContentType)
	}
}

func TestIngestQueue(t *testing.T) {
	c := testClient(t)

	c.backend.Put("ingest", "upload1.mp4", strings.NewReader("a"), "video/mp4", "")
	c.backend.Put("ingest", "upload2.mp4", strings.NewReader("b"), "video/mp4", "")

	keys, err := c.ListIngestFiles()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("listed %d keys, want 2", len(keys))
	}

	if err := c.DeleteIngestFile("upload1.mp4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	keys, _ = c.ListIngestFiles()
	if len(keys) != 1 || keys[0] != "upload2.mp4" {
		t.Errorf("after delete: %v", keys)
	}
}

func TestListEmptyBucket(t *testing.T) {
	c := testClient(t)
	keys, err := c.ListIngestFiles()
	if err != nil {
		t.Fatalf("listing a missing bucket dir should not fail: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestPublicURL(t *testing.T) {
	c := testClient(t)
	if got := c.PublicURL("videos/x/master.m3u8"); got != "https://cdn.test/videos/x/master.m3u8" {
		t.Errorf("PublicURL = %q", got)
	}
	if got := c.PublicURL(""); got != "" {
		t.Errorf("empty key should yield empty URL, got %q", got)
	}
}
