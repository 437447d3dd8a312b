package storage

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"vertigo/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Client fronts the two buckets the platform uses: ingest (raw uploads) and
// media (served assets). URL building for the feed lives here too, so the
// handlers never know which backend is behind the keys.
type Client struct {
	backend      Provider
	bucketMedia  string
	bucketIngest string
	publicBase   string

	cache      map[string][]string
	cacheTime  map[string]time.Time
	cacheMutex sync.RWMutex
}

const CacheTTL = 1 * time.Hour

func New(cfg *config.Config) *Client {
	var backend Provider

	if cfg.Storage.Provider == "local" {
		backend = NewLocalProvider(cfg.Storage.LocalRoot)
	} else {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
			Endpoint:         aws.String(cfg.Storage.Endpoint),
			Region:           aws.String(cfg.Storage.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess := session.Must(session.NewSession(s3Config))
		backend = NewS3Provider(sess)
	}

	publicBase := strings.TrimRight(cfg.Storage.PublicBase, "/")
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Storage.Endpoint, "/"), cfg.Storage.BucketMedia)
	}

	return &Client{
		backend:      backend,
		bucketMedia:  cfg.Storage.BucketMedia,
		bucketIngest: cfg.Storage.BucketIngest,
		publicBase:   publicBase,
		cache:        make(map[string][]string),
		cacheTime:    make(map[string]time.Time),
	}
}

// PublicURL resolves a media-bucket key to the URL clients stream from.
// Empty keys map to empty URLs so optional assets stay optional.
func (c *Client) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return c.publicBase + "/" + strings.TrimLeft(key, "/")
}

// ListMediaFiles lists media-bucket keys under a prefix, cached for a while
// since listings are only consulted on ingest and startup paths.
func (c *Client) ListMediaFiles(prefix string) ([]string, error) {
	c.cacheMutex.RLock()
	files, ok := c.cache[prefix]
	ts := c.cacheTime[prefix]
	c.cacheMutex.RUnlock()

	if ok && time.Since(ts) < CacheTTL {
		return files, nil
	}

	keys, err := c.backend.List(c.bucketMedia, prefix)
	if err != nil {
		return nil, err
	}

	c.cacheMutex.Lock()
	c.cache[prefix] = keys
	c.cacheTime[prefix] = time.Now()
	c.cacheMutex.Unlock()

	return keys, nil
}

// --- Media bucket ---

func (c *Client) DownloadMediaFile(key string) (*FileObject, error) {
	return c.backend.Get(c.bucketMedia, key)
}

func (c *Client) UploadMediaFile(key string, body io.ReadSeeker, contentType, cacheControl string) error {
	return c.backend.Put(c.bucketMedia, key, body, contentType, cacheControl)
}

func (c *Client) MediaFileExists(key string) (bool, error) {
	return c.backend.Exists(c.bucketMedia, key)
}

// --- Ingest bucket ---

func (c *Client) ListIngestFiles() ([]string, error) {
	return c.backend.List(c.bucketIngest, "")
}

func (c *Client) DownloadIngestFile(key string) (*FileObject, error) {
	return c.backend.Get(c.bucketIngest, key)
}

func (c *Client) UploadIngestFile(key string, body io.ReadSeeker, contentType string) error {
	return c.backend.Put(c.bucketIngest, key, body, contentType, "")
}

func (c *Client) DeleteIngestFile(key string) error {
	return c.backend.Delete(c.bucketIngest, key)
}
