package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"vertigo/internal/feed"
)

// Client fetches feed pages and counter patches from the platform API.
// It implements feed.Source for the pager.
type Client struct {
	base   string
	token  string
	client *http.Client
	logger *slog.Logger
}

func New(base, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// FetchPage retrieves one page of feed items. Transient failures are
// retried with backoff; a malformed page is not retried, since the payload
// will not get better.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*feed.Page, error) {
	pageURL := c.base + "/api/v1/feed"
	if cursor != "" {
		pageURL += "?cursor=" + url.QueryEscape(cursor)
	}

	var page *feed.Page
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if c.token != "" {
				req.Header.Set("Authorization", "Bearer "+c.token)
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			var p feed.Page
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode page: %w", err))
			}
			if err := p.Validate(); err != nil {
				return retry.Unrecoverable(err)
			}

			page = &p
			return nil
		},
		retry.Attempts(4),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying feed fetch after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch feed page: %w", err)
	}
	return page, nil
}

// CounterPatch mirrors the server's counter event payload.
type CounterPatch struct {
	ItemID   string `json:"item_id"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
}

// StreamCounters subscribes to the SSE counter stream and invokes apply for
// each patch until the context is cancelled or the connection drops. The
// caller decides whether to reconnect.
func (c *Client) StreamCounters(ctx context.Context, apply func(CounterPatch)) error {
	streamURL := c.base + "/api/v1/counters/stream"
	if c.token != "" {
		// EventSource semantics: no headers, token travels as a query param
		streamURL += "?token=" + url.QueryEscape(c.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout here: the stream is long-lived.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var event string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if event != "counters" {
				continue // heartbeat
			}
			var patch CounterPatch
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if err := json.Unmarshal([]byte(data), &patch); err != nil {
				c.logger.Warn("Skipping malformed counter patch", "error", err)
				continue
			}
			apply(patch)
		case line == "":
			event = ""
		}
	}
	return scanner.Err()
}
