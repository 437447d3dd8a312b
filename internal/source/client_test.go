package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const goodPage = `{
	"items": [
		{"id": "a", "kind": "video", "access_tier": "public",
		 "video": {"hls_url": "https://cdn.test/a/master.m3u8"}}
	],
	"next_cursor": "cursor-2"
}`

func TestFetchPage(t *testing.T) {
	var gotCursor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.URL.Query().Get("cursor")
		fmt.Fprint(w, goodPage)
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	page, err := c.FetchPage(context.Background(), "cursor-1")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if gotCursor != "cursor-1" {
		t.Errorf("cursor sent = %q, want cursor-1", gotCursor)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "a" {
		t.Errorf("unexpected page: %+v", page)
	}
	if page.NextCursor != "cursor-2" {
		t.Errorf("next cursor = %q, want cursor-2", page.NextCursor)
	}
}

func TestFetchPageRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, goodPage)
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	page, err := c.FetchPage(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchPage should recover from 502s: %v", err)
	}
	if page.Items[0].ID != "a" {
		t.Errorf("unexpected page after retries: %+v", page)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestFetchPageRejectsMalformedPageWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// video item without a stream URL
		fmt.Fprint(w, `{"items": [{"id": "bad", "kind": "video", "access_tier": "public"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	if _, err := c.FetchPage(context.Background(), ""); err == nil {
		t.Fatal("expected error for malformed page")
	}
	if calls.Load() != 1 {
		t.Errorf("malformed payload fetched %d times, want 1 (no retry)", calls.Load())
	}
}

func TestFetchPageSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, goodPage)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123", nil)
	if _, err := c.FetchPage(context.Background(), ""); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", gotAuth)
	}
}

func TestStreamCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event:ping\ndata:12345\n\n")
		fmt.Fprint(w, "event:counters\ndata:{\"item_id\":\"a\",\"likes\":3,\"comments\":1}\n\n")
		fmt.Fprint(w, "event:counters\ndata:not-json\n\n")
		fmt.Fprint(w, "event:counters\ndata:{\"item_id\":\"b\",\"likes\":9,\"comments\":0}\n\n")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var patches []CounterPatch
	c := New(srv.URL, "", nil)
	if err := c.StreamCounters(ctx, func(p CounterPatch) {
		patches = append(patches, p)
	}); err != nil {
		t.Fatalf("StreamCounters: %v", err)
	}

	if len(patches) != 2 {
		t.Fatalf("applied %d patches, want 2 (ping and bad JSON skipped)", len(patches))
	}
	if patches[0].ItemID != "a" || patches[0].Likes != 3 {
		t.Errorf("patch[0] = %+v", patches[0])
	}
	if patches[1].ItemID != "b" || patches[1].Likes != 9 {
		t.Errorf("patch[1] = %+v", patches[1])
	}
}
