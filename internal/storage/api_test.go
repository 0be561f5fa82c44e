package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geongi-im/news-tracker/internal/news"
	"github.com/geongi-im/news-tracker/internal/retry"
)

func testRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, Delay: time.Millisecond, Multiplier: 2}
}

func TestActiveFeeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/news/rss", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": [
				{"mq_idx": 3, "mq_company": "테스트신문", "mq_category": "경제", "mq_rss": "https://feed.example/rss"}
			]
		}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	feeds, err := c.ActiveFeeds(context.Background())
	require.NoError(t, err)

	require.Len(t, feeds, 1)
	assert.Equal(t, "3", feeds[0].ID)
	assert.Equal(t, "테스트신문", feeds[0].Company)
	assert.Equal(t, "경제", feeds[0].Category)
	assert.Equal(t, "https://feed.example/rss", feeds[0].FeedURL)
}

func TestActiveFeedsEnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "database offline"}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	_, err := c.ActiveFeeds(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database offline")
}

func TestExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/news/check", r.URL.Path)
		require.Equal(t, "https://news.example/1", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"exists": true}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	exists, err := c.Exists(context.Background(), "https://news.example/1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExistsBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/news/check-batch", r.URL.Path)

		var body struct {
			URLs []string `json:"urls"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.URLs, 2)

		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {"https://news.example/1": true, "https://news.example/2": false}
		}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	result, err := c.ExistsBatch(context.Background(), []string{"https://news.example/1", "https://news.example/2"})
	require.NoError(t, err)

	assert.True(t, result["https://news.example/1"])
	assert.False(t, result["https://news.example/2"])
}

func TestInsertNews(t *testing.T) {
	published := time.Date(2025, time.June, 1, 14, 30, 0, 0, time.UTC)

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/news", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	err := c.InsertNews(context.Background(), news.Record{
		Category:  "경제",
		Title:     "수출 호조",
		Content:   "본문",
		Company:   "테스트신문",
		SourceURL: "https://news.example/1",
		Published: &published,
		Score:     9,
	})
	require.NoError(t, err)

	assert.Equal(t, "경제", got["category"])
	assert.Equal(t, "수출 호조", got["title"])
	assert.Equal(t, "2025-06-01 14:30:00", got["published_date"])
	assert.Equal(t, float64(9), got["step1_score"])
}

func TestInsertNewsNilPublished(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	err := c.InsertNews(context.Background(), news.Record{Title: "t", SourceURL: "u", Score: 8})
	require.NoError(t, err)

	v, present := got["published_date"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"exists": false}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	exists, err := c.Exists(context.Background(), "https://news.example/1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, testRetry(), nil)
	_, err := c.Exists(context.Background(), "https://news.example/1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are permanent")
}

func TestStatusErrorTransience(t *testing.T) {
	t.Parallel()

	assert.True(t, (&statusError{status: 429}).Transient())
	assert.True(t, (&statusError{status: 500}).Transient())
	assert.True(t, (&statusError{status: 503}).Transient())
	assert.False(t, (&statusError{status: 400}).Transient())
	assert.False(t, (&statusError{status: 404}).Transient())
}
