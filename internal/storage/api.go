package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geongi-im/news-tracker/internal/news"
	"github.com/geongi-im/news-tracker/internal/retry"
)

const publishedDateLayout = "2006-01-02 15:04:05"

// APIClient implements Store against the news REST API. Transient failures
// (429 and 5xx) are retried with the bounded storage retry policy, which is
// deliberately separate from the AI provider backoff.
type APIClient struct {
	baseURL string
	client  *http.Client
	retry   retry.Config
	log     *slog.Logger
}

func NewAPIClient(baseURL string, retryCfg retry.Config, log *slog.Logger) *APIClient {
	if log == nil {
		log = slog.Default()
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   retryCfg,
		log:     log,
	}
}

// envelope is the {success, data} wrapper every API response carries.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiFeed struct {
	ID       json.Number `json:"mq_idx"`
	Company  string      `json:"mq_company"`
	Category string      `json:"mq_category"`
	RSS      string      `json:"mq_rss"`
}

func (c *APIClient) ActiveFeeds(ctx context.Context) ([]news.FeedSource, error) {
	var feeds []apiFeed
	if err := c.getJSON(ctx, "/news/rss", nil, &feeds); err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}

	sources := make([]news.FeedSource, 0, len(feeds))
	for _, f := range feeds {
		sources = append(sources, news.FeedSource{
			ID:       f.ID.String(),
			Company:  f.Company,
			Category: f.Category,
			FeedURL:  f.RSS,
		})
	}
	return sources, nil
}

func (c *APIClient) Exists(ctx context.Context, articleURL string) (bool, error) {
	q := url.Values{}
	q.Set("url", articleURL)

	// The check endpoint answers outside the envelope.
	var resp struct {
		Exists bool `json:"exists"`
	}
	err := c.do(ctx, http.MethodGet, "/news/check?"+q.Encode(), nil, &resp)
	if err != nil {
		return false, fmt.Errorf("check news exists: %w", err)
	}
	return resp.Exists, nil
}

func (c *APIClient) ExistsBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	body := map[string]any{"urls": urls}

	var result map[string]bool
	if err := c.postJSON(ctx, "/news/check-batch", body, &result); err != nil {
		return nil, fmt.Errorf("batch check news exists: %w", err)
	}
	return result, nil
}

func (c *APIClient) InsertNews(ctx context.Context, rec news.Record) error {
	var published *string
	if rec.Published != nil {
		s := rec.Published.Format(publishedDateLayout)
		published = &s
	}

	body := map[string]any{
		"category":       rec.Category,
		"title":          rec.Title,
		"content":        rec.Content,
		"company":        rec.Company,
		"source_url":     rec.SourceURL,
		"published_date": published,
		"step1_score":    rec.Score,
	}

	if err := c.postJSON(ctx, "/news", body, nil); err != nil {
		return fmt.Errorf("insert news %q: %w", rec.Title, err)
	}
	return nil
}

// getJSON performs an enveloped GET and decodes the data field into v.
func (c *APIClient) getJSON(ctx context.Context, path string, _ url.Values, v any) error {
	return c.doEnveloped(ctx, http.MethodGet, path, nil, v)
}

// postJSON performs an enveloped POST with a JSON body.
func (c *APIClient) postJSON(ctx context.Context, path string, body, v any) error {
	return c.doEnveloped(ctx, http.MethodPost, path, body, v)
}

func (c *APIClient) doEnveloped(ctx context.Context, method, path string, body, v any) error {
	var env envelope
	if err := c.do(ctx, method, path, body, &env); err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("api reported failure: %s", env.Message)
	}
	if v == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode api data: %w", err)
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, v any) error {
	return retry.Do(ctx, c.retry, func() error {
		return c.doOnce(ctx, method, path, body, v)
	})
}

func (c *APIClient) doOnce(ctx context.Context, method, path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(detail))}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError carries a non-2xx API status. 429 and 5xx are transient.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.status, e.body)
}

func (e *statusError) Transient() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// transportError marks network-level failures, which are always retryable.
type transportError struct {
	err error
}

func (e *transportError) Error() string   { return "api request: " + e.err.Error() }
func (e *transportError) Unwrap() error   { return e.err }
func (e *transportError) Transient() bool { return true }
