package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geongi-im/news-tracker/internal/prompt"
)

// fakeProvider replays a scripted sequence of results, one per Generate call.
type fakeProvider struct {
	results []fakeResult
	calls   int
}

type fakeResult struct {
	raw string
	err error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.raw, r.err
}

func newTestClient(t *testing.T, p Provider, opts Options) (*Client, *[]time.Duration) {
	t.Helper()

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "score.md"), []byte("Rate this.\n"), 0o644)
	require.NoError(t, err)

	c := NewClient(p, prompt.NewBuilder(dir), opts, nil)

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func testRequest() Request {
	return Request{
		Template: "score.md",
		Fields:   []prompt.Field{{Key: "title", Value: "테스트 기사"}},
	}
}

func TestClassifySuccessAppliesCourtesyDelay(t *testing.T) {
	p := &fakeProvider{results: []fakeResult{{raw: `{"total_score": 9}`}}}
	c, slept := newTestClient(t, p, Options{MaxRetries: 3, RetryDelay: 5 * time.Second, SuccessDelay: 3 * time.Second})

	resp, err := c.Classify(context.Background(), testRequest())
	require.NoError(t, err)

	require.Equal(t, KindParsed, resp.Kind)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, []time.Duration{3 * time.Second}, *slept)
}

func TestClassifyRetriesExhaustBackoff(t *testing.T) {
	overloaded := errors.New("googleapi: Error 503: The model is overloaded, UNAVAILABLE")
	p := &fakeProvider{results: []fakeResult{{err: overloaded}}}
	c, slept := newTestClient(t, p, Options{MaxRetries: 3, RetryDelay: 5 * time.Second, SuccessDelay: 3 * time.Second})

	resp, err := c.Classify(context.Background(), testRequest())
	require.NoError(t, err, "provider exhaustion is a Response outcome, not a Go error")

	assert.Equal(t, KindFailed, resp.Kind)
	assert.Contains(t, resp.ErrDetail, "retries exhausted")
	assert.Equal(t, 3, p.calls)
	// Doubling backoff after each overloaded attempt: 5s, 10s, 20s.
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}, *slept)
}

func TestClassifyRecoversMidRetry(t *testing.T) {
	quota := errors.New("rpc error: code = 429 RESOURCE_EXHAUSTED")
	p := &fakeProvider{results: []fakeResult{
		{err: quota},
		{raw: `{"total_score": 6}`},
	}}
	c, slept := newTestClient(t, p, Options{MaxRetries: 3, RetryDelay: 2 * time.Second, SuccessDelay: time.Second})

	resp, err := c.Classify(context.Background(), testRequest())
	require.NoError(t, err)

	require.Equal(t, KindParsed, resp.Kind)
	assert.Equal(t, 2, p.calls)
	// One backoff sleep, then the courtesy delay after success.
	assert.Equal(t, []time.Duration{2 * time.Second, time.Second}, *slept)
}

func TestClassifyFatalErrorStopsImmediately(t *testing.T) {
	p := &fakeProvider{results: []fakeResult{{err: errors.New("invalid api key")}}}
	c, slept := newTestClient(t, p, Options{MaxRetries: 3, RetryDelay: 5 * time.Second})

	resp, err := c.Classify(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, KindFailed, resp.Kind)
	assert.Contains(t, resp.ErrDetail, "invalid api key")
	assert.Equal(t, 1, p.calls, "non-retryable errors must not be retried")
	assert.Empty(t, *slept)
}

func TestClassifyMissingTemplateIsError(t *testing.T) {
	p := &fakeProvider{results: []fakeResult{{raw: "{}"}}}
	c, _ := newTestClient(t, p, Options{})

	_, err := c.Classify(context.Background(), Request{Template: "missing.md"})
	require.ErrorIs(t, err, prompt.ErrTemplateNotFound)
	assert.Equal(t, 0, p.calls)
}

func TestClassifyCancelledContext(t *testing.T) {
	overloaded := errors.New("503 service unavailable")
	p := &fakeProvider{results: []fakeResult{{err: overloaded}}}
	c, _ := newTestClient(t, p, Options{MaxRetries: 3, RetryDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.Classify(ctx, testRequest())
	require.Error(t, err, "cancellation surfaces as a Go error, not a Failed response")
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want bool
	}{
		{"googleapi: Error 503: overloaded", true},
		{"rate limited: 429", true},
		{"code = UNAVAILABLE", true},
		{"RESOURCE_EXHAUSTED: quota", true},
		{"invalid request", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryable(errors.New(tt.msg)), tt.msg)
	}
}
