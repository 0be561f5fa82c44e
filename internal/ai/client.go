// Package ai invokes a remote scoring model with quota-aware retry and
// multi-shape response parsing.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geongi-im/news-tracker/internal/prompt"
)

// Provider issues one raw scoring call. Implementations should request
// native JSON output where the backing API supports it.
type Provider interface {
	Name() string
	Generate(ctx context.Context, promptText string) (string, error)
}

// Request names the prompt template and carries the ordered input fields.
type Request struct {
	Template string
	Fields   []prompt.Field
}

// Options tune the retry and throttling behavior of a Client.
type Options struct {
	MaxRetries   int
	RetryDelay   time.Duration
	SuccessDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.SuccessDelay < 0 {
		o.SuccessDelay = 0
	}
}

// Client wraps a Provider with prompt assembly, exponential backoff on
// overload errors, a post-success courtesy delay, and response recovery.
type Client struct {
	provider Provider
	builder  *prompt.Builder
	opts     Options
	log      *slog.Logger

	// sleep is swappable so tests can run without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(provider Provider, builder *prompt.Builder, opts Options, log *slog.Logger) *Client {
	opts.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		provider: provider,
		builder:  builder,
		opts:     opts,
		log:      log,
		sleep:    sleepCtx,
	}
}

// Classify assembles the prompt, calls the provider with retry, and parses
// the raw response. Template load failures and context cancellation come
// back as Go errors; every provider-side outcome is expressed in Response.
func (c *Client) Classify(ctx context.Context, req Request) (Response, error) {
	promptText, err := c.builder.Build(req.Template, req.Fields)
	if err != nil {
		return Response{}, err
	}

	raw, err := c.callWithRetry(ctx, promptText)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, err
		}
		return Failed("", err.Error()), nil
	}

	return ParseResponse(raw), nil
}

func (c *Client) callWithRetry(ctx context.Context, promptText string) (string, error) {
	state := newRetryState(c.opts.RetryDelay)
	var lastErr error

	for state.attempt < c.opts.MaxRetries {
		raw, err := c.provider.Generate(ctx, promptText)
		if err == nil {
			// Courtesy delay: consecutive pipeline calls must not
			// burst the provider's quota.
			if c.opts.SuccessDelay > 0 {
				if serr := c.sleep(ctx, c.opts.SuccessDelay); serr != nil {
					return "", serr
				}
			}
			return raw, nil
		}

		if !isRetryable(err) {
			c.log.Error("provider call failed", "provider", c.provider.Name(), "error", err)
			return "", fmt.Errorf("provider %s: %w", c.provider.Name(), err)
		}

		lastErr = err
		c.log.Warn("provider overloaded, backing off",
			"provider", c.provider.Name(),
			"attempt", state.attempt+1,
			"max_retries", c.opts.MaxRetries,
			"delay", state.nextDelay)
		if serr := c.sleep(ctx, state.nextDelay); serr != nil {
			return "", serr
		}
		state.advance()
	}

	return "", fmt.Errorf("provider %s: retries exhausted after %d attempts: %w",
		c.provider.Name(), c.opts.MaxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
