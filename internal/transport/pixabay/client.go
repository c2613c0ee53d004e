package pixabay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pixsearch/internal/domain"
	"github.com/kailas-cloud/pixsearch/internal/domain/image"
	dompage "github.com/kailas-cloud/pixsearch/internal/domain/page"
	"github.com/kailas-cloud/pixsearch/internal/metrics"
)

// Defaults for the Pixabay API client.
const (
	DefaultBaseURL      = "https://pixabay.com/api/"
	DefaultTimeout      = 10 * time.Second
	DefaultMaxAttempts  = 4
	DefaultBaseBackoff  = 500 * time.Millisecond
	DefaultMaxBackoff   = 8 * time.Second
	DefaultResetWait    = 60 * time.Second
	maxErrorBodyBytes   = 512
	healthCheckTerm     = "nature"
	healthCheckPageSize = 3
)

// Rate limit headers sent by Pixabay.
const (
	headerRateLimitReset     = "X-RateLimit-Reset"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
)

// Fixed search filters applied to every request.
const (
	paramImageType   = "photo"
	paramOrientation = "horizontal"
	paramSafeSearch  = "true"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config holds the Pixabay client settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	DefaultReset time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client fetches result pages from the Pixabay image search API.
// It holds no state between calls.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	maxAttempts  int
	baseBackoff  time.Duration
	maxBackoff   time.Duration
	defaultReset time.Duration
	sleep        Sleeper
	jitter       func() float64
	logger       *zap.Logger
}

// NewClient creates a Pixabay client. Zero config values fall back to package defaults.
func NewClient(cfg *Config) *Client {
	c := &Client{
		httpClient:   cfg.HTTPClient,
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		maxAttempts:  cfg.MaxAttempts,
		baseBackoff:  cfg.BaseBackoff,
		maxBackoff:   cfg.MaxBackoff,
		defaultReset: cfg.DefaultReset,
		sleep:        sleepContext,
		jitter:       rand.Float64,
		logger:       cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.baseBackoff <= 0 {
		c.baseBackoff = DefaultBaseBackoff
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = DefaultMaxBackoff
	}
	if c.defaultReset <= 0 {
		c.defaultReset = DefaultResetWait
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// WithSleeper replaces the wait used between rate-limited attempts.
func (c *Client) WithSleeper(s Sleeper) *Client {
	c.sleep = s
	return c
}

// WithJitter replaces the jitter source. fn must return values in [0, 1).
func (c *Client) WithJitter(fn func() float64) *Client {
	c.jitter = fn
	return c
}

// FetchPage requests one page of hits for term.
//
// A 429 response is retried after the server supplied reset delay plus a
// jittered exponential backoff, up to the configured number of attempts.
// Any other non-2xx status is terminal.
func (c *Client) FetchPage(ctx context.Context, term string, pageNum, pageSize int) (dompage.Page, error) {
	reqURL, err := c.buildURL(term, pageNum, pageSize)
	if err != nil {
		return dompage.Page{}, err
	}

	for attempt := 1; ; attempt++ {
		body, wait, err := c.attempt(ctx, reqURL)
		if err == nil {
			return c.decode(body, pageNum)
		}
		if !errors.Is(err, domain.ErrRateLimited) {
			return dompage.Page{}, err
		}

		if attempt >= c.maxAttempts {
			c.logger.Warn("pixabay rate limit retries exhausted",
				zap.String("term", term),
				zap.Int("page", pageNum),
				zap.Int("attempts", attempt),
			)
			return dompage.Page{}, domain.NewRateLimitError(attempt, wait)
		}

		delay := wait + c.backoff(attempt)
		c.logger.Warn("pixabay rate limit exceeded, retrying",
			zap.String("term", term),
			zap.Int("page", pageNum),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		metrics.PixabayRetriesTotal.Inc()

		if err := c.sleep(ctx, delay); err != nil {
			return dompage.Page{}, fmt.Errorf("waiting for rate limit reset: %w", err)
		}
	}
}

// HealthCheck issues a minimal search to verify the API key and connectivity.
// It makes a single attempt: a rate limited key is reported at once, never waited out.
func (c *Client) HealthCheck(ctx context.Context) error {
	reqURL, err := c.buildURL(healthCheckTerm, 1, healthCheckPageSize)
	if err != nil {
		return fmt.Errorf("pixabay health check: %w", err)
	}
	_, wait, err := c.attempt(ctx, reqURL)
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return fmt.Errorf("pixabay health check: %w", domain.NewRateLimitError(1, wait))
	case err != nil:
		return fmt.Errorf("pixabay health check: %w", err)
	}
	return nil
}

// attempt performs a single GET. On 429 it returns ErrRateLimited and the reset delay.
func (c *Client) attempt(ctx context.Context, reqURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.PixabayRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PixabayRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, 0, fmt.Errorf("pixabay request: %w: %w", domain.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.observeRemaining(resp.Header)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.PixabayRequestsTotal.WithLabelValues("rate_limited").Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, c.resetDelay(resp.Header), domain.ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.PixabayRequestsTotal.WithLabelValues("http_error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, 0, &domain.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.PixabayRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, 0, fmt.Errorf("read response: %w: %w", domain.ErrNetwork, err)
	}
	metrics.PixabayRequestsTotal.WithLabelValues("success").Inc()
	return body, 0, nil
}

func (c *Client) decode(body []byte, pageNum int) (dompage.Page, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return dompage.Page{}, fmt.Errorf("decode response: %v: %w", err, domain.ErrUpstream)
	}

	items := make([]image.Image, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		img, err := h.toDomain()
		if err != nil {
			c.logger.Warn("skipping malformed hit", zap.Int64("id", h.ID), zap.Error(err))
			continue
		}
		items = append(items, img)
	}

	return dompage.New(items, resp.TotalHits, pageNum), nil
}

func (c *Client) buildURL(term string, pageNum, pageSize int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", c.baseURL, err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("q", term)
	q.Set("image_type", paramImageType)
	q.Set("orientation", paramOrientation)
	q.Set("safesearch", paramSafeSearch)
	q.Set("page", strconv.Itoa(pageNum))
	q.Set("per_page", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resetDelay reads X-RateLimit-Reset (seconds). Header lookup is case-insensitive.
// A missing or malformed value yields the configured default.
func (c *Client) resetDelay(h http.Header) time.Duration {
	raw := strings.TrimSpace(h.Get(headerRateLimitReset))
	if raw == "" {
		return c.defaultReset
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return c.defaultReset
	}
	return time.Duration(secs * float64(time.Second))
}

// backoff returns the jitter added on top of the reset delay for the given attempt.
func (c *Client) backoff(attempt int) time.Duration {
	ceiling := c.baseBackoff << (attempt - 1)
	if ceiling <= 0 || ceiling > c.maxBackoff {
		ceiling = c.maxBackoff
	}
	return time.Duration(c.jitter() * float64(ceiling))
}

func (c *Client) observeRemaining(h http.Header) {
	raw := h.Get(headerRateLimitRemaining)
	if raw == "" {
		return
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		metrics.PixabayRateLimitRemaining.Set(v)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
