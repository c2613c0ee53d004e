package pixsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dompage "github.com/kailas-cloud/pixsearch/internal/domain/page"
	"github.com/kailas-cloud/pixsearch/internal/domain/query"
	"github.com/kailas-cloud/pixsearch/internal/transport/pixabay"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

// upstream is the API surface the SDK needs. Replaced in tests.
type upstream interface {
	FetchPage(ctx context.Context, term string, page, pageSize int) (dompage.Page, error)
	HealthCheck(ctx context.Context) error
}

// Client is the pixsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	api      upstream
	renderer *gallery.Renderer
	obs      *observer
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("pixsearch: api key required")
	}

	cfg := &clientConfig{pageSize: dompage.DefaultSize}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.pageSize < 3 || cfg.pageSize > 200 {
		return nil, fmt.Errorf("pixsearch: page size must be between 3 and 200, got %d", cfg.pageSize)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	api := pixabay.NewClient(&pixabay.Config{
		APIKey:      apiKey,
		BaseURL:     cfg.baseURL,
		MaxAttempts: cfg.maxAttempts,
		HTTPClient:  cfg.httpClient,
		Logger:      zap.NewNop(),
	})
	return newClient(api, cfg.pageSize, obs), nil
}

func newClient(api upstream, pageSize int, obs *observer) *Client {
	return &Client{
		api:      api,
		renderer: gallery.NewRenderer(pageSize),
		obs:      obs,
	}
}

// PageSize returns the number of images per page.
func (c *Client) PageSize() int { return c.renderer.PageSize() }

// Search fetches one page of results for term without keeping any state.
func (c *Client) Search(ctx context.Context, term string, page int) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSearch, term, start, len(res.Images), err) }()

	q, err := query.New(term, page)
	if err != nil {
		return Result{}, err
	}

	p, err := c.api.FetchPage(ctx, q.Term(), q.Page(), c.PageSize())
	if err != nil {
		return Result{}, err
	}

	images := make([]Image, 0, p.Len())
	for _, img := range p.Items() {
		images = append(images, imageFromDomain(img))
	}
	return Result{
		Images:         images,
		TotalAvailable: p.TotalAvailable(),
		Page:           q.Page(),
		PageSize:       c.PageSize(),
		HasMore:        p.HasMore(c.PageSize()),
	}, nil
}

// Ping checks that the API answers and accepts the key.
func (c *Client) Ping(ctx context.Context) error {
	return c.api.HealthCheck(ctx)
}

// NewSession starts an idle paged search session.
func (c *Client) NewSession() *Session {
	return &Session{
		inner: sessionuc.New(c.api, c.renderer),
		obs:   c.obs,
	}
}
