// Package website crawls the university website. Discovery starts from
// configured hub pages and collects same-domain links that look like
// academic content; fetching is rate limited so the site never sees a
// burst of requests.
package website

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// Ensure Connector implements both source interfaces.
var (
	_ driven.Crawler     = (*Connector)(nil)
	_ driven.PageFetcher = (*Connector)(nil)
)

// Config controls discovery and fetching.
type Config struct {
	// Seeds are the hub pages discovery starts from.
	Seeds []string

	// IncludeKeywords: a discovered URL must contain at least one.
	IncludeKeywords []string

	// ExcludeKeywords: a discovered URL must contain none.
	ExcludeKeywords []string

	// MaxPages caps the discovered URL set per run.
	MaxPages int

	// Delay is the minimum interval between requests.
	Delay time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Connector discovers and fetches website pages.
type Connector struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// New creates a website connector.
func New(cfg Config, log *zap.Logger) *Connector {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 300
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 1500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; CampusWatcher/1.0)"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Connector{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.Delay), 1),
		log:     log,
	}
}

// Discover fetches each seed and collects matching same-domain links.
// Seeds themselves are always part of the result. A seed that fails to
// fetch contributes nothing but never aborts the run. The result is
// sorted and capped at MaxPages.
func (c *Connector) Discover(ctx context.Context) ([]string, error) {
	if len(c.cfg.Seeds) == 0 {
		return nil, nil
	}

	found := make(map[string]struct{})
	for _, seed := range c.cfg.Seeds {
		found[seed] = struct{}{}
	}

	for _, seed := range c.cfg.Seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		links, err := c.discoverSeed(ctx, seed)
		if err != nil {
			c.log.Warn("seed discovery failed",
				zap.String("seed", seed),
				zap.Error(err))
			continue
		}
		c.log.Info("seed discovered",
			zap.String("seed", seed),
			zap.Int("links", len(links)))

		for _, link := range links {
			found[link] = struct{}{}
		}
	}

	urls := make([]string, 0, len(found))
	for u := range found {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	if len(urls) > c.cfg.MaxPages {
		urls = urls[:c.cfg.MaxPages]
	}
	return urls, nil
}

// Fetch downloads one page. Non-2xx statuses and transport errors wrap
// the scrape sentinel so callers know to keep the previous version.
func (c *Connector) Fetch(ctx context.Context, pageURL string) (*domain.RawPage, error) {
	body, contentType, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = "text/html"
	}

	return &domain.RawPage{
		URL:      pageURL,
		MIMEType: contentType,
		Content:  body,
	}, nil
}

func (c *Connector) discoverSeed(ctx context.Context, seed string) ([]string, error) {
	base, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	body, _, err := c.get(ctx, seed)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse seed %s: %w: %v", seed, domain.ErrScrape, err)
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				if link, ok := c.resolveLink(base, a.Val); ok {
					links = append(links, link)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return links, nil
}

// resolveLink makes href absolute against base and applies the
// same-domain and keyword filters.
func (c *Connector) resolveLink(base *url.URL, href string) (string, bool) {
	resolved, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if resolved.Host != base.Host {
		return "", false
	}

	full := resolved.String()
	for _, kw := range c.cfg.ExcludeKeywords {
		if strings.Contains(full, kw) {
			return "", false
		}
	}
	for _, kw := range c.cfg.IncludeKeywords {
		if strings.Contains(full, kw) {
			return full, true
		}
	}
	return "", false
}

func (c *Connector) get(ctx context.Context, pageURL string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w: %v", pageURL, domain.ErrScrape, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch %s: status %d: %w", pageURL, resp.StatusCode, domain.ErrScrape)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w: %v", pageURL, domain.ErrScrape, err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
