// Package scrape downloads page HTML with retry and rotating user agents,
// and snapshots what it fetched for reproducible re-analysis.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/pkg/utils"
)

// maxBodySize caps downloaded pages at 10 MB.
const maxBodySize = 10 << 20

// Scraper fetches page HTML. Safe for concurrent use.
type Scraper struct {
	client     *http.Client
	userAgents []string
	attempts   int
	retryDelay time.Duration
	logger     *zap.Logger
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithLogger sets a logger for retry warnings.
func WithLogger(l *zap.Logger) ScraperOption {
	return func(s *Scraper) { s.logger = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ScraperOption {
	return func(s *Scraper) { s.client = c }
}

// NewScraper returns a Scraper configured from cfg.
func NewScraper(cfg *config.ScrapeConfig, opts ...ScraperOption) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
		userAgents: cfg.UserAgents,
		attempts:   cfg.RetryAttempts,
		retryDelay: time.Duration(cfg.RetryDelayMS) * time.Millisecond,
	}
	if s.attempts < 1 {
		s.attempts = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads the page at rawURL and returns its HTML. Failed attempts
// rotate to the next user agent before retrying.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			if s.logger != nil {
				s.logger.Warn("fetch failed, retrying",
					zap.String("url", rawURL),
					zap.Int("attempt", attempt),
					zap.Error(lastErr))
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		body, err := s.fetchOnce(ctx, rawURL, s.userAgent(attempt))
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", lastErr
		}
	}
	return "", fmt.Errorf("fetch %s after %d attempts: %w", rawURL, s.attempts, lastErr)
}

func (s *Scraper) fetchOnce(ctx context.Context, rawURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (s *Scraper) userAgent(attempt int) string {
	if len(s.userAgents) == 0 {
		return ""
	}
	return s.userAgents[attempt%len(s.userAgents)]
}

// SaveSnapshot writes fetched HTML to a versioned file named after the role
// and page, so successive runs never overwrite earlier snapshots. Returns
// the path written.
func SaveSnapshot(dir, role, rawURL, content string) (string, error) {
	base := snapshotBase(role, rawURL)
	path, err := utils.VersionedPath(dir, base, ".html")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// snapshotBase builds "role-domain" or "role-domain-page-slug" from the URL.
func snapshotBase(role, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Sprintf("%s-%s", role, utils.Slugify(rawURL))
	}
	domain := strings.TrimPrefix(u.Hostname(), "www.")
	pagePath := strings.Trim(u.Path, "/")
	if pagePath == "" {
		return fmt.Sprintf("%s-%s", role, domain)
	}
	return fmt.Sprintf("%s-%s-%s", role, domain, utils.Slugify(pagePath))
}
