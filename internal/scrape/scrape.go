// Package scrape implements the platform adapters that pull post metrics from
// the external content services. Each adapter normalizes the upstream payload
// into the common NormalizedPost shape and applies the platform's pagination,
// recency-cutoff, and rate-limit courtesy rules.
//
// Error semantics at the adapter boundary:
//   - Transport failures and non-2xx upstream responses are returned as errors
//     so the ingestion engine can record the failing clipper/platform pair.
//   - Semantically empty results (unknown handle, account with no content) are
//     not errors; the adapter returns an empty slice.
//   - A missing API credential is a configuration failure (ErrNotConfigured)
//     and must be checked before any adapter is constructed.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

// ErrNotConfigured indicates the shared scraping credential is absent. It is
// surfaced before any upstream call is attempted.
var ErrNotConfigured = errors.New("scraping not configured: RAPIDAPI_KEY is missing")

// NormalizedPost is the platform-independent record every adapter produces.
// Counters the upstream API does not expose default to zero (e.g. shares on
// YouTube and Instagram, views on Instagram photo posts).
type NormalizedPost struct {
	PostID    string
	PostURL   string
	Title     string
	Thumbnail string
	Views     int64
	Likes     int64
	Comments  int64
	Shares    int64
	PostedAt  *time.Time
}

// Profile carries the optional account-level data some platforms expose.
type Profile struct {
	ProfilePicture string
}

// Scraper is the capability set implemented per platform.
//
// FetchRecentPosts lists an account's recent posts (bounded by the adapter's
// page ceiling and recency cutoff). FetchPostMetrics refreshes a single post
// by URL and returns nil when the post cannot be resolved.
type Scraper interface {
	FetchRecentPosts(ctx context.Context, identifier string) ([]NormalizedPost, error)
	FetchPostMetrics(ctx context.Context, postURL string) (*NormalizedPost, error)
}

// ProfileFetcher is implemented by adapters that can resolve account profile
// info (currently TikTok only).
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, identifier string) (*Profile, error)
}

// Config parameterizes adapter construction. Zero values are replaced with
// the defaults below.
type Config struct {
	// APIKey is the shared RapidAPI credential. Required.
	APIKey string
	// MaxPages bounds paginated listings per identifier.
	MaxPages int
	// RecencyCutoff stops pagination once posts older than now-cutoff appear;
	// older posts are assumed stable and not worth re-scraping.
	RecencyCutoff time.Duration
	// PageDelay is the courtesy delay between consecutive pages for one
	// identifier. It is not applied between different identifiers.
	PageDelay time.Duration
	// Timeout caps each upstream HTTP call.
	Timeout time.Duration
}

const (
	defaultMaxPages      = 10
	defaultRecencyCutoff = 6 * 7 * 24 * time.Hour // six weeks
	defaultPageDelay     = 200 * time.Millisecond
	defaultTimeout       = 30 * time.Second
)

// withDefaults fills unset Config fields.
func (c Config) withDefaults() Config {
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	if c.RecencyCutoff <= 0 {
		c.RecencyCutoff = defaultRecencyCutoff
	}
	if c.PageDelay < 0 {
		c.PageDelay = defaultPageDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// ForPlatform returns the adapter for the given platform. The platform set is
// closed; an unknown value is a programming error and yields an error rather
// than a panic so the ingestion engine can isolate it like any other failure.
func ForPlatform(p domain.Platform, cfg Config) (Scraper, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	cfg = cfg.withDefaults()
	switch p {
	case domain.PlatformYouTube:
		return NewYouTube(cfg), nil
	case domain.PlatformTikTok:
		return NewTikTok(cfg), nil
	case domain.PlatformInstagram:
		return NewInstagram(cfg), nil
	}
	return nil, fmt.Errorf("unsupported platform %q", p)
}

// newClient builds the resty client shared by one adapter: base URL, RapidAPI
// auth headers, and per-call timeout.
func newClient(host string, cfg Config) *resty.Client {
	return resty.New().
		SetBaseURL("https://" + host).
		SetHeader("X-RapidAPI-Key", cfg.APIKey).
		SetHeader("X-RapidAPI-Host", host).
		SetTimeout(cfg.Timeout)
}

// pageDelay sleeps between pages of one identifier's listing, honoring
// context cancellation.
func pageDelay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// parseCount converts the string counters some upstream APIs return. Missing
// or malformed values count as zero.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// upstreamError normalizes a non-2xx response into an error carrying the
// status code for logs.
func upstreamError(platform domain.Platform, resp *resty.Response) error {
	return fmt.Errorf("%s upstream returned status %d", platform, resp.StatusCode())
}
