// Package services – RefreshService
//
// This file implements the ingestion engine. A run walks the clipper roster
// (or the cache-filtered subset), fans out across each clipper's configured
// platforms, upserts every observed post together with an append-only metric
// snapshot, and reports a run summary. A single platform's failure never
// aborts the run: it is logged, recorded in the summary, and the remaining
// platforms and clippers proceed.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
	"github.com/clippulse/go-clipper-backend/internal/repo"
	"github.com/clippulse/go-clipper-backend/internal/scrape"
)

// PlatformFailure identifies one clipper/platform pair that produced no data
// this cycle and why. Failures are surfaced in the run summary rather than
// only in logs.
type PlatformFailure struct {
	ClipperID   string          `json:"clipperId"`
	ClipperName string          `json:"clipperName"`
	Platform    domain.Platform `json:"platform"`
	Error       string          `json:"error"`
}

// RefreshSummary reports the outcome of one ingestion run.
type RefreshSummary struct {
	NewPosts          int               `json:"newPosts"`
	UpdatedPosts      int               `json:"updatedPosts"`
	ClippersProcessed int               `json:"clippersProcessed"`
	Cached            bool              `json:"cached"`
	LastRefreshedAt   *time.Time        `json:"lastRefreshedAt"`
	Failures          []PlatformFailure `json:"failures,omitempty"`
}

// RefreshService orchestrates ingestion runs. It owns the refresh cache
// policy (CacheWindow) and the bounded fan-out across clippers (Workers).
// Platform adapters are constructed per run from ScrapeConfig.
type RefreshService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// ScrapeConfig parameterizes the platform adapters. An empty APIKey makes
	// every run fail fast with ErrNotConfigured.
	ScrapeConfig scrape.Config

	// CacheWindow is the minimum age of LastRefreshedAt before an unforced
	// run touches a clipper again.
	CacheWindow time.Duration

	// Timeout bounds a whole run; clippers not reached in time are left for
	// the next scheduled run. Zero disables the bound.
	Timeout time.Duration

	// Workers bounds concurrent clipper processing; 1 (the default) processes
	// the roster sequentially. Pagination within one identifier is always
	// sequential regardless of this setting.
	Workers int

	// Test seams.
	forPlatform func(domain.Platform, scrape.Config) (scrape.Scraper, error)
	now         func() time.Time
}

// NewRefreshService constructs a RefreshService with the reference defaults:
// a one-hour cache window and sequential clipper processing.
func NewRefreshService(db *gorm.DB, cfg scrape.Config) *RefreshService {
	return &RefreshService{
		DB:           db,
		ScrapeConfig: cfg,
		CacheWindow:  time.Hour,
		Workers:      1,
		forPlatform:  scrape.ForPlatform,
		now:          time.Now,
	}
}

// Run executes one ingestion pass. When force is false, only clippers whose
// LastRefreshedAt is null or older than the cache window are processed; if
// none qualify the run returns immediately with Cached set. When force is
// true the whole roster is processed.
func (s *RefreshService) Run(ctx context.Context, force bool) (*RefreshSummary, error) {
	if s.ScrapeConfig.APIKey == "" {
		refreshRuns.WithLabelValues("error").Inc()
		return nil, ErrNotConfigured
	}

	now := s.clock()()

	var (
		clippers []domain.Clipper
		err      error
	)
	if force {
		clippers, err = repo.ListClippers(ctx, s.DB, "")
	} else {
		clippers, err = repo.ListStaleClippers(ctx, s.DB, now.Add(-s.CacheWindow))
	}
	if err != nil {
		return nil, err
	}

	if len(clippers) == 0 {
		_, last, _, err := repo.RosterStats(ctx, s.DB)
		if err != nil {
			return nil, err
		}
		refreshRuns.WithLabelValues("cached").Inc()
		return &RefreshSummary{Cached: true, LastRefreshedAt: last}, nil
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	summary := &RefreshSummary{}
	var mu sync.Mutex

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	g := &errgroup.Group{}
	g.SetLimit(workers)

	for i := range clippers {
		clipper := clippers[i]
		g.Go(func() error {
			// Clippers not reached before the deadline are simply left for
			// the next run; completed upserts stay valid.
			if ctx.Err() != nil {
				return nil
			}
			res := s.processClipper(ctx, &clipper)

			mu.Lock()
			summary.NewPosts += res.newPosts
			summary.UpdatedPosts += res.updatedPosts
			summary.Failures = append(summary.Failures, res.failures...)
			if res.processed {
				summary.ClippersProcessed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	refreshRuns.WithLabelValues("completed").Inc()
	refreshedAt := s.clock()().UTC()
	summary.LastRefreshedAt = &refreshedAt
	return summary, nil
}

// clipperResult carries one clipper's contribution to the run summary.
type clipperResult struct {
	newPosts     int
	updatedPosts int
	failures     []PlatformFailure
	processed    bool
}

// processClipper ingests every configured platform of one clipper. Fetch
// failures are isolated per platform; a store write failure is fatal to this
// clipper's cycle and leaves its LastRefreshedAt untouched so the next run
// retries it.
func (s *RefreshService) processClipper(ctx context.Context, clipper *domain.Clipper) clipperResult {
	var res clipperResult
	storeFailed := false

	for _, platform := range domain.Platforms() {
		identifier := clipper.Identifier(platform)
		if identifier == "" {
			continue
		}

		scraper, err := s.forPlatform(platform, s.ScrapeConfig)
		if err != nil {
			res.failures = append(res.failures, failure(clipper, platform, err))
			continue
		}

		s.backfillProfile(ctx, clipper, scraper, identifier)

		posts, err := scraper.FetchRecentPosts(ctx, identifier)
		if err != nil {
			log.Warn().
				Err(err).
				Str("clipper", clipper.Name).
				Str("platform", platform.String()).
				Msg("platform fetch failed")
			res.failures = append(res.failures, failure(clipper, platform, err))
			platformFailures.WithLabelValues(platform.String()).Inc()
			continue
		}

		for i := range posts {
			isNew, err := s.upsertWithSnapshot(ctx, clipper.ID, platform, &posts[i])
			if err != nil {
				log.Error().
					Err(err).
					Str("clipper", clipper.Name).
					Str("platform", platform.String()).
					Str("post_url", posts[i].PostURL).
					Msg("store write failed")
				res.failures = append(res.failures, failure(clipper, platform, err))
				platformFailures.WithLabelValues(platform.String()).Inc()
				storeFailed = true
				break
			}
			if isNew {
				res.newPosts++
				postsIngested.WithLabelValues(platform.String(), "new").Inc()
			} else {
				res.updatedPosts++
				postsIngested.WithLabelValues(platform.String(), "updated").Inc()
			}
		}
		if storeFailed {
			break
		}
	}

	if storeFailed {
		return res
	}

	// A clipper whose platforms all failed at the fetch boundary is still
	// marked refreshed, so a persistently broken identifier is not hammered
	// every cycle.
	if err := repo.MarkRefreshed(ctx, s.DB, clipper.ID, s.clock()().UTC()); err != nil {
		log.Error().Err(err).Str("clipper", clipper.Name).Msg("mark refreshed failed")
		return res
	}
	res.processed = true
	return res
}

// upsertWithSnapshot resolves the observation to one Post row by its URL,
// overwrites the mutable fields (or creates the row), and appends exactly one
// snapshot. Two racing observers of the same new URL are resolved by the
// store's unique index: the loser turns into the update path.
func (s *RefreshService) upsertWithSnapshot(ctx context.Context, clipperID string, platform domain.Platform, obs *scrape.NormalizedPost) (isNew bool, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.GetPostByURL(ctx, tx, obs.PostURL)
		switch {
		case err == nil:
			isNew = false
			if err := repo.UpdatePostMetrics(ctx, tx, existing.ID,
				obs.Views, obs.Likes, obs.Comments, obs.Shares, obs.Title, obs.Thumbnail); err != nil {
				return err
			}
			return s.appendSnapshot(ctx, tx, existing.ID, obs)

		case errors.Is(err, repo.ErrNotFound):
			created, err := repo.CreatePost(ctx, tx, &domain.Post{
				ClipperID:  clipperID,
				Platform:   platform,
				PostURL:    obs.PostURL,
				PlatformID: obs.PostID,
				Title:      obs.Title,
				Thumbnail:  obs.Thumbnail,
				Views:      obs.Views,
				Likes:      obs.Likes,
				Comments:   obs.Comments,
				Shares:     obs.Shares,
				PostedAt:   obs.PostedAt,
			})
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race: another observer created the row first.
				loser, err := repo.GetPostByURL(ctx, tx, obs.PostURL)
				if err != nil {
					return err
				}
				isNew = false
				if err := repo.UpdatePostMetrics(ctx, tx, loser.ID,
					obs.Views, obs.Likes, obs.Comments, obs.Shares, obs.Title, obs.Thumbnail); err != nil {
					return err
				}
				return s.appendSnapshot(ctx, tx, loser.ID, obs)
			}
			if err != nil {
				return err
			}
			isNew = true
			return s.appendSnapshot(ctx, tx, created.ID, obs)

		default:
			return err
		}
	})
	return isNew, err
}

// appendSnapshot records the just-observed counters at the current time.
func (s *RefreshService) appendSnapshot(ctx context.Context, tx *gorm.DB, postID string, obs *scrape.NormalizedPost) error {
	_, err := repo.AppendSnapshot(ctx, tx, postID,
		obs.Views, obs.Likes, obs.Comments, obs.Shares, s.clock()().UTC())
	return err
}

// backfillProfile opportunistically sets a clipper's profile picture from
// adapters that expose profile info. Failures are logged only; they never
// affect the run outcome.
func (s *RefreshService) backfillProfile(ctx context.Context, clipper *domain.Clipper, scraper scrape.Scraper, identifier string) {
	if clipper.ProfilePicture != "" {
		return
	}
	pf, ok := scraper.(scrape.ProfileFetcher)
	if !ok {
		return
	}
	profile, err := pf.FetchProfile(ctx, identifier)
	if err != nil {
		log.Warn().Err(err).Str("clipper", clipper.Name).Msg("profile backfill failed")
		return
	}
	if profile == nil || profile.ProfilePicture == "" {
		return
	}
	if err := repo.SetProfilePicture(ctx, s.DB, clipper.ID, profile.ProfilePicture); err != nil {
		log.Warn().Err(err).Str("clipper", clipper.Name).Msg("profile backfill write failed")
		return
	}
	clipper.ProfilePicture = profile.ProfilePicture
}

// clock returns the time source, defaulting to time.Now for zero-value
// construction.
func (s *RefreshService) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}

// failure builds a summary entry for one failed clipper/platform pair.
func failure(c *domain.Clipper, p domain.Platform, err error) PlatformFailure {
	return PlatformFailure{
		ClipperID:   c.ID,
		ClipperName: c.Name,
		Platform:    p,
		Error:       err.Error(),
	}
}
