package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/repo"
)

// FrequencyStats is one row of the posting-cadence report. PostsPerWeek is
// the rate since the entity's first post (never less than one week of
// history), rounded to one decimal place.
type FrequencyStats struct {
	Key            string     `json:"key"`
	Name           string     `json:"name"`
	ClipperGroup   string     `json:"clipperGroup"`
	Platform       string     `json:"platform,omitempty"`
	PostCount      int        `json:"postCount"`
	TotalViews     int64      `json:"totalViews"`
	AvgViews       int64      `json:"avgViews"`
	DaysSinceFirst int        `json:"daysSinceFirst"`
	PostsPerWeek   float64    `json:"postsPerWeek"`
	FirstPostedAt  *time.Time `json:"firstPostedAt"`
	LastPostedAt   *time.Time `json:"lastPostedAt"`
}

// FrequencyQuery narrows and shapes the cadence report.
type FrequencyQuery struct {
	From     *time.Time
	To       *time.Time
	Group    string
	Platform string
	// GroupBy selects the aggregation key: "page" (per clipper and platform,
	// the default) or "clipper" (per clipper group).
	GroupBy string
}

// FrequencyService reports how often each page or group publishes.
type FrequencyService struct {
	DB *gorm.DB

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewFrequencyService constructs a FrequencyService.
func NewFrequencyService(db *gorm.DB) *FrequencyService {
	return &FrequencyService{DB: db, now: time.Now}
}

func (s *FrequencyService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// frequencyAccum accumulates one entity's posts during the first pass.
type frequencyAccum struct {
	key      string
	name     string
	group    string
	platform string
	count    int
	views    int64
	first    *time.Time
	last     *time.Time
}

// List builds the cadence report, one row per page or per clipper group,
// sorted by total views descending. Posts without a publish date contribute
// to counts and views but not to the active span.
func (s *FrequencyService) List(ctx context.Context, q FrequencyQuery) ([]FrequencyStats, error) {
	if err := validateRange(q.From, q.To); err != nil {
		return nil, err
	}
	platform, err := parsePlatformFilter(q.Platform)
	if err != nil {
		return nil, err
	}
	groupBy := strings.TrimSpace(q.GroupBy)
	if groupBy == "" {
		groupBy = "page"
	}
	if groupBy != "page" && groupBy != "clipper" {
		return nil, ErrInvalidGroupBy
	}

	posts, err := repo.ListPosts(ctx, s.DB, repo.PostFilter{
		From:     q.From,
		To:       q.To,
		Group:    q.Group,
		Platform: platform,
	})
	if err != nil {
		return nil, err
	}

	accums := make(map[string]*frequencyAccum)
	order := make([]string, 0)
	for i := range posts {
		p := &posts[i]
		// A page is one clipper on one platform; the same account's YouTube
		// and TikTok cadences are reported separately.
		key := p.ClipperID + "-" + string(p.Platform)
		name := p.Clipper.Name
		rowPlatform := string(p.Platform)
		if groupBy == "clipper" {
			key = p.Clipper.ClipperGroup
			if key == "" {
				key = "Unknown"
			}
			name = key
			rowPlatform = ""
		}
		a := accums[key]
		if a == nil {
			a = &frequencyAccum{key: key, name: name, group: p.Clipper.ClipperGroup, platform: rowPlatform}
			accums[key] = a
			order = append(order, key)
		}
		a.count++
		a.views += p.Views
		if p.PostedAt != nil {
			t := p.PostedAt.UTC()
			if a.first == nil || t.Before(*a.first) {
				a.first = &t
			}
			if a.last == nil || t.After(*a.last) {
				a.last = &t
			}
		}
	}

	now := s.clock()
	rows := make([]FrequencyStats, 0, len(order))
	for _, key := range order {
		a := accums[key]
		days := daysSinceFirst(now, a.first)
		rows = append(rows, FrequencyStats{
			Key:            a.key,
			Name:           a.name,
			ClipperGroup:   a.group,
			Platform:       a.platform,
			PostCount:      a.count,
			TotalViews:     a.views,
			AvgViews:       int64(math.Round(float64(a.views) / float64(a.count))),
			DaysSinceFirst: days,
			PostsPerWeek:   postsPerWeek(a.count, days),
			FirstPostedAt:  a.first,
			LastPostedAt:   a.last,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalViews > rows[j].TotalViews })
	return rows, nil
}

// daysSinceFirst counts whole days from the first post to now, rounded up,
// with a one-day floor.
func daysSinceFirst(now time.Time, first *time.Time) int {
	if first == nil {
		return 0
	}
	days := int(math.Ceil(now.Sub(*first).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// postsPerWeek computes the publish rate since the first post. The week
// count has a one-week floor so that a brand-new page is not reported at an
// absurd extrapolated rate.
func postsPerWeek(count, days int) float64 {
	if count == 0 || days == 0 {
		return 0
	}
	weeks := float64(days) / 7
	if weeks < 1 {
		weeks = 1
	}
	return math.Round(float64(count)/weeks*10) / 10
}
