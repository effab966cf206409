package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
	"github.com/clippulse/go-clipper-backend/internal/hashtag"
	"github.com/clippulse/go-clipper-backend/internal/repo"
)

// defaultHashtagLimit bounds the leaderboard when the caller gives no limit.
const defaultHashtagLimit = 50

// trendWindow is the width of each of the two comparison windows used to
// compute a hashtag's week-over-week trend.
const trendWindow = 7 * 24 * time.Hour

// HashtagClipperStats is the per-group breakdown inside one hashtag row.
// Clippers without a group are pooled under "Unknown".
type HashtagClipperStats struct {
	ClipperGroup string `json:"clipperGroup"`
	PostCount    int    `json:"postCount"`
	TotalViews   int64  `json:"totalViews"`
}

// HashtagTopPost identifies the highest-viewed post carrying a hashtag.
type HashtagTopPost struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	PostURL string `json:"postUrl"`
	Views   int64  `json:"views"`
}

// HashtagStats is one row of the hashtag leaderboard. Trend is the percentage
// change in views between the last seven days and the seven days before that;
// it is nil when the earlier window has no views, since a ratio against zero
// is meaningless rather than infinite.
type HashtagStats struct {
	Tag           string                `json:"tag"`
	PostCount     int                   `json:"postCount"`
	TotalViews    int64                 `json:"totalViews"`
	TotalLikes    int64                 `json:"totalLikes"`
	TotalComments int64                 `json:"totalComments"`
	TotalShares   int64                 `json:"totalShares"`
	AvgViews      int64                 `json:"avgViews"`
	Trend         *float64              `json:"trend"`
	TopPost       *HashtagTopPost       `json:"topPost"`
	ByClipper     []HashtagClipperStats `json:"byClipper"`
}

// HashtagQuery narrows and shapes the hashtag leaderboard.
type HashtagQuery struct {
	From      *time.Time
	To        *time.Time
	ClipperID string
	Group     string
	Platform  string
	SortBy    string
	Limit     int
}

// HashtagService aggregates posts into a hashtag leaderboard.
type HashtagService struct {
	DB *gorm.DB

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewHashtagService constructs a HashtagService.
func NewHashtagService(db *gorm.DB) *HashtagService {
	return &HashtagService{DB: db, now: time.Now}
}

func (s *HashtagService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// hashtagAccum is the mutable per-tag accumulator used during the first pass.
type hashtagAccum struct {
	tag           string
	postCount     int
	views         int64
	likes         int64
	comments      int64
	shares        int64
	currentViews  int64
	previousViews int64
	topPost       *domain.Post
	byClipper     map[string]*HashtagClipperStats
	clipperOrder  []string
}

// List builds the hashtag leaderboard. Aggregation runs in two explicit
// passes: the first walks every post once and accumulates per-tag totals
// (synonyms folded by hashtag.Normalize, each post counted at most once per
// tag), the second materializes sorted rows. Noise tags are excluded.
func (s *HashtagService) List(ctx context.Context, q HashtagQuery) ([]HashtagStats, error) {
	if err := validateRange(q.From, q.To); err != nil {
		return nil, err
	}
	platform, err := parsePlatformFilter(q.Platform)
	if err != nil {
		return nil, err
	}
	sortBy := strings.TrimSpace(q.SortBy)
	if sortBy == "" {
		sortBy = "views"
	}
	switch sortBy {
	case "views", "posts", "avgViews", "trend":
	default:
		return nil, ErrInvalidSortBy
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultHashtagLimit
	}

	posts, err := repo.ListPosts(ctx, s.DB, repo.PostFilter{
		From:      q.From,
		To:        q.To,
		ClipperID: q.ClipperID,
		Group:     q.Group,
		Platform:  platform,
	})
	if err != nil {
		return nil, err
	}

	nowTS := s.clock()
	currentStart := nowTS.Add(-trendWindow)
	previousStart := nowTS.Add(-2 * trendWindow)

	// Pass one: accumulate.
	accums := make(map[string]*hashtagAccum)
	order := make([]string, 0)
	for i := range posts {
		p := &posts[i]
		tags := hashtag.Extract(p.Title)
		for _, tag := range tags {
			if hashtag.IsNoise(tag) {
				continue
			}
			a := accums[tag]
			if a == nil {
				a = &hashtagAccum{tag: tag, byClipper: make(map[string]*HashtagClipperStats)}
				accums[tag] = a
				order = append(order, tag)
			}
			a.postCount++
			a.views += p.Views
			a.likes += p.Likes
			a.comments += p.Comments
			a.shares += p.Shares
			if a.topPost == nil || p.Views > a.topPost.Views {
				a.topPost = p
			}
			if p.PostedAt != nil {
				switch {
				case !p.PostedAt.Before(currentStart):
					a.currentViews += p.Views
				case !p.PostedAt.Before(previousStart):
					a.previousViews += p.Views
				}
			}
			group := p.Clipper.ClipperGroup
			if group == "" {
				group = "Unknown"
			}
			bc := a.byClipper[group]
			if bc == nil {
				bc = &HashtagClipperStats{ClipperGroup: group}
				a.byClipper[group] = bc
				a.clipperOrder = append(a.clipperOrder, group)
			}
			bc.PostCount++
			bc.TotalViews += p.Views
		}
	}

	// Pass two: materialize rows.
	rows := make([]HashtagStats, 0, len(order))
	for _, tag := range order {
		a := accums[tag]
		row := HashtagStats{
			Tag:           a.tag,
			PostCount:     a.postCount,
			TotalViews:    a.views,
			TotalLikes:    a.likes,
			TotalComments: a.comments,
			TotalShares:   a.shares,
			AvgViews:      int64(math.Round(float64(a.views) / float64(a.postCount))),
			Trend:         trendPercent(a.currentViews, a.previousViews),
		}
		if a.topPost != nil {
			row.TopPost = &HashtagTopPost{
				ID:      a.topPost.ID,
				Title:   a.topPost.Title,
				PostURL: a.topPost.PostURL,
				Views:   a.topPost.Views,
			}
		}
		row.ByClipper = make([]HashtagClipperStats, 0, len(a.clipperOrder))
		for _, id := range a.clipperOrder {
			row.ByClipper = append(row.ByClipper, *a.byClipper[id])
		}
		sort.SliceStable(row.ByClipper, func(i, j int) bool {
			return row.ByClipper[i].TotalViews > row.ByClipper[j].TotalViews
		})
		rows = append(rows, row)
	}

	sortHashtagRows(rows, sortBy)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// trendPercent computes the week-over-week percentage change, nil when the
// previous window is empty.
func trendPercent(current, previous int64) *float64 {
	if previous == 0 {
		return nil
	}
	v := (float64(current) - float64(previous)) / float64(previous) * 100
	v = math.Round(v*10) / 10
	return &v
}

// sortHashtagRows orders rows by the requested key, descending, stably. Rows
// without a trend sort after rows with one when sorting by trend.
func sortHashtagRows(rows []HashtagStats, sortBy string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		switch sortBy {
		case "posts":
			return a.PostCount > b.PostCount
		case "avgViews":
			return a.AvgViews > b.AvgViews
		case "trend":
			switch {
			case a.Trend == nil:
				return false
			case b.Trend == nil:
				return true
			default:
				return *a.Trend > *b.Trend
			}
		default:
			return a.TotalViews > b.TotalViews
		}
	})
}

// parsePlatformFilter validates an optional platform query value.
func parsePlatformFilter(s string) (domain.Platform, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	p, ok := domain.ParsePlatform(s)
	if !ok {
		return "", ErrInvalidPlatform
	}
	return p, nil
}
