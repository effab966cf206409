package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/repo"
)

// defaultActivitySpan is the range covered when the caller gives no dates.
const defaultActivitySpan = 365 * 24 * time.Hour

// ActivityPost is a short per-post summary inside a calendar bucket.
type ActivityPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Views       int64  `json:"views"`
	ClipperName string `json:"clipperName"`
	Platform    string `json:"platform"`
}

// ActivityDay is one calendar-day bucket. Days without posts still appear,
// with zero counts, so callers can render a complete grid.
type ActivityDay struct {
	Date       string         `json:"date"`
	PostCount  int            `json:"postCount"`
	TotalViews int64          `json:"totalViews"`
	Posts      []ActivityPost `json:"posts"`
}

// ActivityQuery narrows the calendar report.
type ActivityQuery struct {
	From      *time.Time
	To        *time.Time
	ClipperID string
	Group     string
	Platform  string
}

// ActivityService buckets posts into a gap-filled per-day calendar.
type ActivityService struct {
	DB *gorm.DB

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewActivityService constructs an ActivityService.
func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db, now: time.Now}
}

func (s *ActivityService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// List returns one bucket per UTC calendar day from the start to the end of
// the requested range (default: the trailing year), in chronological order.
// Posts without a publish date are excluded, since they cannot be placed on
// the calendar.
func (s *ActivityService) List(ctx context.Context, q ActivityQuery) ([]ActivityDay, error) {
	if err := validateRange(q.From, q.To); err != nil {
		return nil, err
	}
	platform, err := parsePlatformFilter(q.Platform)
	if err != nil {
		return nil, err
	}

	end := s.clock()
	if q.To != nil {
		end = q.To.UTC()
	}
	start := end.Add(-defaultActivitySpan)
	if q.From != nil {
		start = q.From.UTC()
	}
	startDay := truncateDay(start)
	endDay := truncateDay(end)

	posts, err := repo.ListPosts(ctx, s.DB, repo.PostFilter{
		From:       &start,
		To:         &end,
		ClipperID:  q.ClipperID,
		Group:      q.Group,
		Platform:   platform,
		PostedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*ActivityDay)
	for i := range posts {
		p := &posts[i]
		key := p.PostedAt.UTC().Format("2006-01-02")
		b := buckets[key]
		if b == nil {
			b = &ActivityDay{Date: key}
			buckets[key] = b
		}
		title := p.Title
		if title == "" {
			title = "Untitled"
		}
		b.PostCount++
		b.TotalViews += p.Views
		b.Posts = append(b.Posts, ActivityPost{
			ID:          p.ID,
			Title:       title,
			Views:       p.Views,
			ClipperName: p.Clipper.Name,
			Platform:    string(p.Platform),
		})
	}

	days := make([]ActivityDay, 0, int(endDay.Sub(startDay).Hours()/24)+1)
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if b := buckets[key]; b != nil {
			days = append(days, *b)
			continue
		}
		days = append(days, ActivityDay{Date: key, Posts: []ActivityPost{}})
	}
	return days, nil
}

// truncateDay drops the time-of-day component, keeping the UTC date.
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
