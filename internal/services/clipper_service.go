// Package services – ClipperService
//
// This file implements roster management and the read-side leaderboards.
// Listing aggregates each clipper's post counters (raw and payable) with an
// explicit two-pass scheme: one pass accumulates per-clipper totals, a second
// pass produces stably sorted output, so ordering is a contract rather than
// an artifact of map iteration.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
	"github.com/clippulse/go-clipper-backend/internal/repo"
)

// snapshotsPerPost caps the history returned per post in detail views.
const snapshotsPerPost = 30

// CreateClipperInput carries the fields accepted when registering a clipper.
type CreateClipperInput struct {
	Name              string
	ClipperGroup      string
	YouTubeChannel    string
	TikTokUsername    string
	InstagramUsername string
}

// UpdateClipperInput carries optional field updates; nil means "leave as is".
type UpdateClipperInput struct {
	Name              *string
	ClipperGroup      *string
	YouTubeChannel    *string
	TikTokUsername    *string
	InstagramUsername *string
}

// ClipperStats is one leaderboard row for a single page (clipper).
type ClipperStats struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	ClipperGroup      string     `json:"clipperGroup"`
	YouTubeChannel    string     `json:"youtubeChannel"`
	TikTokUsername    string     `json:"tiktokUsername"`
	InstagramUsername string     `json:"instagramUsername"`
	ProfilePicture    string     `json:"profilePicture"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastRefreshedAt   *time.Time `json:"lastRefreshedAt"`
	TotalViews        int64      `json:"totalViews"`
	TotalPayableViews int64      `json:"totalPayableViews"`
	TotalLikes        int64      `json:"totalLikes"`
	TotalComments     int64      `json:"totalComments"`
	TotalShares       int64      `json:"totalShares"`
	PostCount         int        `json:"postCount"`
}

// GroupStats consolidates the pages sharing one clipper group.
type GroupStats struct {
	ClipperGroup      string         `json:"clipperGroup"`
	Pages             []ClipperStats `json:"pages"`
	TotalViews        int64          `json:"totalViews"`
	TotalPayableViews int64          `json:"totalPayableViews"`
	TotalLikes        int64          `json:"totalLikes"`
	TotalComments     int64          `json:"totalComments"`
	TotalShares       int64          `json:"totalShares"`
	PostCount         int            `json:"postCount"`
}

// PostDetail is a post enriched with its payable projection and recent
// snapshot history.
type PostDetail struct {
	domain.Post
	PayableViews int64                   `json:"payableViews"`
	Snapshots    []domain.MetricSnapshot `json:"snapshots"`
}

// ClipperDetail is one clipper with its posts and aggregate totals.
type ClipperDetail struct {
	domain.Clipper
	Posts             []PostDetail `json:"posts"`
	TotalViews        int64        `json:"totalViews"`
	TotalPayableViews int64        `json:"totalPayableViews"`
	TotalLikes        int64        `json:"totalLikes"`
	TotalComments     int64        `json:"totalComments"`
	TotalShares       int64        `json:"totalShares"`
}

// ListClippersQuery narrows and shapes the leaderboard.
type ListClippersQuery struct {
	Group   string
	From    *time.Time
	To      *time.Time
	Grouped bool
}

// ClipperService provides roster CRUD and leaderboard reads.
type ClipperService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewClipperService constructs a ClipperService.
func NewClipperService(db *gorm.DB) *ClipperService {
	return &ClipperService{DB: db}
}

// Create registers a clipper. When no group is given it is derived from the
// "Group - Page" naming convention (the name itself when no separator).
func (s *ClipperService) Create(ctx context.Context, in CreateClipperInput) (*domain.Clipper, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	group := strings.TrimSpace(in.ClipperGroup)
	if group == "" {
		group = deriveGroup(name)
	}
	return repo.CreateClipper(ctx, s.DB, &domain.Clipper{
		Name:              name,
		ClipperGroup:      group,
		YouTubeChannel:    strings.TrimSpace(in.YouTubeChannel),
		TikTokUsername:    strings.TrimSpace(in.TikTokUsername),
		InstagramUsername: strings.TrimSpace(in.InstagramUsername),
	})
}

// Update applies the non-nil fields of in to a clipper.
func (s *ClipperService) Update(ctx context.Context, id string, in UpdateClipperInput) (*domain.Clipper, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		updates["name"] = name
	}
	if in.ClipperGroup != nil {
		updates["clipper_group"] = strings.TrimSpace(*in.ClipperGroup)
	}
	if in.YouTubeChannel != nil {
		updates["youtube_channel"] = strings.TrimSpace(*in.YouTubeChannel)
	}
	if in.TikTokUsername != nil {
		updates["tiktok_username"] = strings.TrimSpace(*in.TikTokUsername)
	}
	if in.InstagramUsername != nil {
		updates["instagram_username"] = strings.TrimSpace(*in.InstagramUsername)
	}
	if len(updates) > 0 {
		if err := repo.UpdateClipper(ctx, s.DB, id, updates); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrClipperNotFound
			}
			return nil, err
		}
	}
	c, err := repo.GetClipper(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClipperNotFound
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a clipper; owned posts and snapshots cascade.
func (s *ClipperService) Delete(ctx context.Context, id string) error {
	if err := repo.DeleteClipper(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrClipperNotFound
		}
		return err
	}
	return nil
}

// List returns the leaderboard: every clipper (also those without posts in
// range) with aggregated totals, sorted by total views descending. Grouped
// queries consolidate pages by clipper group; ungrouped output keeps each
// page distinct. Exactly one of the two result slices is non-nil.
func (s *ClipperService) List(ctx context.Context, q ListClippersQuery) ([]ClipperStats, []GroupStats, error) {
	if err := validateRange(q.From, q.To); err != nil {
		return nil, nil, err
	}

	clippers, err := repo.ListClippers(ctx, s.DB, q.Group)
	if err != nil {
		return nil, nil, err
	}
	posts, err := repo.ListPosts(ctx, s.DB, repo.PostFilter{From: q.From, To: q.To, Group: q.Group})
	if err != nil {
		return nil, nil, err
	}

	// First pass: accumulate totals keyed by clipper.
	type totals struct {
		views, payable, likes, comments, shares int64
		count                                   int
	}
	byClipper := make(map[string]*totals, len(clippers))
	for i := range posts {
		p := &posts[i]
		t := byClipper[p.ClipperID]
		if t == nil {
			t = &totals{}
			byClipper[p.ClipperID] = t
		}
		t.views += p.Views
		t.payable += p.PayableViews()
		t.likes += p.Likes
		t.comments += p.Comments
		t.shares += p.Shares
		t.count++
	}

	// Second pass: one row per clipper, in roster order, then sort.
	rows := make([]ClipperStats, 0, len(clippers))
	for i := range clippers {
		c := &clippers[i]
		row := ClipperStats{
			ID:                c.ID,
			Name:              c.Name,
			ClipperGroup:      c.ClipperGroup,
			YouTubeChannel:    c.YouTubeChannel,
			TikTokUsername:    c.TikTokUsername,
			InstagramUsername: c.InstagramUsername,
			ProfilePicture:    c.ProfilePicture,
			CreatedAt:         c.CreatedAt,
			LastRefreshedAt:   c.LastRefreshedAt,
		}
		if t := byClipper[c.ID]; t != nil {
			row.TotalViews = t.views
			row.TotalPayableViews = t.payable
			row.TotalLikes = t.likes
			row.TotalComments = t.comments
			row.TotalShares = t.shares
			row.PostCount = t.count
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalViews > rows[j].TotalViews })

	if !q.Grouped {
		return rows, nil, nil
	}

	groups := make(map[string]*GroupStats)
	order := make([]string, 0)
	for _, row := range rows {
		name := row.ClipperGroup
		if name == "" {
			name = "Unknown"
		}
		g := groups[name]
		if g == nil {
			g = &GroupStats{ClipperGroup: name}
			groups[name] = g
			order = append(order, name)
		}
		g.Pages = append(g.Pages, row)
		g.TotalViews += row.TotalViews
		g.TotalPayableViews += row.TotalPayableViews
		g.TotalLikes += row.TotalLikes
		g.TotalComments += row.TotalComments
		g.TotalShares += row.TotalShares
		g.PostCount += row.PostCount
	}
	out := make([]GroupStats, 0, len(order))
	for _, name := range order {
		out = append(out, *groups[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalViews > out[j].TotalViews })
	return nil, out, nil
}

// Get returns one clipper with its posts (views descending, optionally
// date-bounded), each post's recent snapshots, and aggregate totals.
func (s *ClipperService) Get(ctx context.Context, id string, from, to *time.Time) (*ClipperDetail, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	c, err := repo.GetClipper(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClipperNotFound
		}
		return nil, err
	}

	posts, err := repo.ListPostsByViews(ctx, s.DB, id, from, to)
	if err != nil {
		return nil, err
	}

	detail := &ClipperDetail{Clipper: *c, Posts: make([]PostDetail, 0, len(posts))}
	for i := range posts {
		p := posts[i]
		snaps, err := repo.ListRecentSnapshots(ctx, s.DB, p.ID, snapshotsPerPost)
		if err != nil {
			return nil, err
		}
		detail.Posts = append(detail.Posts, PostDetail{
			Post:         p,
			PayableViews: p.PayableViews(),
			Snapshots:    snaps,
		})
		detail.TotalViews += p.Views
		detail.TotalPayableViews += p.PayableViews()
		detail.TotalLikes += p.Likes
		detail.TotalComments += p.Comments
		detail.TotalShares += p.Shares
	}
	return detail, nil
}

// Status reports the most recent LastRefreshedAt across the roster.
func (s *ClipperService) Status(ctx context.Context) (*time.Time, error) {
	_, last, _, err := repo.RosterStats(ctx, s.DB)
	return last, err
}

// deriveGroup extracts the group from the "Group - Page" naming convention.
func deriveGroup(name string) string {
	if head, _, found := strings.Cut(name, " - "); found && strings.TrimSpace(head) != "" {
		return strings.TrimSpace(head)
	}
	return name
}

// validateRange rejects inverted date ranges.
func validateRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return ErrInvalidDateRange
	}
	return nil
}
