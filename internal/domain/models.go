// Package domain defines the persistence models for clippers, posts, and
// metric snapshots. These types are mapped with GORM and form the core data
// layer of the clipper tracking application.
package domain

import "time"

// Clipper represents one tracked content-creator account (a "page"). A clipper
// carries at most one identifier per supported platform; an empty identifier
// means that platform is not scraped for this clipper. Several clippers can
// share a ClipperGroup so that one creator's pages roll up into a single
// logical row in grouped views.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display name; by convention "Group - Page" (the group is derived
//     from the prefix when not given explicitly).
//   - ClipperGroup: logical parent grouping several pages under one creator.
//   - YouTubeChannel / TikTokUsername / InstagramUsername: per-platform
//     identifiers (handle, profile URL, or raw channel ID).
//   - ProfilePicture: backfilled opportunistically during ingestion and never
//     overwritten once set.
//   - LastRefreshedAt: when ingestion last touched this clipper; nil until the
//     first run. Monotonically non-decreasing.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Clipper struct {
	ID                string     `json:"id"                 gorm:"type:char(36);primaryKey"`
	Name              string     `json:"name"               gorm:"type:varchar(100);not null"`
	ClipperGroup      string     `json:"clipperGroup"       gorm:"type:varchar(100);not null;index"`
	YouTubeChannel    string     `json:"youtubeChannel"     gorm:"column:youtube_channel;type:varchar(200)"`
	TikTokUsername    string     `json:"tiktokUsername"     gorm:"column:tiktok_username;type:varchar(100)"`
	InstagramUsername string     `json:"instagramUsername"  gorm:"type:varchar(100)"`
	ProfilePicture    string     `json:"profilePicture"     gorm:"type:varchar(500)"`
	LastRefreshedAt   *time.Time `json:"lastRefreshedAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for Clipper.
func (Clipper) TableName() string { return "clippers" }

// Identifier returns the configured identifier for the given platform, or ""
// when the platform is not configured for this clipper.
func (c *Clipper) Identifier(p Platform) string {
	switch p {
	case PlatformYouTube:
		return c.YouTubeChannel
	case PlatformTikTok:
		return c.TikTokUsername
	case PlatformInstagram:
		return c.InstagramUsername
	}
	return ""
}

// Post represents one piece of tracked content on one platform. The PostURL is
// the natural, globally unique identity key: observing the same URL twice must
// resolve to the same row, which is what makes ingestion idempotent.
//
// Views/Likes/Comments/Shares hold the latest observed counters and are
// overwritten on every refresh; growth history lives in MetricSnapshot.
// PostedAt is the original publish time and is immutable once set.
type Post struct {
	ID           string     `json:"id"           gorm:"type:char(36);primaryKey"`
	ClipperID    string     `json:"clipperId"    gorm:"type:char(36);not null;index:idx_clipper_posts"`
	Platform     Platform   `json:"platform"     gorm:"type:varchar(16);not null;index"`
	PostURL      string     `json:"postUrl"      gorm:"type:varchar(500);not null;uniqueIndex:ux_post_url"`
	PlatformID   string     `json:"postId"       gorm:"column:post_id;type:varchar(100);not null"`
	Title        string     `json:"title"        gorm:"type:varchar(500)"`
	Thumbnail    string     `json:"thumbnail"    gorm:"type:varchar(500)"`
	Views        int64      `json:"views"        gorm:"not null;default:0"`
	Likes        int64      `json:"likes"        gorm:"not null;default:0"`
	Comments     int64      `json:"comments"     gorm:"not null;default:0"`
	Shares       int64      `json:"shares"       gorm:"not null;default:0"`
	PostedAt     *time.Time `json:"postedAt"     gorm:"index"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Clipper is the owning account. Posts are cascade-deleted when their
	// clipper is removed.
	Clipper Clipper `json:"-" gorm:"foreignKey:ClipperID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// PayableViewCap is the per-post ceiling applied to compensation-oriented view
// totals. Raw view counts are never clamped in storage.
const PayableViewCap int64 = 1_000_000

// PayableViews returns the post's views capped at PayableViewCap. This is a
// read-time projection and is never stored.
func (p *Post) PayableViews() int64 {
	if p.Views > PayableViewCap {
		return PayableViewCap
	}
	return p.Views
}

// MetricSnapshot is one timestamped observation of a post's counters.
// Snapshots are append-only: every ingestion pass that touches a post adds
// exactly one row, and rows are never mutated or deleted. They are the sole
// source of historical growth data.
type MetricSnapshot struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	PostID     string    `json:"postId"     gorm:"type:char(36);not null;index:idx_post_snapshots,priority:1"`
	Views      int64     `json:"views"      gorm:"not null;default:0"`
	Likes      int64     `json:"likes"      gorm:"not null;default:0"`
	Comments   int64     `json:"comments"   gorm:"not null;default:0"`
	Shares     int64     `json:"shares"     gorm:"not null;default:0"`
	RecordedAt time.Time `json:"recordedAt" gorm:"not null;index:idx_post_snapshots,priority:2"`

	// Post is the observed post. Snapshots are cascade-deleted with it.
	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MetricSnapshot.
func (MetricSnapshot) TableName() string { return "metric_snapshots" }
