// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model,
// including the unique-URL lookup that backs idempotent ingestion and the
// filtered listings that feed the analytics services.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

// PostFilter narrows post listings. Zero-valued fields are ignored.
type PostFilter struct {
	// From/To bound the post's publish time (inclusive). Callers are expected
	// to have extended To to end-of-day already.
	From *time.Time
	To   *time.Time
	// ClipperID restricts to one clipper's posts.
	ClipperID string
	// Group restricts to clippers in one clipper group.
	Group string
	// Platform restricts to one platform.
	Platform domain.Platform
	// PostedOnly drops posts without a publish date (calendar views need it).
	PostedOnly bool
}

// CreatePost inserts a new Post row with a generated UUID. The store-level
// unique index on post_url makes racing creates for the same URL fail with
// gorm.ErrDuplicatedKey so exactly one writer wins.
func CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) (*domain.Post, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPostByURL fetches a post by its natural identity key, or ErrNotFound.
func GetPostByURL(ctx context.Context, db *gorm.DB, postURL string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).First(&p, "post_url = ?", postURL).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePostMetrics overwrites a post's mutable fields with a fresh
// observation. PostedAt is deliberately not part of the update: the original
// publish time is immutable once set.
func UpdatePostMetrics(ctx context.Context, db *gorm.DB, id string, views, likes, comments, shares int64, title, thumbnail string) error {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"views":     views,
			"likes":     likes,
			"comments":  comments,
			"shares":    shares,
			"title":     title,
			"thumbnail": thumbnail,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPosts returns posts matching the filter with their owning Clipper
// eagerly joined, ordered by publish time ascending (undated posts first).
func ListPosts(ctx context.Context, db *gorm.DB, f PostFilter) ([]domain.Post, error) {
	q := db.WithContext(ctx).Model(&domain.Post{}).Joins("Clipper")
	q = applyPostFilter(q, f)
	var out []domain.Post
	err := q.Order("posts.posted_at asc").Find(&out).Error
	return out, err
}

// ListPostsByViews returns a clipper's posts ordered by views descending,
// optionally bounded by a publish-date range.
func ListPostsByViews(ctx context.Context, db *gorm.DB, clipperID string, from, to *time.Time) ([]domain.Post, error) {
	q := db.WithContext(ctx).Where("clipper_id = ?", clipperID)
	if from != nil {
		q = q.Where("posted_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("posted_at <= ?", *to)
	}
	var out []domain.Post
	err := q.Order("views desc").Find(&out).Error
	return out, err
}

// applyPostFilter composes the WHERE clauses for a PostFilter.
func applyPostFilter(q *gorm.DB, f PostFilter) *gorm.DB {
	if f.From != nil {
		q = q.Where("posts.posted_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("posts.posted_at <= ?", *f.To)
	}
	if f.PostedOnly {
		q = q.Where("posts.posted_at IS NOT NULL")
	}
	if f.ClipperID != "" {
		q = q.Where("posts.clipper_id = ?", f.ClipperID)
	}
	if f.Platform != "" {
		q = q.Where("posts.platform = ?", f.Platform)
	}
	if f.Group != "" {
		q = q.Where(`"Clipper"."clipper_group" = ?`, f.Group)
	}
	return q
}
