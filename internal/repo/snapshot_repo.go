// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// MetricSnapshot model. Snapshots are never updated or deleted individually;
// they only disappear when their post cascades away.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

// AppendSnapshot records one observation of a post's counters at the given
// instant.
func AppendSnapshot(ctx context.Context, db *gorm.DB, postID string, views, likes, comments, shares int64, at time.Time) (*domain.MetricSnapshot, error) {
	s := &domain.MetricSnapshot{
		ID:         uuid.NewString(),
		PostID:     postID,
		Views:      views,
		Likes:      likes,
		Comments:   comments,
		Shares:     shares,
		RecordedAt: at,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// ListRecentSnapshots returns up to limit snapshots for a post, most recent
// first. Used to chart a post's growth history.
func ListRecentSnapshots(ctx context.Context, db *gorm.DB, postID string, limit int) ([]domain.MetricSnapshot, error) {
	var out []domain.MetricSnapshot
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("recorded_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountSnapshots returns the number of snapshots recorded for a post.
func CountSnapshots(ctx context.Context, db *gorm.DB, postID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.MetricSnapshot{}).
		Where("post_id = ?", postID).
		Count(&total).Error
	return total, err
}
