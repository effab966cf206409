// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used by the
// refresh-status endpoint and for conditional responses in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

// RosterStats returns aggregate metadata for the clipper roster: the total
// number of clippers, the most recent LastRefreshedAt among them, and the
// most recent UpdatedAt. The latter changes on any roster edit (renames,
// identifier changes), not just on refreshes.
//
// When the roster is empty both timestamps are nil; lastRefreshedAt is also
// nil when no clipper has ever been refreshed.
func RosterStats(ctx context.Context, db *gorm.DB) (count int64, lastRefreshedAt, maxUpdatedAt *time.Time, err error) {
	if err = db.WithContext(ctx).Model(&domain.Clipper{}).Count(&count).Error; err != nil {
		return 0, nil, nil, err
	}
	if count == 0 {
		return 0, nil, nil, nil
	}

	// Get latest last_refreshed_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		LastRefreshedAt *time.Time
	}
	err = db.WithContext(ctx).
		Model(&domain.Clipper{}).
		Select("last_refreshed_at").
		Where("last_refreshed_at IS NOT NULL").
		Order("last_refreshed_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, nil, nil, err
	}

	var upd struct {
		UpdatedAt time.Time
	}
	err = db.WithContext(ctx).
		Model(&domain.Clipper{}).
		Select("updated_at").
		Order("updated_at DESC").
		Limit(1).
		Scan(&upd).Error
	if err != nil {
		return 0, nil, nil, err
	}
	return count, row.LastRefreshedAt, &upd.UpdatedAt, nil
}

// PostsStats returns the post count and the latest UpdatedAt for a clipper's
// posts. Used to build weak ETags for clipper detail responses.
func PostsStats(ctx context.Context, db *gorm.DB, clipperID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Post{}).Where("clipper_id = ?", clipperID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
