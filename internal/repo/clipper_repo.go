// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Clipper
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a clipper is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateClipper inserts a new Clipper row. The ID is a randomly generated
// UUID and CreatedAt is set to UTC.
func CreateClipper(ctx context.Context, db *gorm.DB, c *domain.Clipper) (*domain.Clipper, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListClippers returns the roster ordered by creation time descending,
// optionally filtered to one clipper group. It returns an empty slice when
// nothing matches.
func ListClippers(ctx context.Context, db *gorm.DB, group string) ([]domain.Clipper, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if group != "" {
		q = q.Where("clipper_group = ?", group)
	}
	var out []domain.Clipper
	err := q.Find(&out).Error
	return out, err
}

// ListStaleClippers returns clippers whose LastRefreshedAt is null or older
// than the given threshold, in creation order. These are the clippers an
// unforced ingestion run processes.
func ListStaleClippers(ctx context.Context, db *gorm.DB, olderThan time.Time) ([]domain.Clipper, error) {
	var out []domain.Clipper
	err := db.WithContext(ctx).
		Where("last_refreshed_at IS NULL OR last_refreshed_at < ?", olderThan).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// GetClipper fetches a single clipper by ID, or ErrNotFound if missing.
func GetClipper(ctx context.Context, db *gorm.DB, id string) (*domain.Clipper, error) {
	var c domain.Clipper
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateClipper applies the given column updates to a clipper. If no rows are
// affected the clipper does not exist and ErrNotFound is returned.
func UpdateClipper(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Clipper{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteClipper removes a clipper. Owned posts and their snapshots cascade.
// Snapshot rows are removed explicitly first because SQLite only follows the
// FK cascade chain when foreign_keys is on for the active connection.
func DeleteClipper(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Clipper
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.
			Where("post_id IN (?)", tx.Model(&domain.Post{}).Select("id").Where("clipper_id = ?", id)).
			Delete(&domain.MetricSnapshot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("clipper_id = ?", id).Delete(&domain.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}

// MarkRefreshed advances a clipper's LastRefreshedAt to the given time. The
// column is monotonically non-decreasing: an older timestamp is ignored.
func MarkRefreshed(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Clipper{}).
		Where("id = ? AND (last_refreshed_at IS NULL OR last_refreshed_at <= ?)", id, at).
		Update("last_refreshed_at", at).Error
}

// SetProfilePicture backfills a clipper's profile picture. A picture already
// present is never overwritten.
func SetProfilePicture(ctx context.Context, db *gorm.DB, id, url string) error {
	return db.WithContext(ctx).
		Model(&domain.Clipper{}).
		Where("id = ? AND (profile_picture IS NULL OR profile_picture = '')", id).
		Update("profile_picture", url).Error
}
