package services

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

// newServiceDB opens a throwaway sqlite database with the full schema.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Clipper{}, &domain.Post{}, &domain.MetricSnapshot{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedClipper(t *testing.T, db *gorm.DB, c domain.Clipper) domain.Clipper {
	t.Helper()
	if c.Name == "" {
		c.Name = c.ID
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed clipper %s: %v", c.ID, err)
	}
	return c
}

func seedPost(t *testing.T, db *gorm.DB, p domain.Post) domain.Post {
	t.Helper()
	if p.PostURL == "" {
		p.PostURL = "https://example.com/" + p.ID
	}
	if p.Platform == "" {
		p.Platform = domain.PlatformYouTube
	}
	if p.PlatformID == "" {
		p.PlatformID = p.ID
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed post %s: %v", p.ID, err)
	}
	return p
}

func ts(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	return &t
}

func at(t time.Time) *time.Time { return &t }
