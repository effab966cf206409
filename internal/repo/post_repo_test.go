package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

func newPostRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("post_repo_test_%d.db", time.Now().UnixNano()))
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

func seedClipper(t *testing.T, db *gorm.DB, id, name, group string) {
	t.Helper()
	if err := db.Create(&domain.Clipper{ID: id, Name: name, ClipperGroup: group}).Error; err != nil {
		t.Fatalf("seed clipper %s: %v", id, err)
	}
}

func seedPost(t *testing.T, db *gorm.DB, p domain.Post) {
	t.Helper()
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed post %s: %v", p.ID, err)
	}
}

func ts(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestCreatePost_DuplicateURL(t *testing.T) {
	db := newPostRepoDB(t)
	seedClipper(t, db, "c1", "Acme - TT", "Acme")

	ctx := context.Background()
	if _, err := CreatePost(ctx, db, &domain.Post{
		ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "https://t/1", PlatformID: "1",
	}); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	_, err := CreatePost(ctx, db, &domain.Post{
		ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "https://t/1", PlatformID: "1",
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey for same URL, got %v", err)
	}
}

func TestGetPostByURL(t *testing.T) {
	db := newPostRepoDB(t)
	seedClipper(t, db, "c1", "Acme - TT", "Acme")
	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "https://t/1", PlatformID: "1", Views: 5})

	got, err := GetPostByURL(context.Background(), db, "https://t/1")
	if err != nil {
		t.Fatalf("GetPostByURL: %v", err)
	}
	if got.ID != "p1" || got.Views != 5 {
		t.Fatalf("unexpected post: %+v", got)
	}

	if _, err := GetPostByURL(context.Background(), db, "https://t/none"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePostMetrics_OverwritesMutableFieldsOnly(t *testing.T) {
	db := newPostRepoDB(t)
	seedClipper(t, db, "c1", "Acme - TT", "Acme")
	posted := ts(2025, 5, 1)
	seedPost(t, db, domain.Post{
		ID: "p1", ClipperID: "c1", Platform: domain.PlatformTikTok,
		PostURL: "https://t/1", PlatformID: "1",
		Views: 10, Likes: 1, Title: "old", PostedAt: posted,
	})

	err := UpdatePostMetrics(context.Background(), db, "p1", 100, 20, 3, 4, "new title", "thumb.jpg")
	if err != nil {
		t.Fatalf("UpdatePostMetrics: %v", err)
	}

	var got domain.Post
	if err := db.First(&got, "id = ?", "p1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Views != 100 || got.Likes != 20 || got.Comments != 3 || got.Shares != 4 {
		t.Fatalf("counters not updated: %+v", got)
	}
	if got.Title != "new title" || got.Thumbnail != "thumb.jpg" {
		t.Fatalf("title/thumbnail not updated: %+v", got)
	}
	if got.PostedAt == nil || !got.PostedAt.Equal(*posted) {
		t.Fatalf("PostedAt must be immutable, got %v", got.PostedAt)
	}
}

func TestUpdatePostMetrics_NotFound(t *testing.T) {
	db := newPostRepoDB(t)
	if err := UpdatePostMetrics(context.Background(), db, "missing", 1, 1, 1, 1, "", ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPosts_Filters(t *testing.T) {
	db := newPostRepoDB(t)
	seedClipper(t, db, "c1", "Acme - TT", "Acme")
	seedClipper(t, db, "c2", "Beta - YT", "Beta")

	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "u1", PlatformID: "1", Views: 10, PostedAt: ts(2025, 5, 1)})
	seedPost(t, db, domain.Post{ID: "p2", ClipperID: "c1", Platform: domain.PlatformInstagram, PostURL: "u2", PlatformID: "2", Views: 20, PostedAt: ts(2025, 5, 10)})
	seedPost(t, db, domain.Post{ID: "p3", ClipperID: "c2", Platform: domain.PlatformYouTube, PostURL: "u3", PlatformID: "3", Views: 30, PostedAt: ts(2025, 5, 20)})
	seedPost(t, db, domain.Post{ID: "p4", ClipperID: "c2", Platform: domain.PlatformYouTube, PostURL: "u4", PlatformID: "4", Views: 40}) // no publish date

	ctx := context.Background()

	all, err := ListPosts(ctx, db, PostFilter{})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 posts, got %d", len(all))
	}
	// Clipper association must be joined.
	if all[len(all)-1].Clipper.ClipperGroup == "" {
		t.Fatalf("expected joined clipper, got %+v", all[len(all)-1].Clipper)
	}

	byGroup, err := ListPosts(ctx, db, PostFilter{Group: "Acme"})
	if err != nil {
		t.Fatalf("ListPosts(group): %v", err)
	}
	if len(byGroup) != 2 {
		t.Fatalf("expected 2 Acme posts, got %d", len(byGroup))
	}

	byPlatform, err := ListPosts(ctx, db, PostFilter{Platform: domain.PlatformYouTube})
	if err != nil {
		t.Fatalf("ListPosts(platform): %v", err)
	}
	if len(byPlatform) != 2 {
		t.Fatalf("expected 2 YouTube posts, got %d", len(byPlatform))
	}

	from := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 15, 23, 59, 59, 0, time.UTC)
	ranged, err := ListPosts(ctx, db, PostFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("ListPosts(range): %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != "p2" {
		t.Fatalf("expected only p2 in range, got %#v", ranged)
	}

	dated, err := ListPosts(ctx, db, PostFilter{PostedOnly: true})
	if err != nil {
		t.Fatalf("ListPosts(postedOnly): %v", err)
	}
	if len(dated) != 3 {
		t.Fatalf("expected 3 dated posts, got %d", len(dated))
	}
}

func TestListPostsByViews_OrderAndRange(t *testing.T) {
	db := newPostRepoDB(t)
	seedClipper(t, db, "c1", "Acme - TT", "Acme")
	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "u1", PlatformID: "1", Views: 10, PostedAt: ts(2025, 5, 1)})
	seedPost(t, db, domain.Post{ID: "p2", ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "u2", PlatformID: "2", Views: 99, PostedAt: ts(2025, 5, 2)})

	posts, err := ListPostsByViews(context.Background(), db, "c1", nil, nil)
	if err != nil {
		t.Fatalf("ListPostsByViews: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "p2" {
		t.Fatalf("expected views-descending order, got %#v", posts)
	}
}
