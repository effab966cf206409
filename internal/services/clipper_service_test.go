package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clippulse/go-clipper-backend/internal/domain"
	"github.com/clippulse/go-clipper-backend/internal/repo"
)

func TestClipperCreate_DerivesGroupFromName(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)

	c, err := s.Create(context.Background(), CreateClipperInput{Name: "Acme - Shorts"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ClipperGroup != "Acme" {
		t.Fatalf("group must derive from the name prefix, got %q", c.ClipperGroup)
	}

	// No separator: the whole name is the group.
	c, err = s.Create(context.Background(), CreateClipperInput{Name: "Solo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ClipperGroup != "Solo" {
		t.Fatalf("got %q", c.ClipperGroup)
	}

	// Explicit group wins.
	c, err = s.Create(context.Background(), CreateClipperInput{Name: "Acme - Longform", ClipperGroup: "Custom"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ClipperGroup != "Custom" {
		t.Fatalf("got %q", c.ClipperGroup)
	}
}

func TestClipperCreate_NameRequired(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)
	if _, err := s.Create(context.Background(), CreateClipperInput{Name: "   "}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("want ErrNameRequired, got %v", err)
	}
}

func TestClipperUpdate_PartialFields(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)
	seedClipper(t, db, domain.Clipper{ID: "c1", Name: "Acme - Shorts", ClipperGroup: "Acme", TikTokUsername: "@acme"})

	newName := "Acme - Clips"
	c, err := s.Update(context.Background(), "c1", UpdateClipperInput{Name: &newName})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if c.Name != "Acme - Clips" || c.TikTokUsername != "@acme" {
		t.Fatalf("only the given field may change: %+v", c)
	}

	if _, err := s.Update(context.Background(), "missing", UpdateClipperInput{Name: &newName}); !errors.Is(err, ErrClipperNotFound) {
		t.Fatalf("want ErrClipperNotFound, got %v", err)
	}
}

func TestClipperDelete_Cascades(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)
	seedClipper(t, db, domain.Clipper{ID: "c1", Name: "Acme"})
	p := seedPost(t, db, domain.Post{ID: "p1", ClipperID: "c1", Views: 10})
	if _, err := repo.AppendSnapshot(context.Background(), db, p.ID, 10, 1, 0, 0, ts(2026, 8, 1).UTC()); err != nil {
		t.Fatalf("AppendSnapshot: %v", err)
	}

	if err := s.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var posts, snaps int64
	db.Model(&domain.Post{}).Count(&posts)
	db.Model(&domain.MetricSnapshot{}).Count(&snaps)
	if posts != 0 || snaps != 0 {
		t.Fatalf("cascade failed: posts=%d snapshots=%d", posts, snaps)
	}

	if err := s.Delete(context.Background(), "c1"); !errors.Is(err, ErrClipperNotFound) {
		t.Fatalf("want ErrClipperNotFound, got %v", err)
	}
}

func TestClipperList_SortedAndCapped(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)
	seedClipper(t, db, domain.Clipper{ID: "small", Name: "Acme - Small", ClipperGroup: "Acme"})
	seedClipper(t, db, domain.Clipper{ID: "big", Name: "Beta - Big", ClipperGroup: "Beta"})
	seedClipper(t, db, domain.Clipper{ID: "idle", Name: "Idle", ClipperGroup: "Idle"})
	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "small", Views: 500, Likes: 5, PostedAt: ts(2026, 8, 10)})
	seedPost(t, db, domain.Post{ID: "p2", ClipperID: "big", Views: 2_500_000, PostedAt: ts(2026, 8, 11)})
	seedPost(t, db, domain.Post{ID: "p3", ClipperID: "big", Views: 1_000, PostedAt: ts(2026, 8, 12)})

	rows, groups, err := s.List(context.Background(), ListClippersQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if groups != nil {
		t.Fatalf("ungrouped query must not return groups")
	}
	if len(rows) != 3 {
		t.Fatalf("want all clippers listed, got %d", len(rows))
	}
	if rows[0].ID != "big" || rows[1].ID != "small" || rows[2].ID != "idle" {
		t.Fatalf("rows must sort by views desc: %v, %v, %v", rows[0].ID, rows[1].ID, rows[2].ID)
	}
	if rows[0].TotalViews != 2_501_000 {
		t.Fatalf("raw views must not be capped: %d", rows[0].TotalViews)
	}
	if rows[0].TotalPayableViews != 1_001_000 {
		t.Fatalf("payable views must cap per post: %d", rows[0].TotalPayableViews)
	}
	if rows[2].PostCount != 0 || rows[2].TotalViews != 0 {
		t.Fatalf("clipper without posts gets a zero row: %+v", rows[2])
	}
}

func TestClipperList_Grouped(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)
	seedClipper(t, db, domain.Clipper{ID: "a1", Name: "Acme - Shorts", ClipperGroup: "Acme"})
	seedClipper(t, db, domain.Clipper{ID: "a2", Name: "Acme - Longform", ClipperGroup: "Acme"})
	seedClipper(t, db, domain.Clipper{ID: "b1", Name: "Beta - Main", ClipperGroup: "Beta"})
	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "a1", Views: 100, PostedAt: ts(2026, 8, 10)})
	seedPost(t, db, domain.Post{ID: "p2", ClipperID: "a2", Views: 50, PostedAt: ts(2026, 8, 11)})
	seedPost(t, db, domain.Post{ID: "p3", ClipperID: "b1", Views: 120, PostedAt: ts(2026, 8, 12)})

	_, groups, err := s.List(context.Background(), ListClippersQuery{Grouped: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("want 2 groups, got %d", len(groups))
	}
	if groups[0].ClipperGroup != "Acme" || groups[0].TotalViews != 150 || groups[0].PostCount != 2 {
		t.Fatalf("group consolidation wrong: %+v", groups[0])
	}
	if len(groups[0].Pages) != 2 {
		t.Fatalf("group must list member pages: %+v", groups[0].Pages)
	}
	if groups[1].ClipperGroup != "Beta" {
		t.Fatalf("groups must sort by views desc: %+v", groups[1])
	}
}

func TestClipperList_DateRange(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)
	seedClipper(t, db, domain.Clipper{ID: "c1", Name: "Acme"})
	seedPost(t, db, domain.Post{ID: "in", ClipperID: "c1", Views: 10, PostedAt: ts(2026, 8, 10)})
	seedPost(t, db, domain.Post{ID: "out", ClipperID: "c1", Views: 99, PostedAt: ts(2026, 6, 1)})

	rows, _, err := s.List(context.Background(), ListClippersQuery{From: ts(2026, 8, 1), To: ts(2026, 8, 31)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if rows[0].TotalViews != 10 || rows[0].PostCount != 1 {
		t.Fatalf("range filter not applied: %+v", rows[0])
	}

	if _, _, err := s.List(context.Background(), ListClippersQuery{From: ts(2026, 8, 31), To: ts(2026, 8, 1)}); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("want ErrInvalidDateRange, got %v", err)
	}
}

func TestClipperGet_DetailWithSnapshots(t *testing.T) {
	db := newServiceDB(t)
	s := NewClipperService(db)
	seedClipper(t, db, domain.Clipper{ID: "c1", Name: "Acme"})
	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "c1", Views: 2_000_000, PostedAt: ts(2026, 8, 10)})
	seedPost(t, db, domain.Post{ID: "p2", ClipperID: "c1", Views: 300, PostedAt: ts(2026, 8, 11)})
	for day := 1; day <= 35; day++ {
		if _, err := repo.AppendSnapshot(context.Background(), db, "p1", int64(day), 0, 0, 0, ts(2026, 7, day%28+1).UTC().Add(time.Duration(day)*time.Hour)); err != nil {
			t.Fatalf("AppendSnapshot: %v", err)
		}
	}

	d, err := s.Get(context.Background(), "c1", nil, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(d.Posts) != 2 || d.Posts[0].ID != "p1" {
		t.Fatalf("posts must sort by views desc: %+v", d.Posts)
	}
	if d.Posts[0].PayableViews != 1_000_000 {
		t.Fatalf("payable cap not applied: %d", d.Posts[0].PayableViews)
	}
	if len(d.Posts[0].Snapshots) != 30 {
		t.Fatalf("detail view returns the 30 most recent snapshots, got %d", len(d.Posts[0].Snapshots))
	}
	if d.TotalViews != 2_000_300 || d.TotalPayableViews != 1_000_300 {
		t.Fatalf("totals wrong: views=%d payable=%d", d.TotalViews, d.TotalPayableViews)
	}

	if _, err := s.Get(context.Background(), "missing", nil, nil); !errors.Is(err, ErrClipperNotFound) {
		t.Fatalf("want ErrClipperNotFound, got %v", err)
	}
}
