package repo

import (
	"context"
	"testing"
	"time"

	"github.com/clippulse/go-clipper-backend/internal/domain"
)

func TestAppendSnapshot_AppendOnly(t *testing.T) {
	db := newPostRepoDB(t)
	seedClipper(t, db, "c1", "Acme - TT", "Acme")
	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "u1", PlatformID: "1"})

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s1, err := AppendSnapshot(ctx, db, "p1", 10, 1, 0, 0, now)
	if err != nil {
		t.Fatalf("AppendSnapshot: %v", err)
	}
	// Identical counters on replay still append a new row: snapshots are a
	// time series, not a deduplicated set.
	s2, err := AppendSnapshot(ctx, db, "p1", 10, 1, 0, 0, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("AppendSnapshot replay: %v", err)
	}
	if s1.ID == s2.ID {
		t.Fatalf("snapshots must be distinct rows")
	}

	total, err := CountSnapshots(ctx, db, "p1")
	if err != nil {
		t.Fatalf("CountSnapshots: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 snapshots, got %d", total)
	}
}

func TestListRecentSnapshots_MostRecentFirstWithLimit(t *testing.T) {
	db := newPostRepoDB(t)
	seedClipper(t, db, "c1", "Acme - TT", "Acme")
	seedPost(t, db, domain.Post{ID: "p1", ClipperID: "c1", Platform: domain.PlatformTikTok, PostURL: "u1", PlatformID: "1"})

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := AppendSnapshot(ctx, db, "p1", int64(i), 0, 0, 0, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("AppendSnapshot %d: %v", i, err)
		}
	}

	snaps, err := ListRecentSnapshots(ctx, db, "p1", 3)
	if err != nil {
		t.Fatalf("ListRecentSnapshots: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	if snaps[0].Views != 4 || snaps[2].Views != 2 {
		t.Fatalf("unexpected order: %#v", snaps)
	}
}
