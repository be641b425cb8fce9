package outfit_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"outfit-planner/internal/auth"
	"outfit-planner/internal/database"
	"outfit-planner/internal/outfit"
	"outfit-planner/internal/wardrobe"
)

type fixture struct {
	repo    *outfit.Repository
	userID  int64
	otherID int64
	tops    []wardrobe.Garment
	bottoms []wardrobe.Garment
	foreign wardrobe.Garment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "outfits.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := auth.NewUserRepository(db.SQL)
	owner, err := users.Upsert(ctx, auth.User{Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	other, err := users.Upsert(ctx, auth.User{Email: "other@example.com"})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	items := wardrobe.NewRepository(db.SQL)
	add := func(userID int64, itemType, color string) wardrobe.Garment {
		img := color + "-" + itemType + ".png"
		g, err := items.Add(ctx, wardrobe.Garment{UserID: userID, ItemType: itemType, Color: color, ImageURL: &img, IsAvailable: true})
		if err != nil {
			t.Fatalf("Failed to add garment: %v", err)
		}
		return g
	}

	return &fixture{
		repo:    outfit.NewRepository(db.SQL),
		userID:  owner.ID,
		otherID: other.ID,
		tops:    []wardrobe.Garment{add(owner.ID, "shirt", "white"), add(owner.ID, "polo", "navy")},
		bottoms: []wardrobe.Garment{add(owner.ID, "jeans", "blue"), add(owner.ID, "chinos", "beige")},
		foreign: add(other.ID, "shirt", "red"),
	}
}

func TestSaveWeek(t *testing.T) {
	ctx := context.Background()

	t.Run("UpsertsAndReads", func(t *testing.T) {
		f := newFixture(t)
		entries := []outfit.SaveEntry{
			{Date: "2026-10-18", TopID: f.tops[0].ID, BottomID: f.bottoms[0].ID},
			{Date: "2026-10-19", TopID: f.tops[1].ID, BottomID: f.bottoms[1].ID},
		}
		saved, err := f.repo.SaveWeek(ctx, f.userID, entries)
		if err != nil {
			t.Fatalf("SaveWeek failed: %v", err)
		}
		if len(saved) != 2 || saved[0].Top.Describe() != "white shirt" || saved[1].Bottom.Describe() != "beige chinos" {
			t.Fatalf("Unexpected saved days: %+v", saved)
		}

		// Saving the same date again replaces the pair.
		_, err = f.repo.SaveWeek(ctx, f.userID, []outfit.SaveEntry{
			{Date: "2026-10-18", TopID: f.tops[1].ID, BottomID: f.bottoms[1].ID},
		})
		if err != nil {
			t.Fatalf("Second SaveWeek failed: %v", err)
		}

		week, err := f.repo.WeekForUser(ctx, f.userID, "2026-10-18", "2026-10-24")
		if err != nil {
			t.Fatalf("WeekForUser failed: %v", err)
		}
		if len(week) != 2 {
			t.Fatalf("Expected 2 days, got %d", len(week))
		}
		if week[0].Date != "2026-10-18" || week[0].Top.ID != f.tops[1].ID {
			t.Errorf("Expected replaced outfit on 2026-10-18, got %+v", week[0])
		}
		if week[0].Top.ImageURL == nil || *week[0].Top.ImageURL != "navy-polo.png" {
			t.Errorf("Expected image url to be loaded, got %v", week[0].Top.ImageURL)
		}
	})

	t.Run("RejectsForeignGarment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.repo.SaveWeek(ctx, f.userID, []outfit.SaveEntry{
			{Date: "2026-10-18", TopID: f.tops[0].ID, BottomID: f.bottoms[0].ID},
			{Date: "2026-10-19", TopID: f.foreign.ID, BottomID: f.bottoms[0].ID},
		})
		if !errors.Is(err, outfit.ErrInvalidGarments) {
			t.Fatalf("Expected ErrInvalidGarments, got %v", err)
		}

		week, err := f.repo.WeekForUser(ctx, f.userID, "2026-10-18", "2026-10-24")
		if err != nil {
			t.Fatalf("WeekForUser failed: %v", err)
		}
		if len(week) != 0 {
			t.Errorf("Expected nothing written, got %d days", len(week))
		}
	})

	t.Run("RejectsBadDate", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.repo.SaveWeek(ctx, f.userID, []outfit.SaveEntry{
			{Date: "18/10/2026", TopID: f.tops[0].ID, BottomID: f.bottoms[0].ID},
		})
		if !errors.Is(err, outfit.ErrInvalidDate) {
			t.Fatalf("Expected ErrInvalidDate, got %v", err)
		}
	})
}

func TestWeekForUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.SaveWeek(ctx, f.userID, []outfit.SaveEntry{
		{Date: "2026-10-17", TopID: f.tops[0].ID, BottomID: f.bottoms[0].ID},
		{Date: "2026-10-21", TopID: f.tops[0].ID, BottomID: f.bottoms[0].ID},
		{Date: "2026-10-20", TopID: f.tops[1].ID, BottomID: f.bottoms[1].ID},
		{Date: "2026-10-25", TopID: f.tops[1].ID, BottomID: f.bottoms[1].ID},
	})
	if err != nil {
		t.Fatalf("SaveWeek failed: %v", err)
	}

	week, err := f.repo.WeekForUser(ctx, f.userID, "2026-10-18", "2026-10-24")
	if err != nil {
		t.Fatalf("WeekForUser failed: %v", err)
	}
	got := outfit.Week(week).Dates()
	want := []outfit.Date{"2026-10-20", "2026-10-21"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, got)
	}

	other, err := f.repo.WeekForUser(ctx, f.otherID, "2026-10-18", "2026-10-24")
	if err != nil {
		t.Fatalf("WeekForUser failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected other user to see nothing, got %d", len(other))
	}
}
