package store

import (
	"testing"

	"github.com/tobinmarsh/reelnight/internal/database"
	"github.com/tobinmarsh/reelnight/internal/model"
)

func setupMovieTestDB(t *testing.T) (*MovieStore, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	u, err := us.Create("alice@example.com", "Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Movie Club", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return NewMovieStore(db), h.ID, u.ID
}

func TestMovieCreate(t *testing.T) {
	ms, hID, uID := setupMovieTestDB(t)

	m, err := ms.Create(&model.Movie{
		HouseholdID: hID,
		Title:       "The Thing",
		ContentType: "movie",
		Status:      "unwatched",
		AddedBy:     uID,
	})
	if err != nil {
		t.Fatalf("create movie: %v", err)
	}
	if m.Title != "The Thing" {
		t.Errorf("title = %q, want %q", m.Title, "The Thing")
	}
	if m.Status != "unwatched" {
		t.Errorf("status = %q, want %q", m.Status, "unwatched")
	}
}

func TestMovieListByStatus(t *testing.T) {
	ms, hID, uID := setupMovieTestDB(t)

	for _, title := range []string{"Alien", "Blade Runner", "Dune"} {
		if _, err := ms.Create(&model.Movie{
			HouseholdID: hID, Title: title, ContentType: "movie", Status: "unwatched", AddedBy: uID,
		}); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}
	watched, _ := ms.Create(&model.Movie{
		HouseholdID: hID, Title: "Heat", ContentType: "movie", Status: "unwatched", AddedBy: uID,
	})
	if _, err := ms.UpdateStatus(watched.ID, "watched"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	unwatched, err := ms.List(hID, "unwatched")
	if err != nil {
		t.Fatalf("list unwatched: %v", err)
	}
	if len(unwatched) != 3 {
		t.Fatalf("unwatched = %d, want 3", len(unwatched))
	}

	all, err := ms.List(hID, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("all = %d, want 4", len(all))
	}
}

func TestMovieUpdateMetadata(t *testing.T) {
	ms, hID, uID := setupMovieTestDB(t)

	m, _ := ms.Create(&model.Movie{
		HouseholdID: hID, Title: "Stalker", ContentType: "movie", Status: "unwatched", AddedBy: uID,
	})

	updated, err := ms.UpdateMetadata(m.ID, "1979", "Drama, Sci-Fi", "https://example.com/p.jpg", "8.1", "A guide leads two men.")
	if err != nil {
		t.Fatalf("update metadata: %v", err)
	}
	if updated.Year != "1979" {
		t.Errorf("year = %q, want %q", updated.Year, "1979")
	}
	if updated.Genres != "Drama, Sci-Fi" {
		t.Errorf("genres = %q", updated.Genres)
	}
}

func TestMovieDelete(t *testing.T) {
	ms, hID, uID := setupMovieTestDB(t)

	m, _ := ms.Create(&model.Movie{
		HouseholdID: hID, Title: "Ran", ContentType: "movie", Status: "unwatched", AddedBy: uID,
	})

	if err := ms.Delete(m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
