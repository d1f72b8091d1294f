package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jobpulse/jobpulse/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustAdd(t *testing.T, s *SQLiteStore, title, company, url string, cat model.Category) {
	t.Helper()
	ok, err := s.AddListing(context.Background(), model.Listing{
		Title: title, Company: company, URL: url, Category: cat,
	})
	if err != nil {
		t.Fatalf("AddListing(%q): %v", url, err)
	}
	if !ok {
		t.Fatalf("AddListing(%q) = false, want true", url)
	}
}

func TestRegisterUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.RegisterUser(ctx, 42, "Ada")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if !created {
		t.Error("expected first registration to create a row")
	}

	created, err = s.RegisterUser(ctx, 42, "Ada Again")
	if err != nil {
		t.Fatalf("RegisterUser duplicate: %v", err)
	}
	if created {
		t.Error("expected re-registration to be a no-op")
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Name != "Ada" {
		t.Errorf("re-registration overwrote name: got %q", users[0].Name)
	}
	if users[0].Category != model.CategoryGeneral {
		t.Errorf("new user category = %q, want general", users[0].Category)
	}
}

func TestRegisterUser_MalformedInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, tc := range []struct {
		id   int64
		name string
	}{
		{0, "Zero"},
		{-5, "Negative"},
		{7, ""},
		{7, "   "},
	} {
		created, err := s.RegisterUser(ctx, tc.id, tc.name)
		if err != nil {
			t.Fatalf("RegisterUser(%d, %q): %v", tc.id, tc.name, err)
		}
		if created {
			t.Errorf("RegisterUser(%d, %q) = true, want false", tc.id, tc.name)
		}
	}
}

func TestSetCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.RegisterUser(ctx, 42, "Ada"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	ok, err := s.SetCategory(ctx, 42, model.CategoryRemote)
	if err != nil {
		t.Fatalf("SetCategory: %v", err)
	}
	if !ok {
		t.Error("expected SetCategory to succeed for existing user")
	}

	// Re-registration must not reset the chosen category.
	if _, err := s.RegisterUser(ctx, 42, "Ada"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if users[0].Category != model.CategoryRemote {
		t.Errorf("category = %q, want remote", users[0].Category)
	}

	ok, err = s.SetCategory(ctx, 42, model.Category("astrology"))
	if err != nil {
		t.Fatalf("SetCategory invalid: %v", err)
	}
	if ok {
		t.Error("expected SetCategory to reject a category outside the closed set")
	}

	ok, err = s.SetCategory(ctx, 999, model.CategoryRemote)
	if err != nil {
		t.Fatalf("SetCategory unknown user: %v", err)
	}
	if ok {
		t.Error("expected SetCategory to return false for unknown user")
	}
}

func TestAddListing_DedupByURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustAdd(t, s, "Backend Engineer", "Acme", "https://x/1", model.CategoryGeneral)

	ok, err := s.AddListing(ctx, model.Listing{
		Title: "Backend Engineer (repost)", Company: "Acme", URL: "https://x/1",
		Category: model.CategoryGeneral,
	})
	if err != nil {
		t.Fatalf("AddListing duplicate: %v", err)
	}
	if ok {
		t.Error("expected duplicate URL insert to be a no-op")
	}

	got, err := s.LatestListings(ctx, model.CategoryGeneral, 10)
	if err != nil {
		t.Fatalf("LatestListings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 row for the URL, got %d", len(got))
	}
	if got[0].Title != "Backend Engineer" {
		t.Errorf("duplicate insert overwrote the original row: %q", got[0].Title)
	}
}

func TestAddListing_RejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []model.Listing{
		{Title: "", Company: "Acme", URL: "https://x/1", Category: model.CategoryGeneral},
		{Title: "T", Company: "", URL: "https://x/2", Category: model.CategoryGeneral},
		{Title: "T", Company: "Acme", URL: "", Category: model.CategoryGeneral},
		{Title: "T", Company: "Acme", URL: "https://x/3", Category: model.Category("gigs")},
		{Title: "T", Company: "Acme", URL: "ftp://x/4", Category: model.CategoryGeneral},
	}
	for _, l := range cases {
		ok, err := s.AddListing(ctx, l)
		if err != nil {
			t.Fatalf("AddListing(%+v): %v", l, err)
		}
		if ok {
			t.Errorf("AddListing(%+v) = true, want rejection", l)
		}
	}
}

func TestLatestListings_BoundsAndCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustAdd(t, s, "Remote Role", "Acme",
			"https://x/remote/"+string(rune('a'+i)), model.CategoryRemote)
	}
	mustAdd(t, s, "Intern Role", "Acme", "https://x/intern/1", model.CategoryInternship)

	got, err := s.LatestListings(ctx, model.CategoryRemote, 3)
	if err != nil {
		t.Fatalf("LatestListings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit of 3 rows, got %d", len(got))
	}
	for _, l := range got {
		if l.Category != model.CategoryRemote {
			t.Errorf("listing %q has category %q, want remote", l.URL, l.Category)
		}
	}
	// Newest first.
	if got[0].ID < got[1].ID || got[1].ID < got[2].ID {
		t.Error("expected listings ordered most recent first")
	}
}

func TestRecentListings_WindowFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Backdate one listing beyond the window.
	_, err := s.db.Exec(
		"INSERT INTO jobs (title, company, url, category, created_at) VALUES (?, ?, ?, ?, ?)",
		"Old Role", "Acme", "https://x/old", "general", time.Now().UTC().Add(-48*time.Hour),
	)
	if err != nil {
		t.Fatalf("inserting old listing: %v", err)
	}
	mustAdd(t, s, "Fresh Role", "Acme", "https://x/fresh", model.CategoryGeneral)

	got, err := s.RecentListings(ctx, model.CategoryGeneral, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("RecentListings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the fresh listing, got %d rows", len(got))
	}
	if got[0].URL != "https://x/fresh" {
		t.Errorf("unexpected listing %q", got[0].URL)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(
		"INSERT INTO jobs (title, company, url, category, created_at) VALUES (?, ?, ?, ?, ?)",
		"Stale Role", "Acme", "https://x/stale", "general", time.Now().UTC().AddDate(0, 0, -40),
	)
	if err != nil {
		t.Fatalf("inserting stale listing: %v", err)
	}
	mustAdd(t, s, "Fresh Role", "Acme", "https://x/fresh", model.CategoryGeneral)

	removed, err := s.PurgeOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	c, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if c.Listings != 1 {
		t.Errorf("listings after purge = %d, want 1", c.Listings)
	}
}
