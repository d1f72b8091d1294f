// Package store persists users and deduplicated listings in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jobpulse/jobpulse/internal/model"
)

const maxURLLength = 500

// SQLiteStore owns all persisted bot state: the users table and the jobs
// table. Every mutating call is a single implicit transaction.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			telegram_id INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			category    TEXT NOT NULL,
			joined_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			company    TEXT NOT NULL,
			url        TEXT NOT NULL UNIQUE,
			category   TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_category_created
			ON jobs (category, created_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// RegisterUser inserts a user on first contact with the default category.
// Returns true only when a new row was created; malformed input and
// re-registration both return false without error. An existing user's
// category is never overwritten.
func (s *SQLiteStore) RegisterUser(ctx context.Context, id int64, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if id <= 0 || name == "" {
		return false, nil
	}
	if len(name) > 100 {
		name = name[:100]
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (telegram_id, name, category) VALUES (?, ?, ?)",
		id, name, string(model.CategoryGeneral),
	)
	if err != nil {
		return false, fmt.Errorf("registering user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("registering user %d: %w", id, err)
	}
	return n > 0, nil
}

// SetCategory updates a user's subscription. Returns false if the category
// is outside the closed set or the user does not exist.
func (s *SQLiteStore) SetCategory(ctx context.Context, id int64, category model.Category) (bool, error) {
	if !category.Valid() {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET category = ? WHERE telegram_id = ?",
		string(category), id,
	)
	if err != nil {
		return false, fmt.Errorf("setting category for user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setting category for user %d: %w", id, err)
	}
	return n > 0, nil
}

// AddListing inserts a listing if its URL has not been seen. A URL collision
// is a no-op returning false, not an error. Listings with an empty required
// field, an overlong URL, or an invalid category are rejected with false.
func (s *SQLiteStore) AddListing(ctx context.Context, l model.Listing) (bool, error) {
	l.Title = strings.TrimSpace(l.Title)
	l.Company = strings.TrimSpace(l.Company)
	l.URL = strings.TrimSpace(l.URL)
	if l.Title == "" || l.Company == "" || l.URL == "" || !l.Category.Valid() {
		return false, nil
	}
	if len(l.URL) > maxURLLength || !strings.HasPrefix(l.URL, "http") {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO jobs (title, company, url, category, created_at) VALUES (?, ?, ?, ?, ?)",
		l.Title, l.Company, l.URL, string(l.Category), time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("adding listing %q: %w", l.URL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adding listing %q: %w", l.URL, err)
	}
	return n > 0, nil
}

// LatestListings returns up to limit listings of the given category,
// most recent first.
func (s *SQLiteStore) LatestListings(ctx context.Context, category model.Category, limit int) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, company, url, category, created_at
		 FROM jobs WHERE category = ? ORDER BY id DESC LIMIT ?`,
		string(category), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying latest listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// RecentListings returns listings of the given category created at or after
// since, most recent first. This is the daily digest query.
func (s *SQLiteStore) RecentListings(ctx context.Context, category model.Category, since time.Time) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, company, url, category, created_at
		 FROM jobs WHERE category = ? AND created_at >= ? ORDER BY id DESC`,
		string(category), since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// ListUsers returns every registered user.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT telegram_id, name, category, joined_at FROM users",
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var cat string
		if err := rows.Scan(&u.TelegramID, &u.Name, &cat, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.Category = model.Category(cat)
		users = append(users, u)
	}
	return users, rows.Err()
}

// PurgeOlderThan deletes listings created before now minus the given number
// of days and returns how many were removed.
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging listings older than %d days: %w", days, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging listings older than %d days: %w", days, err)
	}
	return n, nil
}

// Counts returns current table sizes.
func (s *SQLiteStore) Counts(ctx context.Context) (model.StoreCounts, error) {
	var c model.StoreCounts
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&c.Users); err != nil {
		return model.StoreCounts{}, fmt.Errorf("counting users: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&c.Listings); err != nil {
		return model.StoreCounts{}, fmt.Errorf("counting listings: %w", err)
	}
	return c, nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanListings(rows *sql.Rows) ([]model.Listing, error) {
	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var cat string
		if err := rows.Scan(&l.ID, &l.Title, &l.Company, &l.URL, &cat, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		l.Category = model.Category(cat)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
