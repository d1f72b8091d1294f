package model

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Category partitions listings and user subscriptions. The set is closed:
// nothing outside it is ever persisted.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryRemote      Category = "remote"
	CategoryInternship  Category = "internship"
	CategoryScholarship Category = "scholarship"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{CategoryGeneral, CategoryRemote, CategoryInternship, CategoryScholarship}
}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryGeneral:
		return CategoryGeneral, nil
	case CategoryRemote:
		return CategoryRemote, nil
	case CategoryInternship:
		return CategoryInternship, nil
	case CategoryScholarship:
		return CategoryScholarship, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// Listing is one normalized job/internship/scholarship/remote-work posting.
// The URL is the dedup boundary: the store keeps at most one row per URL.
type Listing struct {
	ID        int64
	Title     string
	Company   string
	URL       string
	Category  Category
	CreatedAt time.Time
}

// User is a subscribed Telegram user. Created on first contact; only the
// category ever changes afterwards.
type User struct {
	TelegramID int64
	Name       string
	Category   Category
	JoinedAt   time.Time
}

// StoreCounts is a snapshot of table sizes for the stats surfaces.
type StoreCounts struct {
	Users    int64
	Listings int64
}

// ListingStore persists subscribed users and deduplicated listings.
type ListingStore interface {
	RegisterUser(ctx context.Context, telegramID int64, name string) (bool, error)
	SetCategory(ctx context.Context, telegramID int64, category Category) (bool, error)
	AddListing(ctx context.Context, l Listing) (bool, error)
	LatestListings(ctx context.Context, category Category, limit int) ([]Listing, error)
	RecentListings(ctx context.Context, category Category, since time.Time) ([]Listing, error)
	ListUsers(ctx context.Context) ([]User, error)
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	Counts(ctx context.Context) (StoreCounts, error)
}

// Scraper fetches a bounded batch of candidate listings from one external
// source.
type Scraper interface {
	Name() string
	Fetch(ctx context.Context) ([]Listing, error)
}

// Messenger delivers one message to one recipient. Implementations return
// ErrRecipientGone (possibly wrapped) when the recipient is permanently
// unreachable.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
