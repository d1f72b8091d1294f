package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/jobpulse/jobpulse/internal/model"
)

const weWorkRemotelyURL = "https://weworkremotely.com/categories/remote-programming-jobs.rss"

const weWorkRemotelyMaxListings = 50

// WeWorkRemotely fetches programming jobs from the We Work Remotely RSS feed.
type WeWorkRemotely struct {
	client    *http.Client
	userAgent string
	parser    *gofeed.Parser
}

// NewWeWorkRemotely creates a scraper for the We Work Remotely feed.
func NewWeWorkRemotely(client *http.Client, userAgent string) *WeWorkRemotely {
	return &WeWorkRemotely{
		client:    client,
		userAgent: userAgent,
		parser:    gofeed.NewParser(),
	}
}

func (s *WeWorkRemotely) Name() string { return "weworkremotely" }

// Fetch retrieves feed items and normalizes them into the unified Listing
// model. Item titles follow the "Company: Title" convention; items without
// the separator keep the full title and an Unknown company.
func (s *WeWorkRemotely) Fetch(ctx context.Context) ([]model.Listing, error) {
	resp, err := get(ctx, s.client, weWorkRemotelyURL, s.userAgent, s.Name())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("weworkremotely fetch: %w", err)
	}

	items := feed.Items
	if len(items) > weWorkRemotelyMaxListings {
		items = items[:weWorkRemotelyMaxListings]
	}

	listings := make([]model.Listing, 0, len(items))
	for _, it := range items {
		if it == nil || strings.TrimSpace(it.Link) == "" {
			continue
		}
		company, title := splitFeedTitle(it.Title)
		if title == "" {
			continue
		}
		listings = append(listings, model.Listing{
			Title:    title,
			Company:  company,
			URL:      strings.TrimSpace(it.Link),
			Category: model.CategoryGeneral,
		})
	}
	return listings, nil
}

// splitFeedTitle splits a "Company: Title" feed item title. The split happens
// on the first colon only, since job titles themselves may contain colons.
func splitFeedTitle(raw string) (company, title string) {
	raw = strings.TrimSpace(raw)
	if before, after, found := strings.Cut(raw, ":"); found {
		company = strings.TrimSpace(before)
		title = strings.TrimSpace(after)
	} else {
		title = raw
	}
	if company == "" {
		company = "Unknown"
	}
	return company, title
}
