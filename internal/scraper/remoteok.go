package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jobpulse/jobpulse/internal/model"
)

const remoteOKURL = "https://remoteok.com/remote-jobs.json"

// remoteOKMaxListings caps how many entries a single fetch yields after the
// leading metadata element is dropped.
const remoteOKMaxListings = 39

// remoteOKItem represents a single entry in the RemoteOK API response.
// The first element of the array is a legal/metadata blob, not a job.
type remoteOKItem struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	URL      string `json:"url"`
}

// RemoteOK fetches remote jobs from the RemoteOK public JSON API.
type RemoteOK struct {
	client    *http.Client
	userAgent string
}

// NewRemoteOK creates a scraper for the RemoteOK job feed.
func NewRemoteOK(client *http.Client, userAgent string) *RemoteOK {
	return &RemoteOK{client: client, userAgent: userAgent}
}

func (s *RemoteOK) Name() string { return "remoteok" }

// Fetch retrieves remote job listings and normalizes them into the unified
// Listing model. Entries missing a title or URL are skipped.
func (s *RemoteOK) Fetch(ctx context.Context) ([]model.Listing, error) {
	resp, err := get(ctx, s.client, remoteOKURL, s.userAgent, s.Name())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []remoteOKItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	if len(items) > 0 {
		items = items[1:]
	}
	if len(items) > remoteOKMaxListings {
		items = items[:remoteOKMaxListings]
	}

	listings := make([]model.Listing, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Position)
		if title == "" {
			title = strings.TrimSpace(it.Title)
		}
		if title == "" || strings.TrimSpace(it.URL) == "" {
			continue
		}
		company := strings.TrimSpace(it.Company)
		if company == "" {
			company = "Unknown"
		}
		listings = append(listings, model.Listing{
			Title:    title,
			Company:  company,
			URL:      strings.TrimSpace(it.URL),
			Category: model.CategoryRemote,
		})
	}
	return listings, nil
}
