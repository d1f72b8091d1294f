package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobpulse/jobpulse/internal/model"
)

const scholarshipsCornerURL = "https://scholarshipscorner.website/"

const scholarshipsCornerMaxListings = 30

// ScholarshipsCorner scrapes scholarship announcements from the
// Scholarships Corner front page.
type ScholarshipsCorner struct {
	client    *http.Client
	userAgent string
}

// NewScholarshipsCorner creates a scraper for Scholarships Corner posts.
func NewScholarshipsCorner(client *http.Client, userAgent string) *ScholarshipsCorner {
	return &ScholarshipsCorner{client: client, userAgent: userAgent}
}

func (s *ScholarshipsCorner) Name() string { return "scholarshipscorner" }

// Fetch parses post entries and normalizes them into the unified Listing
// model. Scholarship posts have no employer, so the provider site name is
// used as the company.
func (s *ScholarshipsCorner) Fetch(ctx context.Context) ([]model.Listing, error) {
	resp, err := get(ctx, s.client, scholarshipsCornerURL, s.userAgent, s.Name())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scholarshipscorner fetch: %w", err)
	}

	var listings []model.Listing
	doc.Find("h2.entry-title a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return true
		}
		listings = append(listings, model.Listing{
			Title:    title,
			Company:  "Scholarships Corner",
			URL:      href,
			Category: model.CategoryScholarship,
		})
		return len(listings) < scholarshipsCornerMaxListings
	})
	return listings, nil
}
