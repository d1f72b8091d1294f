package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobpulse/jobpulse/internal/model"
)

const internshalaURL = "https://internshala.com/internships/computer-science-internship/"

const internshalaMaxListings = 30

// Internshala scrapes computer science internships from the Internshala
// listings page.
type Internshala struct {
	client    *http.Client
	userAgent string
}

// NewInternshala creates a scraper for Internshala internship listings.
func NewInternshala(client *http.Client, userAgent string) *Internshala {
	return &Internshala{client: client, userAgent: userAgent}
}

func (s *Internshala) Name() string { return "internshala" }

// Fetch parses the listings page and normalizes each internship card into
// the unified Listing model. Cards without a title link are skipped.
func (s *Internshala) Fetch(ctx context.Context) ([]model.Listing, error) {
	resp, err := get(ctx, s.client, internshalaURL, s.userAgent, s.Name())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("internshala fetch: %w", err)
	}

	var listings []model.Listing
	doc.Find("div.individual_internship").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		link := card.Find("a.job-title-href").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = "https://internshala.com" + href
		}

		company := strings.TrimSpace(card.Find("p.company-name").First().Text())
		if company == "" {
			company = "Unknown"
		}

		listings = append(listings, model.Listing{
			Title:    title,
			Company:  company,
			URL:      href,
			Category: model.CategoryInternship,
		})
		return len(listings) < internshalaMaxListings
	})
	return listings, nil
}
