package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/yeongdo-dev/funeral-watch/app/config"
	"github.com/yeongdo-dev/funeral-watch/app/fetch"
)

// Strategy is the per-site capability set. Each variant knows how to pull a
// listing page, how far the pager goes, and how to turn a listing into
// scraped items (fetching detail pages itself when the site requires it).
type Strategy interface {
	FetchListing(ctx context.Context, page int) (string, error)
	LastPage(listingHTML string) int
	ExtractItems(ctx context.Context, listingHTML string) []Item
}

// Scraper drives a Strategy through the shared pagination-bounded loop.
type Scraper struct {
	District string
	strategy Strategy
}

// New builds a scraper for a district definition, selecting the strategy
// variant declared in its site configuration.
func New(district *config.District, client *fetch.Client) (*Scraper, error) {
	pageRe, err := regexp.Compile(district.Site.PagePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid page_pattern for %s: %w", district.Code, err)
	}

	base := site{
		cfg:      district.Site,
		district: district.Name,
		client:   client,
		pageRe:   pageRe,
	}

	var strategy Strategy
	switch district.Site.Variant {
	case config.VariantLink:
		strategy = &linkStrategy{site: base}
	case config.VariantOnclick:
		onclickRe, err := regexp.Compile(district.Site.OnclickPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid onclick_pattern for %s: %w", district.Code, err)
		}
		strategy = &onclickStrategy{site: base, onclickRe: onclickRe}
	case config.VariantBlog:
		strategy = &blogStrategy{site: base}
	case config.VariantPost:
		strategy = &postStrategy{linkStrategy: linkStrategy{site: base}}
	default:
		return nil, fmt.Errorf("unknown variant %q for %s", district.Site.Variant, district.Code)
	}

	return &Scraper{District: district.Name, strategy: strategy}, nil
}

// Run scrapes up to maxPages listing pages. Individual page or URL failures
// degrade to fewer items; only a failure to load the first listing page is
// an error, since nothing can be discovered without it.
func (s *Scraper) Run(ctx context.Context, maxPages int) ([]Item, error) {
	first, err := s.strategy.FetchListing(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first listing page: %w", err)
	}

	lastPage := s.strategy.LastPage(first)
	if lastPage > maxPages {
		lastPage = maxPages
	}

	var items []Item
	for page := 1; page <= lastPage; page++ {
		select {
		case <-ctx.Done():
			return items, ctx.Err()
		default:
		}

		listing := first
		if page > 1 {
			listing, err = s.strategy.FetchListing(ctx, page)
			if err != nil {
				slog.Warn("Failed to fetch listing page, skipping", "district", s.District, "page", page, "error", err)
				continue
			}
		}

		items = append(items, s.strategy.ExtractItems(ctx, listing)...)
	}

	return items, nil
}
