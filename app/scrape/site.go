package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yeongdo-dev/funeral-watch/app/config"
	"github.com/yeongdo-dev/funeral-watch/app/fetch"
)

// site carries the pieces every strategy variant needs.
type site struct {
	cfg      config.Site
	district string
	client   *fetch.Client
	pageRe   *regexp.Regexp
}

func (s *site) listURL(page int) string {
	return fmt.Sprintf(s.cfg.ListURL, page)
}

func parseDoc(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// lastPageFromAttr extracts the page count from the pagination element: the
// named attribute of its last anchor is matched against the site's page
// pattern. A missing pagination block means a single page, not an error.
func (s *site) lastPageFromAttr(listingHTML, attr string) int {
	doc, err := parseDoc(listingHTML)
	if err != nil {
		return 1
	}

	links := doc.Find(s.cfg.PaginationSelector).First().Find("a[" + attr + "]")
	if links.Length() == 0 {
		return 1
	}

	value, _ := links.Last().Attr(attr)
	match := s.pageRe.FindStringSubmatch(value)
	if match == nil {
		return 1
	}

	page, err := strconv.Atoi(match[1])
	if err != nil {
		return 1
	}
	return page
}

// extractContent pulls body text out of a detail page. Literal line-break
// markup is converted to newlines before parsing so the notice keeps its
// paragraph structure. A missing content container degrades to empty text.
func (s *site) extractContent(html string) string {
	html = strings.ReplaceAll(html, s.cfg.BrTag, "\n")

	doc, err := parseDoc(html)
	if err != nil {
		slog.Warn("Failed to parse detail page", "district", s.district, "error", err)
		return ""
	}

	container := doc.Find(s.cfg.ContentSelector).First()
	if container.Length() == 0 {
		slog.Warn("Content container not found", "district", s.district)
		return ""
	}

	return strings.TrimSpace(container.Text())
}

// fetchDetails resolves each detail URL into a scraped item, continuing past
// per-URL failures so one broken posting cannot sink the district.
func (s *site) fetchDetails(ctx context.Context, urls []string) []Item {
	var items []Item
	for _, url := range urls {
		select {
		case <-ctx.Done():
			return items
		default:
		}

		html, err := s.client.GetText(ctx, url, s.cfg.ForceProxy)
		if err != nil {
			slog.Warn("Failed to fetch detail page, skipping", "district", s.district, "url", url, "error", err)
			continue
		}

		items = append(items, Item{URL: url, Content: s.extractContent(html)})
	}
	return items
}

// listContainer finds the listing container, logging when the site's markup
// no longer matches the configured selector.
func (s *site) listContainer(listingHTML string) *goquery.Selection {
	doc, err := parseDoc(listingHTML)
	if err != nil {
		slog.Warn("Failed to parse listing page", "district", s.district, "error", err)
		return nil
	}

	container := doc.Find(s.cfg.ListSelector).First()
	if container.Length() == 0 {
		slog.Warn("Listing container not found", "district", s.district)
		return nil
	}
	return container
}
