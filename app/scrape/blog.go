package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blogStrategy covers sites that publish the notice text directly in the
// listing: a link plus a sibling text span, no detail page fetch at all.
type blogStrategy struct {
	site
}

func (s *blogStrategy) FetchListing(ctx context.Context, page int) (string, error) {
	return s.client.GetText(ctx, s.listURL(page), s.cfg.ForceProxy)
}

func (s *blogStrategy) LastPage(listingHTML string) int {
	return s.lastPageFromAttr(listingHTML, "href")
}

func (s *blogStrategy) ExtractItems(_ context.Context, listingHTML string) []Item {
	listingHTML = strings.ReplaceAll(listingHTML, s.cfg.BrTag, "\n")

	container := s.listContainer(listingHTML)
	if container == nil {
		return nil
	}

	var items []Item
	container.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		content := strings.TrimSpace(link.Find("span." + s.cfg.ContentClass).Text())
		if content == "" {
			return
		}
		items = append(items, Item{
			URL:     s.cfg.BaseURL + s.cfg.LinkPrefix + href,
			Content: content,
		})
	})

	return items
}
