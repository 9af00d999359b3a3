package scrape

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// linkStrategy is the common shape: detail hrefs inside the listing
// container, page number in a query parameter of the last pagination href.
type linkStrategy struct {
	site
}

func (s *linkStrategy) FetchListing(ctx context.Context, page int) (string, error) {
	return s.client.GetText(ctx, s.listURL(page), s.cfg.ForceProxy)
}

func (s *linkStrategy) LastPage(listingHTML string) int {
	return s.lastPageFromAttr(listingHTML, "href")
}

func (s *linkStrategy) ExtractItems(ctx context.Context, listingHTML string) []Item {
	container := s.listContainer(listingHTML)
	if container == nil {
		return nil
	}

	var urls []string
	container.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		urls = append(urls, s.cfg.BaseURL+href)
	})

	return s.fetchDetails(ctx, urls)
}
