package scrape

import (
	"context"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// onclickStrategy handles sites that route navigation through javascript:
// detail URLs live inside onclick handler strings and the pager advances
// with a goPage(N)-style call instead of an href.
type onclickStrategy struct {
	site
	onclickRe *regexp.Regexp
}

func (s *onclickStrategy) FetchListing(ctx context.Context, page int) (string, error) {
	return s.client.GetText(ctx, s.listURL(page), s.cfg.ForceProxy)
}

func (s *onclickStrategy) LastPage(listingHTML string) int {
	return s.lastPageFromAttr(listingHTML, "onclick")
}

func (s *onclickStrategy) ExtractItems(ctx context.Context, listingHTML string) []Item {
	container := s.listContainer(listingHTML)
	if container == nil {
		return nil
	}

	var urls []string
	container.Find("a[onclick]").Each(func(_ int, link *goquery.Selection) {
		onclick, _ := link.Attr("onclick")
		match := s.onclickRe.FindStringSubmatch(onclick)
		if match == nil {
			return
		}
		urls = append(urls, s.cfg.BaseURL+match[1])
	})

	return s.fetchDetails(ctx, urls)
}
