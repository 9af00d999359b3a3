package scrape

import (
	"context"
	"strconv"
)

// postStrategy retrieves listing pages by submitting the pager form instead
// of a query-string GET. Detail fetching and extraction are identical to the
// link variant.
type postStrategy struct {
	linkStrategy
}

func (s *postStrategy) FetchListing(ctx context.Context, page int) (string, error) {
	form := map[string]string{s.cfg.PageField: strconv.Itoa(page)}
	if s.cfg.LegacyGet {
		return s.client.PostText(ctx, s.cfg.ListURL, form, s.cfg.ForceProxy)
	}
	return s.client.PostForm(ctx, s.cfg.ListURL, form, s.cfg.ForceProxy)
}
