package scrape

// Item is one scraped notice: the detail page URL and the extracted body
// text. Identity downstream is a hash of Content, never the URL.
type Item struct {
	URL     string
	Content string
}
