package config

// Variant selects the extraction strategy used for a district site.
type Variant string

const (
	// VariantLink extracts detail hrefs from the listing container and
	// fetches each detail page.
	VariantLink Variant = "link"
	// VariantOnclick recovers detail URLs from onclick handler strings.
	VariantOnclick Variant = "onclick"
	// VariantBlog takes both URL and content from the listing itself,
	// without a second fetch.
	VariantBlog Variant = "blog"
	// VariantPost retrieves listing pages via form submission carrying a
	// page-number field; detail handling matches VariantLink.
	VariantPost Variant = "post"
)

// District describes one administrative subdivision: where its notices are
// published, how to pull them apart, and where to deliver alerts.
type District struct {
	Code string // derived from filename, e.g. "haeundae"
	Name string `yaml:"name"` // canonical Korean name, e.g. "해운대구"

	ChatID string `yaml:"chat_id"` // destination Telegram channel

	Site Site `yaml:"site"`
}

// Site holds the per-site scraping parameters.
type Site struct {
	Variant Variant `yaml:"variant"`

	BaseURL string `yaml:"base_url"`
	// ListURL is the listing page URL template containing a %d verb for
	// the page number. For the post variant it is the form action URL.
	ListURL string `yaml:"list_url"`

	ListSelector       string `yaml:"list_selector"`
	ContentSelector    string `yaml:"content_selector"`
	PaginationSelector string `yaml:"pagination_selector"`

	// PagePattern extracts the page number from the last pagination link
	// (an href query parameter, or a function call for onclick sites).
	PagePattern string `yaml:"page_pattern"`

	// OnclickPattern recovers a navigable path from an onclick handler
	// string; first capture group is the path. Onclick variant only.
	OnclickPattern string `yaml:"onclick_pattern"`

	// ContentClass is the class of the sibling span carrying the notice
	// text inside a listing entry. Blog variant only.
	ContentClass string `yaml:"content_class"`
	// LinkPrefix is prepended between base URL and the listing href.
	// Blog variant only.
	LinkPrefix string `yaml:"link_prefix"`

	// PageField is the form field carrying the page number. Post variant only.
	PageField string `yaml:"page_field"`

	// LegacyGet makes the post variant send its form fields as query
	// parameters on a GET instead of a real POST. Kept for sites that were
	// onboarded against that behavior.
	LegacyGet bool `yaml:"legacy_get"`

	// BrTag is the literal line-break markup converted to a newline before
	// text extraction.
	BrTag string `yaml:"br_tag"`

	// ForceProxy routes every request through Tor (sources with a known
	// block history).
	ForceProxy bool `yaml:"force_proxy"`
}
