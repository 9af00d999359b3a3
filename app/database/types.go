package database

import (
	"time"
)

// RawRecord is one scraped notice as stored in funeral_raw. Identity for
// dedupe purposes is (content_hash, district); the URL is kept for display
// and for deriving the update counter when a posting is edited.
type RawRecord struct {
	ID          int64
	District    string
	URL         string
	Content     string
	ContentHash string
	UpdateCount int
	CreatedAt   time.Time
}

// AnalyzedRecord is the structured form of a raw notice, keyed purely by
// content hash. Fields always carries the full fixed tag set.
type AnalyzedRecord struct {
	ID          int64
	RawID       int64
	District    string
	URL         string
	ContentHash string
	UpdateCount int
	Fields      map[string]string
	CreatedAt   time.Time
}
