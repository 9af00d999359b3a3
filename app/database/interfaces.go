package database

// RawRepository handles funeral_raw records.
type RawRepository interface {
	// Exists is scoped by district as well as hash: templated wording can
	// legitimately repeat across districts and must not suppress delivery.
	Exists(contentHash, district string) (bool, error)
	Insert(record RawRecord) (int64, error)
	// MaxUpdateCount returns the highest update counter stored for a
	// posting URL within a district, and whether the URL was seen at all.
	MaxUpdateCount(district, url string) (int, bool, error)
	// IDByHash resolves a content hash to its raw record id, used when
	// importing legacy analyzed data.
	IDByHash(contentHash string) (int64, bool, error)
	ListUnanalyzed() ([]RawRecord, error)
}

// AnalyzedRepository handles funeral_analyzed records.
type AnalyzedRepository interface {
	Exists(contentHash string) (bool, error)
	Insert(record AnalyzedRecord) error
	// ListUnsent returns analyzed records with no sent marker, oldest
	// first, so delivery failures are retried on the next cycle without
	// re-analysis.
	ListUnsent() ([]AnalyzedRecord, error)
}

// SentRepository handles funeral_sent markers. A marker's existence means
// the notification was fully delivered for that exact content version.
type SentRepository interface {
	Exists(contentHash string) (bool, error)
	Insert(contentHash string) error
	ListHashes() ([]string, error)
	// CleanupDuplicates removes repeated markers for the same hash,
	// keeping the oldest. Returns the number of rows deleted.
	CleanupDuplicates() (int, error)
	// CleanupOrphans removes markers whose hash has no analyzed record.
	CleanupOrphans() (int, error)
}
