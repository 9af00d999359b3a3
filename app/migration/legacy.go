// Package migration imports the legacy flat-file storage into the database.
// It is a one-time operation, but it is safe to re-run: every record is
// existence-checked before insertion.
package migration

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yeongdo-dev/funeral-watch/app/analyze"
	"github.com/yeongdo-dev/funeral-watch/app/database"
	"github.com/yeongdo-dev/funeral-watch/app/pipeline"
)

// Legacy file shapes. DB_RAW.json maps district names to item lists;
// DB_ANALYZE.json wraps its items in a "data" envelope; DB_SENDED.json is a
// plain hash list under "data".
type legacyRawItem struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Updated int    `json:"updated"`
}

type legacyAnalyzedFile struct {
	Data []legacyAnalyzedItem `json:"data"`
}

type legacyAnalyzedItem struct {
	URL      string         `json:"url"`
	Updated  int            `json:"updated"`
	Content  map[string]any `json:"content"`
	Hash     string         `json:"hash"`
	District string         `json:"goo"`
}

type legacySentFile struct {
	Data []string `json:"data"`
}

// Importer copies the legacy JSON files into the three record stores.
type Importer struct {
	dataDir string

	rawRepo      database.RawRepository
	analyzedRepo database.AnalyzedRepository
	sentRepo     database.SentRepository
}

func NewImporter(dataDir string, rawRepo database.RawRepository,
	analyzedRepo database.AnalyzedRepository, sentRepo database.SentRepository) *Importer {
	return &Importer{
		dataDir:      dataDir,
		rawRepo:      rawRepo,
		analyzedRepo: analyzedRepo,
		sentRepo:     sentRepo,
	}
}

// Run imports raw, analyzed and sent data in that order, so analyzed records
// can link back to their freshly imported raw rows.
func (i *Importer) Run(skipRaw bool) error {
	rawCount := 0
	if skipRaw {
		slog.Info("Skipping raw data import")
	} else {
		var err error
		rawCount, err = i.importRaw()
		if err != nil {
			return fmt.Errorf("raw import failed: %w", err)
		}
	}

	analyzedCount, err := i.importAnalyzed()
	if err != nil {
		return fmt.Errorf("analyzed import failed: %w", err)
	}

	sentCount, err := i.importSent()
	if err != nil {
		return fmt.Errorf("sent import failed: %w", err)
	}

	slog.Info("Migration completed", "raw", rawCount, "analyzed", analyzedCount, "sent", sentCount)
	return nil
}

func (i *Importer) importRaw() (int, error) {
	var data map[string][]legacyRawItem
	if err := i.loadFile("DB_RAW.json", &data); err != nil {
		return 0, err
	}

	count := 0
	for district, items := range data {
		for _, item := range items {
			contentHash := pipeline.HashContent(item.Content)

			exists, err := i.rawRepo.Exists(contentHash, district)
			if err != nil {
				return count, err
			}
			if exists {
				continue
			}

			if _, err := i.rawRepo.Insert(database.RawRecord{
				District:    district,
				URL:         item.URL,
				Content:     item.Content,
				ContentHash: contentHash,
				UpdateCount: item.Updated,
			}); err != nil {
				return count, err
			}
			count++
		}
	}

	slog.Info("Raw data imported", "count", count)
	return count, nil
}

func (i *Importer) importAnalyzed() (int, error) {
	var data legacyAnalyzedFile
	if err := i.loadFile("DB_ANALYZE.json", &data); err != nil {
		return 0, err
	}

	count := 0
	missingRaw := 0
	for _, item := range data.Data {
		exists, err := i.analyzedRepo.Exists(item.Hash)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		rawID, found, err := i.rawRepo.IDByHash(item.Hash)
		if err != nil {
			return count, err
		}
		if !found {
			missingRaw++
		}

		if err := i.analyzedRepo.Insert(database.AnalyzedRecord{
			RawID:       rawID,
			District:    item.District,
			URL:         item.URL,
			ContentHash: item.Hash,
			UpdateCount: item.Updated,
			Fields:      analyze.Clean(item.Content),
		}); err != nil {
			return count, err
		}
		count++
	}

	slog.Info("Analyzed data imported", "count", count, "missing_raw", missingRaw)
	return count, nil
}

func (i *Importer) importSent() (int, error) {
	var data legacySentFile
	if err := i.loadFile("DB_SENDED.json", &data); err != nil {
		return 0, err
	}

	count := 0
	for _, contentHash := range data.Data {
		exists, err := i.sentRepo.Exists(contentHash)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		if err := i.sentRepo.Insert(contentHash); err != nil {
			return count, err
		}
		count++
	}

	slog.Info("Sent markers imported", "count", count)
	return count, nil
}

// loadFile reads one legacy JSON file; a missing file is an empty dataset,
// not an error, since operators may never have enabled all three stores.
func (i *Importer) loadFile(name string, target any) error {
	path := filepath.Join(i.dataDir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Legacy file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
