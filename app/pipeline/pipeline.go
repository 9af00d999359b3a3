package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yeongdo-dev/funeral-watch/app/analyze"
	"github.com/yeongdo-dev/funeral-watch/app/database"
	"github.com/yeongdo-dev/funeral-watch/app/scrape"
)

// Runner scrapes one district's site. Implemented by *scrape.Scraper.
type Runner interface {
	Run(ctx context.Context, maxPages int) ([]scrape.Item, error)
}

// Analyzer extracts structured fields from notice text. Implemented by
// *analyze.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (map[string]any, error)
}

// Notifier delivers one funeral notice to all of its required channels.
// Implemented by *notify.Service.
type Notifier interface {
	NotifyFuneral(ctx context.Context, district, url string, updateCount int, fields map[string]string) bool
}

// Source pairs a district name with its scraper.
type Source struct {
	District string
	Scraper  Runner
}

// Options controls a single pipeline run.
type Options struct {
	// SkipRaw skips the scrape stage; analysis and delivery still run
	// against whatever the store already holds.
	SkipRaw bool
}

// Pipeline executes the scrape-dedupe-notify cycle. Every stage is
// idempotent against the store, so a run can die anywhere and the next one
// picks up cleanly.
type Pipeline struct {
	sources  []Source
	analyzer Analyzer
	notifier Notifier

	rawRepo      database.RawRepository
	analyzedRepo database.AnalyzedRepository
	sentRepo     database.SentRepository

	maxPages int
}

func New(sources []Source, analyzer Analyzer, notifier Notifier,
	rawRepo database.RawRepository, analyzedRepo database.AnalyzedRepository,
	sentRepo database.SentRepository, maxPages int) *Pipeline {
	return &Pipeline{
		sources:      sources,
		analyzer:     analyzer,
		notifier:     notifier,
		rawRepo:      rawRepo,
		analyzedRepo: analyzedRepo,
		sentRepo:     sentRepo,
		maxPages:     maxPages,
	}
}

// Run executes the three stages in order, checking for cancellation between
// them. Per-district and per-item failures are logged and skipped; only
// store-level failures abort the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	if !opts.SkipRaw {
		if err := p.ingestRaw(ctx); err != nil {
			return fmt.Errorf("raw ingestion stage failed: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.analyzeNew(ctx); err != nil {
		return fmt.Errorf("analysis stage failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.sendPending(ctx); err != nil {
		return fmt.Errorf("notification stage failed: %w", err)
	}

	return nil
}

// ingestRaw scrapes every district sequentially, hashing each item and
// storing only content versions the store has not seen for that district.
func (p *Pipeline) ingestRaw(ctx context.Context) error {
	for _, source := range p.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		items, err := source.Scraper.Run(ctx, p.maxPages)
		if err != nil {
			slog.Error("District scrape failed, continuing with remaining districts", "district", source.District, "error", err)
			continue
		}

		newCount := 0
		duplicateCount := 0

		for _, item := range items {
			contentHash := HashContent(item.Content)

			exists, err := p.rawRepo.Exists(contentHash, source.District)
			if err != nil {
				return err
			}
			if exists {
				duplicateCount++
				continue
			}

			// A known URL with a new hash is an edited posting; the
			// counter only changes how the message is phrased.
			updateCount := 0
			if prev, seen, err := p.rawRepo.MaxUpdateCount(source.District, item.URL); err != nil {
				return err
			} else if seen {
				updateCount = prev + 1
			}

			if _, err := p.rawRepo.Insert(database.RawRecord{
				District:    source.District,
				URL:         item.URL,
				Content:     item.Content,
				ContentHash: contentHash,
				UpdateCount: updateCount,
			}); err != nil {
				return err
			}
			newCount++
		}

		slog.Info("District scraped", "district", source.District, "total", len(items), "new", newCount, "duplicates", duplicateCount)
	}

	return nil
}

// analyzeNew runs extraction for raw records with no analyzed counterpart.
// A failed analysis leaves no record behind, so the item is retried whole on
// the next cycle instead of being delivered with garbage fields.
func (p *Pipeline) analyzeNew(ctx context.Context) error {
	records, err := p.rawRepo.ListUnanalyzed()
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The same content can sit in several districts' raw records; the
		// hash is analyzed once.
		exists, err := p.analyzedRepo.Exists(record.ContentHash)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		raw, err := p.analyzer.Analyze(ctx, record.Content)
		if err != nil {
			slog.Error("Analysis failed, item will be retried next cycle", "district", record.District, "url", record.URL, "error", err)
			continue
		}

		if err := p.analyzedRepo.Insert(database.AnalyzedRecord{
			RawID:       record.ID,
			District:    record.District,
			URL:         record.URL,
			ContentHash: record.ContentHash,
			UpdateCount: record.UpdateCount,
			Fields:      analyze.Clean(raw),
		}); err != nil {
			return err
		}

		slog.Debug("Notice analyzed", "district", record.District, "url", record.URL)
	}

	if len(records) > 0 {
		slog.Info("Analysis stage completed", "candidates", len(records))
	}

	return nil
}

// sendPending delivers analyzed records that have no sent marker. The marker
// is written only after delivery to every required channel succeeded.
func (p *Pipeline) sendPending(ctx context.Context) error {
	records, err := p.analyzedRepo.ListUnsent()
	if err != nil {
		return err
	}

	sentCount := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !p.notifier.NotifyFuneral(ctx, record.District, record.URL, record.UpdateCount, record.Fields) {
			slog.Warn("Notification failed, item will be retried next cycle", "district", record.District, "url", record.URL)
			continue
		}

		if err := p.sentRepo.Insert(record.ContentHash); err != nil {
			return err
		}
		sentCount++
	}

	if len(records) > 0 {
		slog.Info("Notification stage completed", "pending", len(records), "sent", sentCount)
	}

	return nil
}
