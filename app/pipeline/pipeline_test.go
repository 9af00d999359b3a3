package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/yeongdo-dev/funeral-watch/app/database"
	"github.com/yeongdo-dev/funeral-watch/app/scrape"
)

// memStore backs the in-memory repository fakes so all three views share one
// dataset, the way the real tables do.
type memStore struct {
	raw      []database.RawRecord
	analyzed []database.AnalyzedRecord
	sent     []string
	nextID   int64
}

func (m *memStore) analyzedHas(contentHash string) bool {
	for _, rec := range m.analyzed {
		if rec.ContentHash == contentHash {
			return true
		}
	}
	return false
}

func (m *memStore) sentHas(contentHash string) bool {
	for _, hash := range m.sent {
		if hash == contentHash {
			return true
		}
	}
	return false
}

type memRawRepo struct{ s *memStore }

func (r *memRawRepo) Exists(contentHash, district string) (bool, error) {
	for _, rec := range r.s.raw {
		if rec.ContentHash == contentHash && rec.District == district {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRawRepo) Insert(record database.RawRecord) (int64, error) {
	r.s.nextID++
	record.ID = r.s.nextID
	r.s.raw = append(r.s.raw, record)
	return record.ID, nil
}

func (r *memRawRepo) MaxUpdateCount(district, url string) (int, bool, error) {
	highest, seen := 0, false
	for _, rec := range r.s.raw {
		if rec.District == district && rec.URL == url {
			if !seen || rec.UpdateCount > highest {
				highest = rec.UpdateCount
			}
			seen = true
		}
	}
	return highest, seen, nil
}

func (r *memRawRepo) IDByHash(contentHash string) (int64, bool, error) {
	for _, rec := range r.s.raw {
		if rec.ContentHash == contentHash {
			return rec.ID, true, nil
		}
	}
	return 0, false, nil
}

func (r *memRawRepo) ListUnanalyzed() ([]database.RawRecord, error) {
	var records []database.RawRecord
	for _, rec := range r.s.raw {
		if !r.s.analyzedHas(rec.ContentHash) {
			records = append(records, rec)
		}
	}
	return records, nil
}

type memAnalyzedRepo struct{ s *memStore }

func (r *memAnalyzedRepo) Exists(contentHash string) (bool, error) {
	return r.s.analyzedHas(contentHash), nil
}

func (r *memAnalyzedRepo) Insert(record database.AnalyzedRecord) error {
	r.s.analyzed = append(r.s.analyzed, record)
	return nil
}

func (r *memAnalyzedRepo) ListUnsent() ([]database.AnalyzedRecord, error) {
	var records []database.AnalyzedRecord
	for _, rec := range r.s.analyzed {
		if !r.s.sentHas(rec.ContentHash) {
			records = append(records, rec)
		}
	}
	return records, nil
}

type memSentRepo struct{ s *memStore }

func (r *memSentRepo) Exists(contentHash string) (bool, error) {
	return r.s.sentHas(contentHash), nil
}

func (r *memSentRepo) Insert(contentHash string) error {
	r.s.sent = append(r.s.sent, contentHash)
	return nil
}

func (r *memSentRepo) ListHashes() ([]string, error) {
	return r.s.sent, nil
}

func (r *memSentRepo) CleanupDuplicates() (int, error) {
	seen := make(map[string]bool)
	var kept []string
	deleted := 0
	for _, hash := range r.s.sent {
		if seen[hash] {
			deleted++
			continue
		}
		seen[hash] = true
		kept = append(kept, hash)
	}
	r.s.sent = kept
	return deleted, nil
}

func (r *memSentRepo) CleanupOrphans() (int, error) {
	var kept []string
	deleted := 0
	for _, hash := range r.s.sent {
		if r.s.analyzedHas(hash) {
			kept = append(kept, hash)
		} else {
			deleted++
		}
	}
	r.s.sent = kept
	return deleted, nil
}

type fakeScraper struct {
	items []scrape.Item
	err   error
	calls int
}

func (f *fakeScraper) Run(_ context.Context, _ int) ([]scrape.Item, error) {
	f.calls++
	return f.items, f.err
}

type fakeAnalyzer struct {
	err   error
	calls int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{"이름": "홍길동", "장례장소": "영락공원"}, nil
}

type notifyCall struct {
	district    string
	url         string
	updateCount int
}

type fakeNotifier struct {
	// results are consumed in call order; once exhausted every delivery
	// succeeds.
	results []bool
	calls   []notifyCall
}

func (f *fakeNotifier) NotifyFuneral(_ context.Context, district, url string, updateCount int, _ map[string]string) bool {
	f.calls = append(f.calls, notifyCall{district: district, url: url, updateCount: updateCount})
	if len(f.results) == 0 {
		return true
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type testHarness struct {
	store    *memStore
	scraper  *fakeScraper
	analyzer *fakeAnalyzer
	notifier *fakeNotifier
	pipeline *Pipeline
}

func newTestHarness(district string, items []scrape.Item) *testHarness {
	store := &memStore{}
	scraper := &fakeScraper{items: items}
	analyzer := &fakeAnalyzer{}
	notifier := &fakeNotifier{}

	p := New(
		[]Source{{District: district, Scraper: scraper}},
		analyzer,
		notifier,
		&memRawRepo{s: store},
		&memAnalyzedRepo{s: store},
		&memSentRepo{s: store},
		3,
	)

	return &testHarness{store: store, scraper: scraper, analyzer: analyzer, notifier: notifier, pipeline: p}
}

func TestRunDeliversNewItemsExactlyOnce(t *testing.T) {
	h := newTestHarness("영도구", []scrape.Item{
		{URL: "https://example.com/1", Content: "부고 1"},
		{URL: "https://example.com/2", Content: "부고 2"},
	})

	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	if len(h.notifier.calls) != 2 {
		t.Fatalf("Expected 2 notifications on first run, got %d", len(h.notifier.calls))
	}
	if len(h.store.sent) != 2 {
		t.Errorf("Expected 2 sent markers, got %d", len(h.store.sent))
	}

	// Second run with unchanged source content must be fully quiet.
	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if len(h.store.raw) != 2 {
		t.Errorf("Expected no new raw records on second run, got %d total", len(h.store.raw))
	}
	if len(h.notifier.calls) != 2 {
		t.Errorf("Expected no notifications on second run, got %d total", len(h.notifier.calls))
	}
	if h.analyzer.calls != 2 {
		t.Errorf("Expected no re-analysis on second run, got %d calls total", h.analyzer.calls)
	}
}

func TestRunEditedPostingGetsUpdateCounter(t *testing.T) {
	h := newTestHarness("영도구", []scrape.Item{
		{URL: "https://example.com/1", Content: "부고 원문"},
	})

	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if h.notifier.calls[0].updateCount != 0 {
		t.Errorf("Expected update count 0 for a new posting, got %d", h.notifier.calls[0].updateCount)
	}

	// Same URL, edited content: a new content version of a known posting.
	h.scraper.items = []scrape.Item{
		{URL: "https://example.com/1", Content: "부고 수정본"},
	}
	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if len(h.notifier.calls) != 2 {
		t.Fatalf("Expected the edited posting to be delivered, got %d calls", len(h.notifier.calls))
	}
	if h.notifier.calls[1].updateCount != 1 {
		t.Errorf("Expected update count 1 for first edit, got %d", h.notifier.calls[1].updateCount)
	}

	// A second edit keeps counting up.
	h.scraper.items = []scrape.Item{
		{URL: "https://example.com/1", Content: "부고 재수정본"},
	}
	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Third run failed: %v", err)
	}
	if h.notifier.calls[2].updateCount != 2 {
		t.Errorf("Expected update count 2 for second edit, got %d", h.notifier.calls[2].updateCount)
	}
}

func TestRunSameContentDifferentDistrictsBothDelivered(t *testing.T) {
	store := &memStore{}
	content := "관내 무연고 사망자 공영장례 안내"
	scraperA := &fakeScraper{items: []scrape.Item{{URL: "https://a.example.com/1", Content: content}}}
	scraperB := &fakeScraper{items: []scrape.Item{{URL: "https://b.example.com/1", Content: content}}}
	notifier := &fakeNotifier{}

	p := New(
		[]Source{
			{District: "동구", Scraper: scraperA},
			{District: "서구", Scraper: scraperB},
		},
		&fakeAnalyzer{},
		notifier,
		&memRawRepo{s: store},
		&memAnalyzedRepo{s: store},
		&memSentRepo{s: store},
		3,
	)

	if err := p.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Raw dedupe is district-scoped, so both districts store the templated
	// text. Analysis and delivery are hash-keyed, so it is processed once.
	if len(store.raw) != 2 {
		t.Errorf("Expected raw records for both districts, got %d", len(store.raw))
	}
	if len(store.analyzed) != 1 {
		t.Errorf("Expected a single analyzed record for the shared hash, got %d", len(store.analyzed))
	}
	if len(notifier.calls) != 1 {
		t.Errorf("Expected a single delivery for the shared hash, got %d", len(notifier.calls))
	}
}

func TestRunAnalysisFailureRetriedNextCycle(t *testing.T) {
	h := newTestHarness("영도구", []scrape.Item{
		{URL: "https://example.com/1", Content: "부고"},
	})
	h.analyzer.err = errors.New("model unavailable")

	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// A failed analysis leaves nothing behind and sends nothing.
	if len(h.store.analyzed) != 0 {
		t.Errorf("Expected no analyzed record after failure, got %d", len(h.store.analyzed))
	}
	if len(h.notifier.calls) != 0 {
		t.Errorf("Expected no notifications after failed analysis, got %d", len(h.notifier.calls))
	}

	h.analyzer.err = nil
	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if len(h.store.analyzed) != 1 {
		t.Fatalf("Expected the item to be analyzed on retry, got %d records", len(h.store.analyzed))
	}
	if len(h.notifier.calls) != 1 {
		t.Errorf("Expected the item to be delivered on retry, got %d calls", len(h.notifier.calls))
	}
}

func TestRunDeliveryFailureLeavesNoSentMarker(t *testing.T) {
	h := newTestHarness("영도구", []scrape.Item{
		{URL: "https://example.com/1", Content: "부고"},
	})
	h.notifier.results = []bool{false}

	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(h.store.sent) != 0 {
		t.Fatalf("Expected no sent marker after failed delivery, got %d", len(h.store.sent))
	}

	// The next cycle retries delivery without scraping or analyzing again.
	if err := h.pipeline.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if len(h.notifier.calls) != 2 {
		t.Fatalf("Expected a redelivery attempt, got %d calls", len(h.notifier.calls))
	}
	if h.analyzer.calls != 1 {
		t.Errorf("Expected no re-analysis for a delivery retry, got %d calls", h.analyzer.calls)
	}
	if len(h.store.sent) != 1 {
		t.Errorf("Expected a sent marker after successful retry, got %d", len(h.store.sent))
	}
}

func TestRunScrapeFailureSkipsDistrictOnly(t *testing.T) {
	store := &memStore{}
	broken := &fakeScraper{err: errors.New("connection refused")}
	healthy := &fakeScraper{items: []scrape.Item{{URL: "https://example.com/1", Content: "부고"}}}
	notifier := &fakeNotifier{}

	p := New(
		[]Source{
			{District: "동구", Scraper: broken},
			{District: "서구", Scraper: healthy},
		},
		&fakeAnalyzer{},
		notifier,
		&memRawRepo{s: store},
		&memAnalyzedRepo{s: store},
		&memSentRepo{s: store},
		3,
	)

	if err := p.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("Expected the healthy district to be delivered, got %d calls", len(notifier.calls))
	}
	if notifier.calls[0].district != "서구" {
		t.Errorf("Expected delivery for 서구, got %s", notifier.calls[0].district)
	}
}

func TestRunSkipRawSkipsScraping(t *testing.T) {
	h := newTestHarness("영도구", []scrape.Item{
		{URL: "https://example.com/1", Content: "부고"},
	})

	// Pre-seed a raw record as if a previous run had scraped it.
	h.store.raw = append(h.store.raw, database.RawRecord{
		ID: 1, District: "영도구", URL: "https://example.com/0",
		Content: "기존 부고", ContentHash: HashContent("기존 부고"),
	})

	if err := h.pipeline.Run(context.Background(), Options{SkipRaw: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if h.scraper.calls != 0 {
		t.Errorf("Expected scraper to be skipped, got %d calls", h.scraper.calls)
	}
	if len(h.notifier.calls) != 1 {
		t.Errorf("Expected the pre-seeded record to be delivered, got %d calls", len(h.notifier.calls))
	}
}

func TestRunCancelledContext(t *testing.T) {
	h := newTestHarness("영도구", []scrape.Item{
		{URL: "https://example.com/1", Content: "부고"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.pipeline.Run(ctx, Options{}); err == nil {
		t.Fatal("Expected an error from a cancelled run")
	}

	if len(h.notifier.calls) != 0 {
		t.Errorf("Expected no deliveries from a cancelled run, got %d", len(h.notifier.calls))
	}
}
