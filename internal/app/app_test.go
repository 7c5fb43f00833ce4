package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"CatalogEnricher/internal/database"
	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"
	"CatalogEnricher/internal/scraper"
	"CatalogEnricher/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubScraper fails the first failFor[asin] attempts for an ASIN, or
// every attempt when failFor[asin] is -1.
type stubScraper struct {
	mu       sync.Mutex
	attempts map[string]int
	failFor  map[string]int
}

func newStubScraper(failFor map[string]int) *stubScraper {
	return &stubScraper{attempts: make(map[string]int), failFor: failFor}
}

func (s *stubScraper) ScrapeProduct(asin string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[asin]++
	limit := s.failFor[asin]
	if limit == -1 || s.attempts[asin] <= limit {
		return nil, errors.New("robot check detected")
	}
	return &models.Product{
		ASIN:      asin,
		Title:     "Product " + asin,
		ScrapedAt: time.Now(),
	}, nil
}

func (s *stubScraper) Close() {}

// stubConnector records every pushed batch.
type stubConnector struct {
	rows   []models.CatalogueRow
	pushed [][]models.RowUpdate
}

func (c *stubConnector) FetchCatalogue(ctx context.Context) ([]models.CatalogueRow, error) {
	return c.rows, nil
}

func (c *stubConnector) PushUpdates(ctx context.Context, updates []models.RowUpdate) error {
	c.pushed = append(c.pushed, updates)
	return nil
}

func newTestApp(t *testing.T, rows []models.CatalogueRow, factory scraperFactory) (*App, *stubConnector) {
	t.Helper()
	repo, err := database.InitDB(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	catalogue := &stubConnector{rows: rows}
	cfg := &config.Config{}
	cfg.Scraper = config.ScraperConfig{
		BaseURL:       "https://www.amazon.in/dp/",
		Workers:       "1",
		RatePerMinute: 6000,
		MaxRetries:    1,
	}

	return &App{
		Config:     cfg,
		Repo:       repo,
		Catalogue:  catalogue,
		Logger:     logger.NewMockLogger(),
		RunID:      "run-test",
		newScraper: factory,
	}, catalogue
}

func updatesByRowID(t *testing.T, updates []models.RowUpdate) map[int64]models.RowUpdate {
	t.Helper()
	byID := make(map[int64]models.RowUpdate, len(updates))
	for _, u := range updates {
		id, ok := u["id"].(int64)
		require.True(t, ok, "update without numeric id: %v", u)
		byID[id] = u
	}
	return byID
}

func TestRunEnrichmentTwoPassStatuses(t *testing.T) {
	rows := []models.CatalogueRow{
		{ID: 1, ASIN: "B0FIRSTTRY"},
		{ID: 2, ASIN: "B0SECONDGO"},
		{ID: 3, ASIN: "B0HOPELESS"},
	}
	stub := newStubScraper(map[string]int{
		"B0FIRSTTRY": 0,
		"B0SECONDGO": 1,
		"B0HOPELESS": -1,
	})
	app, catalogue := newTestApp(t, rows, func(config.ScraperConfig, logger.Logger) (scraper.ProductScraper, error) {
		return stub, nil
	})

	require.NoError(t, app.RunEnrichment(context.Background()))

	require.Len(t, catalogue.pushed, 1)
	byID := updatesByRowID(t, catalogue.pushed[0])
	require.Len(t, byID, 3)

	assert.Equal(t, models.StatusSuccess, byID[1][fieldEnrichmentStatus])
	assert.Equal(t, models.StatusSuccessOnRetry, byID[2][fieldEnrichmentStatus])
	assert.Equal(t, models.StatusScrapeFailed, byID[3][fieldEnrichmentStatus])
	// Failed rows get a status-only update, never blanked-out fields.
	assert.Len(t, byID[3], 3)
	assert.NotContains(t, byID[3], fieldTitle)

	enriched, err := app.Repo.GetEnrichedProducts()
	require.NoError(t, err)
	assert.Len(t, enriched, 2)

	failed, err := app.Repo.GetRecords(models.RecordFilters{Status: models.StatusScrapeFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "B0HOPELESS", failed[0].ASIN)
}

func TestRunEnrichmentDriverFailureAbortsRun(t *testing.T) {
	rows := []models.CatalogueRow{
		{ID: 1, ASIN: "B0AAAAAAA1"},
		{ID: 2, ASIN: "B0AAAAAAA2"},
	}
	app, catalogue := newTestApp(t, rows, func(config.ScraperConfig, logger.Logger) (scraper.ProductScraper, error) {
		return nil, errors.New("chrome executable not found")
	})

	err := app.RunEnrichment(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver setup failed")

	// No catalogue row may be marked failed for a scrape that never ran.
	assert.Empty(t, catalogue.pushed)
	pending, err := app.Repo.GetRecords(models.RecordFilters{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestRunEnrichmentRetryDriverFailureKeepsRowsPending(t *testing.T) {
	rows := []models.CatalogueRow{
		{ID: 1, ASIN: "B0FIRSTTRY"},
		{ID: 2, ASIN: "B0HOPELESS"},
	}
	stub := newStubScraper(map[string]int{
		"B0FIRSTTRY": 0,
		"B0HOPELESS": -1,
	})
	launches := 0
	app, catalogue := newTestApp(t, rows, func(config.ScraperConfig, logger.Logger) (scraper.ProductScraper, error) {
		launches++
		if launches > 1 {
			return nil, errors.New("chrome crashed")
		}
		return stub, nil
	})

	err := app.RunEnrichment(context.Background())
	require.Error(t, err)

	// The first-pass result still reaches the catalogue; the row that
	// never got its retry keeps its pending status instead of a verdict.
	require.Len(t, catalogue.pushed, 1)
	byID := updatesByRowID(t, catalogue.pushed[0])
	require.Len(t, byID, 1)
	assert.Equal(t, models.StatusSuccess, byID[1][fieldEnrichmentStatus])

	pending, err := app.Repo.GetRecords(models.RecordFilters{Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "B0HOPELESS", pending[0].ASIN)
}
