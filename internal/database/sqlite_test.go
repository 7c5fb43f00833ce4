package database

import (
	"path/filepath"
	"testing"
	"time"

	"CatalogEnricher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestSeedAndEnrichLifecycle(t *testing.T) {
	repo := newTestRepo(t)

	row := models.CatalogueRow{ID: 42, ASIN: "B0TEST1234"}
	require.NoError(t, repo.SeedRow(row, "https://www.amazon.in/dp/B0TEST1234", "run-1"))

	// Seeded rows are pending.
	records, err := repo.GetRecords(models.RecordFilters{Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B0TEST1234", records[0].ASIN)
	assert.Equal(t, int64(42), records[0].RowID)

	product := models.Product{
		ASIN:             "B0TEST1234",
		Title:            "USB-C Cable",
		Brand:            "Acme",
		Price:            "₹1,099",
		PriceValue:       1099,
		Rating:           4.3,
		ReviewCount:      1234,
		ImageURLs:        models.JSONStringSlice{"https://img.example/1.jpg"},
		ListingStatus:    "Active",
		EnrichmentStatus: models.StatusSuccess,
		RunID:            "run-1",
		ScrapedAt:        time.Now(),
	}
	require.NoError(t, repo.SaveEnrichment(product))

	enriched, err := repo.GetEnrichedProducts()
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, "USB-C Cable", enriched[0].Title)
	assert.Equal(t, 1099.0, enriched[0].PriceValue)
	assert.Equal(t, models.JSONStringSlice{"https://img.example/1.jpg"}, enriched[0].ImageURLs)
}

func TestSeedRowIsIdempotentPerASIN(t *testing.T) {
	repo := newTestRepo(t)

	row := models.CatalogueRow{ID: 1, ASIN: "B0DUP"}
	require.NoError(t, repo.SeedRow(row, "https://example.com/B0DUP", "run-1"))
	require.NoError(t, repo.SeedRow(row, "https://example.com/B0DUP", "run-2"))

	count, err := repo.CountRecords(models.RecordFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := repo.GetRecords(models.RecordFilters{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run-2", records[0].RunID)
}

func TestMarkFailed(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.SeedRow(models.CatalogueRow{ID: 7, ASIN: "B0FAIL"}, "url", "run-1"))
	require.NoError(t, repo.MarkFailed("B0FAIL", "run-1"))

	failed, err := repo.GetRecords(models.RecordFilters{Status: models.StatusScrapeFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)

	enriched, err := repo.GetEnrichedProducts()
	require.NoError(t, err)
	assert.Empty(t, enriched)
}

func TestSummaryWorkflow(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.SeedRow(models.CatalogueRow{ID: 1, ASIN: "B0SUM"}, "url", "run-1"))
	require.NoError(t, repo.SaveEnrichment(models.Product{
		ASIN:             "B0SUM",
		Title:            "Desk Lamp",
		EnrichmentStatus: models.StatusSuccessOnRetry,
		RunID:            "run-1",
		ScrapedAt:        time.Now(),
	}))

	pending, err := repo.GetProductsForSummary()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.UpdateSummary(pending[0].ID, "A bright desk lamp."))

	pending, err = repo.GetProductsForSummary()
	require.NoError(t, err)
	assert.Empty(t, pending)

	enriched, err := repo.GetEnrichedProducts()
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, "A bright desk lamp.", enriched[0].Summary)
}

func TestGetRecordsPagination(t *testing.T) {
	repo := newTestRepo(t)

	asins := []string{"B01", "B02", "B03"}
	for i, asin := range asins {
		require.NoError(t, repo.SeedRow(models.CatalogueRow{ID: int64(i + 1), ASIN: asin}, "url", "run-1"))
		require.NoError(t, repo.SaveEnrichment(models.Product{
			ASIN:             asin,
			Title:            "Product " + asin,
			EnrichmentStatus: models.StatusSuccess,
			RunID:            "run-1",
			ScrapedAt:        time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	page, err := repo.GetRecords(models.RecordFilters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, "B03", page[0].ASIN)

	page, err = repo.GetRecords(models.RecordFilters{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "B01", page[0].ASIN)
}
