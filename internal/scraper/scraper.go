package scraper

import "CatalogEnricher/internal/models"

// ProductScraper defines the behavior any marketplace scraper must
// provide to the enrichment job. Adding a new source site means
// implementing this interface.
type ProductScraper interface {
	// ScrapeProduct loads the product page for the given marketplace
	// identifier and returns the extracted record. The record's
	// EnrichmentStatus is left for the caller to assign.
	ScrapeProduct(asin string) (*models.Product, error)

	// Close releases the browser session owned by the scraper.
	Close()
}
