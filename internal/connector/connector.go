package connector

import (
	"context"

	"CatalogEnricher/internal/models"
)

// Connector mediates between the enrichment job and the catalogue that
// owns the product rows. Any backing store (Baserow today) follows this
// contract.
type Connector interface {
	// FetchCatalogue returns every catalogue row carrying a marketplace
	// product identifier.
	FetchCatalogue(ctx context.Context) ([]models.CatalogueRow, error)

	// PushUpdates writes enrichment results back to the catalogue in
	// batches.
	PushUpdates(ctx context.Context, updates []models.RowUpdate) error
}
