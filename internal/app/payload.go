package app

import (
	"strings"
	"time"

	"CatalogEnricher/internal/models"
)

// Catalogue column names the enrichment job writes.
const (
	fieldEnrichmentStatus = "Enrichment Status"
	fieldLastEnrichedAt   = "Last Enriched At"
	fieldListingStatus    = "Listing Status"
	fieldTitle            = "Title"
	fieldBrand            = "Brand"
	fieldPrice            = "Price"
	fieldRating           = "Rating"
	fieldReviewCount      = "Review Count"
	fieldBulletPoints     = "Bullet Points"
	fieldDescription      = "Product Description"
	fieldAllImageURLs     = "All Image URLs"
	fieldPrimaryImage     = "Product Image 1"
	fieldAISummary        = "AI Summary"
)

// BuildRowUpdate maps a scraped product onto the catalogue's column names.
// Only fields that were actually extracted are included, so a partial
// scrape never blanks existing catalogue values.
func BuildRowUpdate(p models.Product, now time.Time) models.RowUpdate {
	update := models.RowUpdate{
		"id":                  p.RowID,
		fieldEnrichmentStatus: p.EnrichmentStatus,
		fieldLastEnrichedAt:   now.Format(time.RFC3339),
	}

	if p.ListingStatus != "" {
		update[fieldListingStatus] = p.ListingStatus
	}
	if p.Title != "" {
		update[fieldTitle] = p.Title
	}
	if p.Brand != "" {
		update[fieldBrand] = p.Brand
	}
	if p.Price != "" {
		update[fieldPrice] = p.Price
	}
	if p.Rating > 0 {
		update[fieldRating] = p.Rating
	}
	if p.ReviewCount > 0 {
		update[fieldReviewCount] = p.ReviewCount
	}
	if p.BulletPoints != "" {
		update[fieldBulletPoints] = p.BulletPoints
	}
	if p.Description != "" {
		update[fieldDescription] = p.Description
	}
	if len(p.ImageURLs) > 0 {
		update[fieldAllImageURLs] = strings.Join(p.ImageURLs, ", ")
		update[fieldPrimaryImage] = p.ImageURLs[0]
	}
	if p.Summary != "" {
		update[fieldAISummary] = p.Summary
	}

	return update
}

// FailedRowUpdate produces the status-only update for a row whose scrape
// failed both passes.
func FailedRowUpdate(rowID int64, now time.Time) models.RowUpdate {
	return models.RowUpdate{
		"id":                  rowID,
		fieldEnrichmentStatus: models.StatusScrapeFailed,
		fieldLastEnrichedAt:   now.Format(time.RFC3339),
	}
}
