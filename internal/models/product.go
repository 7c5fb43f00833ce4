package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Enrichment statuses written back to the catalogue.
const (
	StatusPending        = "pending"
	StatusSuccess        = "Success"
	StatusSuccessOnRetry = "Success (on retry)"
	StatusScrapeFailed   = "Scrape Failed"
)

// Product holds everything scraped from one product page for one
// catalogue row.
type Product struct {
	ID               int64           `db:"id"`
	RowID            int64           `db:"row_id"` // catalogue row this record enriches
	ASIN             string          `db:"asin"`
	SourceURL        string          `db:"source_url"`
	Title            string          `db:"title"`
	Brand            string          `db:"brand"`
	Price            string          `db:"price"` // display string, e.g. "₹1,099"
	PriceValue       float64         `db:"price_value"`
	Rating           float64         `db:"rating"`
	ReviewCount      int             `db:"review_count"`
	BulletPoints     string          `db:"bullet_points"`
	Description      string          `db:"description"`
	ImageURLs        JSONStringSlice `db:"image_urls"`
	Summary          string          `db:"summary"`
	ListingStatus    string          `db:"listing_status"`
	EnrichmentStatus string          `db:"enrichment_status"`
	RunID            string          `db:"run_id"`
	ScrapedAt        time.Time       `db:"scraped_at"`
}

// Enriched reports whether the scrape produced a usable record. A page
// without a title is treated as a failed scrape no matter what else came
// back.
func (p *Product) Enriched() bool {
	return p.Title != ""
}

// JSONStringSlice is a custom type to handle JSON serialization/deserialization for []string
type JSONStringSlice []string

// Value implements the driver.Valuer interface to convert []string to JSON for database storage
func (j JSONStringSlice) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface to convert JSON from database to []string
func (j *JSONStringSlice) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for JSONStringSlice")
	}
	return json.Unmarshal(bytes, j)
}

// CatalogueRow is one row fetched from the catalogue table, reduced to the
// fields the enrichment job needs.
type CatalogueRow struct {
	ID   int64
	ASIN string
}

// RowUpdate is the field map sent back to the catalogue for a single row.
// Keys are the catalogue's human-readable column names.
type RowUpdate map[string]interface{}

// RecordFilters holds the query parameters accepted by the records API.
type RecordFilters struct {
	Status string
	Brand  string
	Limit  int
	Offset int
}
