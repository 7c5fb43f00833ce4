package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CatalogEnricher/internal/models"

	_ "modernc.org/sqlite" // pure Go driver, no cgo in the container image
)

// Repository wraps the local enrichment cache database.
type Repository struct {
	DB *sql.DB
}

// InitDB opens (creating if needed) the cache database and ensures the
// schema exists.
func InitDB(filepath string) (*Repository, error) {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	createProductsTableSQL := `
	CREATE TABLE IF NOT EXISTS products (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"row_id" INTEGER,
		"asin" TEXT UNIQUE,
		"source_url" TEXT,
		"title" TEXT,
		"brand" TEXT,
		"price" TEXT,
		"price_value" REAL,
		"rating" REAL,
		"review_count" INTEGER,
		"bullet_points" TEXT,
		"description" TEXT,
		"image_urls" TEXT,
		"summary" TEXT,
		"listing_status" TEXT,
		"enrichment_status" TEXT DEFAULT 'pending',
		"run_id" TEXT,
		"scraped_at" DATETIME
	);`

	if _, err = db.Exec(createProductsTableSQL); err != nil {
		return nil, fmt.Errorf("creating products table: %w", err)
	}

	return &Repository{DB: db}, nil
}

// Close closes the underlying database connection.
func (repo *Repository) Close() {
	repo.DB.Close()
}

// SeedRow registers one catalogue row for the current run. An existing
// record for the same ASIN is reset to pending; previously scraped fields
// stay in place until the new scrape overwrites them.
func (repo *Repository) SeedRow(row models.CatalogueRow, sourceURL, runID string) error {
	query := `
	INSERT INTO products (row_id, asin, source_url, enrichment_status, run_id)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(asin) DO UPDATE SET
		row_id=excluded.row_id,
		source_url=excluded.source_url,
		enrichment_status=excluded.enrichment_status,
		run_id=excluded.run_id;
	`
	_, err := repo.DB.Exec(query, row.ID, row.ASIN, sourceURL, models.StatusPending, runID)
	if err != nil {
		return fmt.Errorf("seeding row for asin %s: %w", row.ASIN, err)
	}
	return nil
}

// SaveEnrichment stores a completed scrape result for its ASIN.
func (repo *Repository) SaveEnrichment(product models.Product) error {
	galleryJSON, err := json.Marshal(product.ImageURLs)
	if err != nil {
		return err
	}

	query := `
	UPDATE products SET
		title = ?,
		brand = ?,
		price = ?,
		price_value = ?,
		rating = ?,
		review_count = ?,
		bullet_points = ?,
		description = ?,
		image_urls = ?,
		listing_status = ?,
		enrichment_status = ?,
		run_id = ?,
		scraped_at = ?
	WHERE asin = ?;
	`
	stmt, err := repo.DB.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		product.Title,
		product.Brand,
		product.Price,
		product.PriceValue,
		product.Rating,
		product.ReviewCount,
		product.BulletPoints,
		product.Description,
		string(galleryJSON),
		product.ListingStatus,
		product.EnrichmentStatus,
		product.RunID,
		product.ScrapedAt,
		product.ASIN,
	)
	if err != nil {
		return fmt.Errorf("saving enrichment for asin %s: %w", product.ASIN, err)
	}
	return nil
}

// MarkFailed records a definitive scrape failure for an ASIN.
func (repo *Repository) MarkFailed(asin, runID string) error {
	_, err := repo.DB.Exec(
		"UPDATE products SET enrichment_status = ?, run_id = ?, scraped_at = ? WHERE asin = ?",
		models.StatusScrapeFailed, runID, time.Now(), asin,
	)
	return err
}

// GetEnrichedProducts returns every successfully scraped record, most
// recent first.
func (repo *Repository) GetEnrichedProducts() ([]models.Product, error) {
	rows, err := repo.DB.Query(`
		SELECT id, row_id, asin, source_url, title, brand, price, price_value,
		       rating, review_count, bullet_points, description, image_urls,
		       summary, listing_status, enrichment_status, run_id, scraped_at
		FROM products
		WHERE enrichment_status IN (?, ?)
		ORDER BY scraped_at DESC`,
		models.StatusSuccess, models.StatusSuccessOnRetry,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetProductsForSummary returns enriched records that have no AI summary
// yet.
func (repo *Repository) GetProductsForSummary() ([]models.Product, error) {
	rows, err := repo.DB.Query(`
		SELECT id, row_id, asin, source_url, title, brand, price, price_value,
		       rating, review_count, bullet_points, description, image_urls,
		       summary, listing_status, enrichment_status, run_id, scraped_at
		FROM products
		WHERE enrichment_status IN (?, ?) AND (summary IS NULL OR summary = '')`,
		models.StatusSuccess, models.StatusSuccessOnRetry,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

// UpdateSummary stores the generated product copy for a record.
func (repo *Repository) UpdateSummary(id int64, summary string) error {
	_, err := repo.DB.Exec("UPDATE products SET summary = ? WHERE id = ?", summary, id)
	return err
}

// GetRecords retrieves a filtered, paginated page of records for the API.
func (repo *Repository) GetRecords(filters models.RecordFilters) ([]models.Product, error) {
	var args []interface{}
	var conditions []string

	query := `SELECT id, row_id, asin, source_url, title, brand, price, price_value,
	                 rating, review_count, bullet_points, description, image_urls,
	                 summary, listing_status, enrichment_status, run_id, scraped_at
	          FROM products WHERE 1=1`

	if filters.Status != "" {
		conditions = append(conditions, "enrichment_status = ?")
		args = append(args, filters.Status)
	}
	if filters.Brand != "" {
		conditions = append(conditions, "brand = ?")
		args = append(args, filters.Brand)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY scraped_at DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	}

	rows, err := repo.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute records query: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// CountRecords returns the total number of records matching the filters,
// for pagination.
func (repo *Repository) CountRecords(filters models.RecordFilters) (int, error) {
	var args []interface{}
	query := "SELECT COUNT(*) FROM products WHERE 1=1"
	if filters.Status != "" {
		query += " AND enrichment_status = ?"
		args = append(args, filters.Status)
	}
	if filters.Brand != "" {
		query += " AND brand = ?"
		args = append(args, filters.Brand)
	}

	var count int
	err := repo.DB.QueryRow(query, args...).Scan(&count)
	return count, err
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var p models.Product
		var imageJSON sql.NullString
		var summary, listingStatus, title, brand, price, bullets, description sql.NullString
		var priceValue, rating sql.NullFloat64
		var reviewCount sql.NullInt64
		var scrapedAt sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.RowID, &p.ASIN, &p.SourceURL, &title, &brand, &price,
			&priceValue, &rating, &reviewCount, &bullets, &description,
			&imageJSON, &summary, &listingStatus, &p.EnrichmentStatus, &p.RunID,
			&scrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		p.PriceValue = priceValue.Float64
		p.Rating = rating.Float64
		p.ReviewCount = int(reviewCount.Int64)
		p.Title = title.String
		p.Brand = brand.String
		p.Price = price.String
		p.BulletPoints = bullets.String
		p.Description = description.String
		p.Summary = summary.String
		p.ListingStatus = listingStatus.String
		if scrapedAt.Valid {
			p.ScrapedAt = scrapedAt.Time
		}
		if imageJSON.Valid && imageJSON.String != "" {
			if err := p.ImageURLs.Scan(imageJSON.String); err != nil {
				return nil, fmt.Errorf("decoding image urls: %w", err)
			}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
