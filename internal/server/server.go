package server

import (
	"CatalogEnricher/internal/database"
	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"
	"CatalogEnricher/pkg/config"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
)

// Start serves the read-only records API on the configured port. It blocks
// until the listener fails.
func Start(repo *database.Repository, cfg *config.Config, log logger.Logger) error {
	http.HandleFunc("/records", recordsHandler(repo, log))

	port := strconv.Itoa(cfg.Server.Port)
	log.Infof("Starting records API on port %s", port)
	log.Infof("Endpoint available at http://localhost:%s/records", port)

	return http.ListenAndServe(":"+port, nil)
}

func recordsHandler(repo *database.Repository, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queryParams := r.URL.Query()
		page, _ := strconv.Atoi(queryParams.Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(queryParams.Get("limit"))
		if limit < 1 {
			limit = 20
		}

		filters := models.RecordFilters{
			Status: queryParams.Get("status"),
			Brand:  queryParams.Get("brand"),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}

		total, err := repo.CountRecords(filters)
		if err != nil {
			log.Errorf("Failed to count records: %v", err)
			http.Error(w, "Failed to count records", http.StatusInternalServerError)
			return
		}
		totalPages := int(math.Ceil(float64(total) / float64(limit)))

		products, err := repo.GetRecords(filters)
		if err != nil {
			log.Errorf("Failed to get records: %v", err)
			http.Error(w, "Failed to get records", http.StatusInternalServerError)
			return
		}

		response := models.RecordsResponse{
			Data: toRecords(products),
			Pagination: models.Pagination{
				TotalPages:  totalPages,
				CurrentPage: page,
			},
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

func toRecords(products []models.Product) []models.CatalogRecord {
	records := make([]models.CatalogRecord, 0, len(products))
	for _, p := range products {
		record := models.CatalogRecord{
			ASIN:             p.ASIN,
			Title:            p.Title,
			Brand:            p.Brand,
			Price:            p.Price,
			Rating:           p.Rating,
			ReviewCount:      p.ReviewCount,
			ImageURLs:        p.ImageURLs,
			Summary:          p.Summary,
			EnrichmentStatus: p.EnrichmentStatus,
			SourceURL:        p.SourceURL,
		}
		if len(p.ImageURLs) > 0 {
			record.ImageURL = p.ImageURLs[0]
		}
		records = append(records, record)
	}
	return records
}
