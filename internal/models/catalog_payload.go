package models

// RecordsResponse is the JSON envelope returned by the records API.
type RecordsResponse struct {
	Data       []CatalogRecord `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// CatalogRecord is the API view of an enriched product.
type CatalogRecord struct {
	ASIN             string   `json:"asin"`
	Title            string   `json:"title"`
	Brand            string   `json:"brand"`
	Price            string   `json:"price"`
	Rating           float64  `json:"rating"`
	ReviewCount      int      `json:"review_count"`
	ImageURL         string   `json:"image_url"`
	ImageURLs        []string `json:"image_urls,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	EnrichmentStatus string   `json:"enrichment_status"`
	SourceURL        string   `json:"source_url"`
}

type Pagination struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}
