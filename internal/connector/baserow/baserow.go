package baserow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"
)

// ASINField is the catalogue column holding the marketplace product
// identifier.
const ASINField = "Marketplace ASIN/Product ID"

// pageSize is the maximum page size Baserow allows.
const pageSize = 200

// batchLimit is the maximum number of items Baserow accepts per batch
// update request.
const batchLimit = 200

// Client talks to the Baserow row API for a single catalogue table.
type Client struct {
	BaseURL    string
	Token      string
	TableID    int
	HttpClient *http.Client
	Logger     logger.Logger
}

// New creates a Baserow client for the given table.
func New(baseURL, token string, tableID int, log logger.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("baserow api token is required")
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		TableID: tableID,
		HttpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		Logger: log,
	}, nil
}

type listResponse struct {
	Count   int                      `json:"count"`
	Next    *string                  `json:"next"`
	Results []map[string]interface{} `json:"results"`
}

// ListRows fetches every row of the table, following pagination until the
// server reports no next page or returns an empty page.
func (c *Client) ListRows(ctx context.Context) ([]map[string]interface{}, error) {
	var allRows []map[string]interface{}
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/api/database/rows/table/%d/?user_field_names=true&page=%d&size=%d",
			c.BaseURL, c.TableID, page, pageSize)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("could not create request: %w", err)
		}
		req.Header.Set("Authorization", "Token "+c.Token)

		resp, err := c.HttpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching table %d page %d: %w", c.TableID, page, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("baserow returned status %d for table %d: %s", resp.StatusCode, c.TableID, string(body))
		}

		var data listResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("could not unmarshal row listing: %w", err)
		}

		allRows = append(allRows, data.Results...)
		if data.Next == nil || len(data.Results) == 0 {
			break
		}
	}
	c.Logger.Infof("Fetched %d rows from Baserow table %d", len(allRows), c.TableID)
	return allRows, nil
}

// FetchCatalogue returns the rows that carry an ASIN, ready for
// enrichment.
func (c *Client) FetchCatalogue(ctx context.Context) ([]models.CatalogueRow, error) {
	rows, err := c.ListRows(ctx)
	if err != nil {
		return nil, err
	}

	var catalogue []models.CatalogueRow
	for _, row := range rows {
		id, ok := rowID(row)
		if !ok {
			continue
		}
		asin := strings.TrimSpace(flattenValue(row[ASINField]))
		if asin == "" {
			continue
		}
		catalogue = append(catalogue, models.CatalogueRow{ID: id, ASIN: asin})
	}
	c.Logger.Infof("Found %d listings with ASINs to process", len(catalogue))
	return catalogue, nil
}

type batchRequest struct {
	Items []models.RowUpdate `json:"items"`
}

// PushUpdates writes row updates back in batches of at most batchLimit
// items per request.
func (c *Client) PushUpdates(ctx context.Context, updates []models.RowUpdate) error {
	for start := 0; start < len(updates); start += batchLimit {
		end := start + batchLimit
		if end > len(updates) {
			end = len(updates)
		}
		if err := c.patchBatch(ctx, updates[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) patchBatch(ctx context.Context, items []models.RowUpdate) error {
	payload, err := json.Marshal(batchRequest{Items: items})
	if err != nil {
		return fmt.Errorf("could not marshal batch payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/database/rows/table/%d/batch/?user_field_names=true", c.BaseURL, c.TableID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not create batch request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("batch update failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("baserow batch update returned status %d: %s", resp.StatusCode, string(body))
	}

	c.Logger.Infof("Updated %d rows in Baserow table %d", len(items), c.TableID)
	return nil
}

// rowID pulls the numeric row id out of a raw row. JSON numbers decode as
// float64.
func rowID(row map[string]interface{}) (int64, bool) {
	switch v := row["id"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// flattenValue unwraps Baserow's object format for select and link fields,
// where a cell arrives as {"id": …, "value": …} or a list of such objects.
func flattenValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]interface{}:
		if inner, ok := val["value"]; ok {
			return flattenValue(inner)
		}
		return ""
	case []interface{}:
		var parts []string
		for _, item := range val {
			if s := flattenValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
