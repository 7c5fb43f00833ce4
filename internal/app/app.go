package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CatalogEnricher/internal/connector"
	"CatalogEnricher/internal/connector/baserow"
	"CatalogEnricher/internal/connector/kafka"
	"CatalogEnricher/internal/database"
	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"
	"CatalogEnricher/internal/scraper"
	"CatalogEnricher/internal/scraper/amazon"
	"CatalogEnricher/internal/summarizer"
	"CatalogEnricher/pkg/config"
	"CatalogEnricher/utils"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// scraperFactory opens a fresh browser-backed scraper. One is created per
// pool worker.
type scraperFactory func(config.ScraperConfig, logger.Logger) (scraper.ProductScraper, error)

// App is the main application structure holding all dependencies.
type App struct {
	Config    *config.Config
	Repo      *database.Repository
	Catalogue connector.Connector
	Queue     kafka.Producer // nil when the queue sink is disabled
	Logger    logger.Logger
	RunID     string

	newScraper scraperFactory
}

// New wires an application instance from config.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	repo, err := database.InitDB(cfg.CacheDB)
	if err != nil {
		return nil, fmt.Errorf("initializing cache database: %w", err)
	}

	catalogue, err := baserow.New(cfg.Baserow.BaseURL, cfg.Baserow.ApiToken, cfg.Baserow.CatalogueTableID, log)
	if err != nil {
		repo.Close()
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Repo:      repo,
		Catalogue: catalogue,
		Logger:    log,
		RunID:     uuid.NewString(),
		newScraper: func(conf config.ScraperConfig, log logger.Logger) (scraper.ProductScraper, error) {
			return amazon.New(conf, log)
		},
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic, log)
		if err != nil {
			repo.Close()
			return nil, err
		}
		a.Queue = producer
	}

	return a, nil
}

// Close releases the application's resources.
func (a *App) Close() {
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Errorf("Failed to close queue producer: %v", err)
		}
	}
	a.Repo.Close()
}

// scrapeResult pairs a catalogue row with its scrape outcome.
type scrapeResult struct {
	Row     models.CatalogueRow
	Product *models.Product
	Err     error
}

// RunEnrichment executes the full enrichment job: load the catalogue,
// scrape every row carrying an ASIN in two passes, then push the results
// to the sinks.
func (a *App) RunEnrichment(ctx context.Context) error {
	start := time.Now()
	a.Logger.Infof("Starting the catalog enrichment process (run %s)", a.RunID)

	rows, err := a.Catalogue.FetchCatalogue(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalogue: %w", err)
	}
	if len(rows) == 0 {
		a.Logger.Warnf("Catalogue is empty or has no rows with ASINs. Nothing to process.")
		return nil
	}

	for _, row := range rows {
		url := strings.TrimRight(a.Config.Scraper.BaseURL, "/") + "/" + row.ASIN
		if err := a.Repo.SeedRow(row, url, a.RunID); err != nil {
			a.Logger.Errorf("Failed to seed cache for ASIN %s: %v", row.ASIN, err)
		}
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(a.Config.Scraper.RatePerMinute)), 1)

	// First pass across the worker pool. A browser that never launched is
	// an environment problem, not a scrape failure: abort before any
	// catalogue row gets a status it did not earn.
	results, failed, err := a.firstPass(ctx, rows, limiter)
	if err != nil {
		return fmt.Errorf("driver setup failed: %w", err)
	}

	// Retry pass for the rows the first pass could not scrape. If the
	// retry browser fails to launch, those rows stay pending rather than
	// being marked failed; the first-pass results still go out.
	var driverErr error
	if len(failed) > 0 {
		a.Logger.Infof("Retrying %d failed ASINs", len(failed))
		retried, err := a.retryPass(ctx, failed, limiter)
		if err != nil {
			a.Logger.Errorf("Driver setup failed for retry pass: %v", err)
			driverErr = err
		} else {
			results = append(results, retried...)
		}
	}

	enriched := a.persistResults(results)

	if err := a.pushResults(ctx, results); err != nil {
		a.Logger.Errorf("Failed to update catalogue: %v", err)
		return err
	}

	if a.Queue != nil && len(enriched) > 0 {
		if err := a.Queue.SendBatch(enriched); err != nil {
			a.Logger.Errorf("Failed to publish enriched records to queue: %v", err)
		}
	}

	if driverErr != nil {
		return fmt.Errorf("driver setup failed on retry pass: %w", driverErr)
	}

	a.Logger.Infof("Enrichment process finished. Runtime: %.2f seconds, successful records: %d/%d",
		time.Since(start).Seconds(), len(enriched), len(rows))
	return nil
}

// firstPass scrapes every row with a pool of browser workers and returns
// the completed results plus the rows needing a retry. All browsers are
// launched up front so a broken driver environment aborts the pass
// instead of failing rows one by one.
func (a *App) firstPass(ctx context.Context, rows []models.CatalogueRow, limiter *rate.Limiter) ([]scrapeResult, []models.CatalogueRow, error) {
	numWorkers := utils.GetOptimalWorkerCount(a.Config.Scraper.Workers)
	if numWorkers > len(rows) {
		numWorkers = len(rows)
	}

	scrapers := make([]scraper.ProductScraper, 0, numWorkers)
	for i := 0; i < numWorkers; i++ {
		scr, err := a.newScraper(a.Config.Scraper, a.Logger)
		if err != nil {
			for _, launched := range scrapers {
				launched.Close()
			}
			return nil, nil, err
		}
		scrapers = append(scrapers, scr)
	}

	jobs := make(chan models.CatalogueRow, len(rows))
	out := make(chan scrapeResult, len(rows))

	for w := 1; w <= numWorkers; w++ {
		go func(workerID int, scr scraper.ProductScraper) {
			defer scr.Close()

			for row := range jobs {
				a.Logger.Infof("[Worker %d] Scraping (Pass 1) ASIN: %s", workerID, row.ASIN)
				product, err := a.scrapeWithRetry(ctx, scr, row, limiter)
				out <- scrapeResult{Row: row, Product: product, Err: err}
			}
		}(w, scrapers[w-1])
	}

	for _, row := range rows {
		jobs <- row
	}
	close(jobs)

	var results []scrapeResult
	var failed []models.CatalogueRow
	for i := 0; i < len(rows); i++ {
		res := <-out
		if res.Err != nil {
			a.Logger.Warnf("Could not scrape ASIN %s on first pass: %v", res.Row.ASIN, res.Err)
			failed = append(failed, res.Row)
			continue
		}
		res.Product.RowID = res.Row.ID
		res.Product.RunID = a.RunID
		res.Product.EnrichmentStatus = models.StatusSuccess
		results = append(results, res)
	}
	return results, failed, nil
}

// retryPass gives failed rows a second chance on a fresh browser. A second
// failure is final.
func (a *App) retryPass(ctx context.Context, failed []models.CatalogueRow, limiter *rate.Limiter) ([]scrapeResult, error) {
	var results []scrapeResult

	scr, err := a.newScraper(a.Config.Scraper, a.Logger)
	if err != nil {
		return nil, err
	}
	defer scr.Close()

	for i, row := range failed {
		a.Logger.Infof("Scraping (Pass 2) [%d/%d] ASIN: %s", i+1, len(failed), row.ASIN)
		product, err := a.scrapeWithRetry(ctx, scr, row, limiter)
		if err != nil {
			a.Logger.Errorf("Failed to scrape ASIN %s on second pass: %v", row.ASIN, err)
			results = append(results, scrapeResult{Row: row, Err: err})
			continue
		}
		product.RowID = row.ID
		product.RunID = a.RunID
		product.EnrichmentStatus = models.StatusSuccessOnRetry
		results = append(results, scrapeResult{Row: row, Product: product})
	}
	return results, nil
}

// scrapeWithRetry runs one scrape under the shared rate limiter with
// backoff retries.
func (a *App) scrapeWithRetry(ctx context.Context, scr scraper.ProductScraper, row models.CatalogueRow, limiter *rate.Limiter) (*models.Product, error) {
	var product *models.Product
	err := Retry(ctx, a.Config.Scraper.MaxRetries, time.Second, func() error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		p, err := scr.ScrapeProduct(row.ASIN)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	return product, err
}

// persistResults writes scrape outcomes to the local cache and returns the
// enriched products.
func (a *App) persistResults(results []scrapeResult) []models.Product {
	var enriched []models.Product
	for _, res := range results {
		if res.Err != nil || res.Product == nil {
			if err := a.Repo.MarkFailed(res.Row.ASIN, a.RunID); err != nil {
				a.Logger.Errorf("Failed to mark ASIN %s as failed: %v", res.Row.ASIN, err)
			}
			continue
		}
		if err := a.Repo.SaveEnrichment(*res.Product); err != nil {
			a.Logger.Errorf("Failed to cache enrichment for ASIN %s: %v", res.Product.ASIN, err)
		}
		enriched = append(enriched, *res.Product)
	}
	return enriched
}

// pushResults builds the catalogue update payload and sends it through the
// connector. Failed scrapes still produce a status-only update so the
// catalogue reflects the outcome.
func (a *App) pushResults(ctx context.Context, results []scrapeResult) error {
	if len(results) == 0 {
		a.Logger.Infof("No new data to update in the catalogue.")
		return nil
	}

	now := time.Now()
	updates := make([]models.RowUpdate, 0, len(results))
	for _, res := range results {
		if res.Err != nil || res.Product == nil {
			updates = append(updates, FailedRowUpdate(res.Row.ID, now))
			continue
		}
		updates = append(updates, BuildRowUpdate(*res.Product, now))
	}

	a.Logger.Infof("Sending %d updates to the catalogue...", len(updates))
	return a.Catalogue.PushUpdates(ctx, updates)
}

// RunSummarizer generates AI product copy for enriched records that do not
// have one yet, using the configured provider chain.
func (a *App) RunSummarizer(ctx context.Context) error {
	a.Logger.Infof("Starting summarization task")

	chain, err := a.buildSummarizerChain()
	if err != nil {
		return err
	}

	products, err := a.Repo.GetProductsForSummary()
	if err != nil {
		return fmt.Errorf("failed to get products for summarization: %w", err)
	}
	if len(products) == 0 {
		a.Logger.Infof("No records are awaiting summarization. Task finished.")
		return nil
	}
	a.Logger.Infof("Found %d records to summarize.", len(products))

	for i, p := range products {
		a.Logger.Infof("Summarizing record [%d/%d]: %s", i+1, len(products), p.Title)

		summary, err := chain.Summarize(ctx, summarizer.BuildPrompt(p))
		if err != nil {
			a.Logger.Errorf("All providers failed for ASIN %s: %v", p.ASIN, err)
			continue
		}
		if err := a.Repo.UpdateSummary(p.ID, summary); err != nil {
			a.Logger.Errorf("Failed to store summary for ASIN %s: %v", p.ASIN, err)
		}
	}

	a.Logger.Infof("Summarization task finished.")
	return nil
}

// buildSummarizerChain assembles the ordered provider list: primary first,
// then the configured fallbacks.
func (a *App) buildSummarizerChain() (*summarizer.Chain, error) {
	providerMap := make(map[string]config.ProviderConfig)
	for _, p := range a.Config.Summarizer.Providers {
		providerMap[p.Name] = p
	}

	var clients []summarizer.Summarizer
	primaryConf, ok := providerMap[a.Config.Summarizer.PrimaryProvider]
	if !ok {
		return nil, fmt.Errorf("primary provider '%s' not found in config", a.Config.Summarizer.PrimaryProvider)
	}
	a.Logger.Infof("Primary provider set to: '%s'", primaryConf.Name)
	clients = append(clients, summarizer.NewOpenAICompatibleClient(primaryConf.ApiURL, primaryConf.ApiKey, primaryConf.Model))

	for _, name := range a.Config.Summarizer.FallbackProviders {
		fallbackConf, ok := providerMap[name]
		if !ok {
			a.Logger.Warnf("Fallback provider '%s' not found in config, skipping.", name)
			continue
		}
		a.Logger.Infof("Fallback provider added: '%s'", fallbackConf.Name)
		clients = append(clients, summarizer.NewOpenAICompatibleClient(fallbackConf.ApiURL, fallbackConf.ApiKey, fallbackConf.Model))
	}

	return &summarizer.Chain{Clients: clients, Logger: a.Logger}, nil
}

// RunSync re-pushes every enriched record in the local cache to the
// catalogue and the queue. Useful after a summarization pass or a
// previously failed batch update.
func (a *App) RunSync(ctx context.Context) error {
	a.Logger.Infof("Starting catalogue sync task")

	products, err := a.Repo.GetEnrichedProducts()
	if err != nil {
		return fmt.Errorf("failed to read enriched records: %w", err)
	}
	if len(products) == 0 {
		a.Logger.Infof("No enriched records to sync.")
		return nil
	}

	now := time.Now()
	updates := make([]models.RowUpdate, 0, len(products))
	for _, p := range products {
		updates = append(updates, BuildRowUpdate(p, now))
	}

	a.Logger.Infof("Syncing %d records to the catalogue...", len(updates))
	if err := a.Catalogue.PushUpdates(ctx, updates); err != nil {
		return err
	}

	if a.Queue != nil {
		if err := a.Queue.SendBatch(products); err != nil {
			a.Logger.Errorf("Failed to publish records to queue: %v", err)
		}
	}

	a.Logger.Infof("Sync task finished. %d records pushed.", len(updates))
	return nil
}

// RunAutomaticWorkflow executes the entire pipeline in sequence.
func (a *App) RunAutomaticWorkflow(ctx context.Context) error {
	a.Logger.Infof("====== STARTING AUTOMATIC WORKFLOW ======")

	a.Logger.Infof("--- STEP 1 of 3: Enriching Catalogue ---")
	if err := a.RunEnrichment(ctx); err != nil {
		return err
	}

	time.Sleep(2 * time.Second)

	a.Logger.Infof("--- STEP 2 of 3: Generating Summaries ---")
	if err := a.RunSummarizer(ctx); err != nil {
		// Summaries are additive; a provider outage should not fail the run.
		a.Logger.Errorf("Summarization step failed: %v", err)
	}

	time.Sleep(2 * time.Second)

	a.Logger.Infof("--- STEP 3 of 3: Syncing Catalogue ---")
	if err := a.RunSync(ctx); err != nil {
		return err
	}

	a.Logger.Infof("====== AUTOMATIC WORKFLOW FINISHED ======")
	return nil
}
