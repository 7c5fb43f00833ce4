package amazon

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"
	"CatalogEnricher/utils"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// ScrapeProduct loads one product page and extracts every field the
// enrichment job writes back to the catalogue.
func (s *AmazonScraper) ScrapeProduct(asin string) (*models.Product, error) {
	url := s.productURL(asin)
	s.Logger.Infof("Scraping product page: %s", url)

	page, err := s.newPage()
	if err != nil {
		return nil, err
	}
	defer page.MustClose()

	if err := page.Timeout(40 * time.Second).Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.Timeout(60 * time.Second).WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", url, err)
	}

	// Random jitter between page loads, on top of the job rate limiter.
	time.Sleep(time.Duration(2000+rand.Intn(2000)) * time.Millisecond)

	if err := s.checkRobotPage(page, url); err != nil {
		return nil, err
	}
	if err := handleCaptcha(page, s.Logger); err != nil {
		return nil, fmt.Errorf("captcha handling failed for %s: %w", url, err)
	}

	// The title element doubles as the readiness signal: Amazon renders it
	// server-side on every real product page.
	if _, err := page.Timeout(15 * time.Second).Element("#productTitle"); err != nil {
		return nil, fmt.Errorf("product title not found on %s: %w", url, err)
	}

	product := &models.Product{
		ASIN:          asin,
		SourceURL:     url,
		ListingStatus: "Active",
	}

	product.Title = extractTitle(page)
	product.Brand = extractBrand(page)
	product.Price, product.PriceValue = extractPrice(page)
	product.Rating = extractRating(page)
	product.ReviewCount = extractReviewCount(page)
	product.BulletPoints = extractBulletPoints(page)
	product.ImageURLs = extractImages(page)
	product.Description = extractDescription(page)
	product.ScrapedAt = time.Now()

	if !product.Enriched() {
		return nil, fmt.Errorf("failed to extract a title, scraping likely failed for %s", url)
	}

	s.Logger.Infof("Successfully scraped %s: %s", asin, product.Title)
	return product, nil
}

// checkRobotPage inspects the document title for the interstitial Amazon
// serves to suspected bots.
func (s *AmazonScraper) checkRobotPage(page *rod.Page, url string) error {
	title, err := page.Timeout(5 * time.Second).Element("title")
	if err != nil {
		return nil
	}
	titleText, err := title.Text()
	if err != nil {
		return nil
	}
	lower := strings.ToLower(titleText)
	if strings.Contains(lower, "robot check") || strings.Contains(lower, "captcha") {
		s.Logger.Warnf("Robot check detected in title for %s: %s", url, titleText)
		return fmt.Errorf("robot check detected for %s", url)
	}
	return nil
}

func handleCaptcha(page *rod.Page, log logger.Logger) error {
	hasCaptcha, _, err := page.Timeout(5 * time.Second).Has(`form[action="/errors/validateCaptcha"]`)
	if err != nil || !hasCaptcha {
		return nil
	}

	log.Infof("CAPTCHA page detected. Attempting to click 'Continue shopping'...")

	continueButton, err := page.Timeout(5 * time.Second).Element(`form[action="/errors/validateCaptcha"] button[type="submit"]`)
	if err != nil {
		return fmt.Errorf("failed to find CAPTCHA button: %w", err)
	}
	if err := continueButton.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click CAPTCHA button: %w", err)
	}

	wait := page.Timeout(10 * time.Second).WaitNavigation(proto.PageLifecycleEventNameLoad)
	wait()

	if has, _, err := page.Has("#productTitle"); err != nil || !has {
		return fmt.Errorf("product page did not load after CAPTCHA")
	}
	return nil
}

// --- Field extraction helpers ---

func extractTitle(page *rod.Page) string {
	if el, err := page.Timeout(10 * time.Second).Element("#productTitle"); err == nil {
		if title, err := el.Text(); err == nil {
			return strings.TrimSpace(title)
		}
	}
	return ""
}

func extractBrand(page *rod.Page) string {
	if el, err := page.Timeout(5 * time.Second).Element("#bylineInfo"); err == nil {
		if text, err := el.Text(); err == nil {
			return CleanBrand(text)
		}
	}
	return ""
}

// extractPrice composes the display price the catalogue expects
// (symbol + whole part, e.g. "₹1,099") and its parsed numeric value.
func extractPrice(page *rod.Page) (string, float64) {
	var symbol, whole string
	if el, err := page.Timeout(5 * time.Second).Element(".a-price .a-price-symbol"); err == nil {
		if text, err := el.Text(); err == nil {
			symbol = strings.TrimSpace(text)
		}
	}
	if el, err := page.Timeout(5 * time.Second).Element(".a-price .a-price-whole"); err == nil {
		if text, err := el.Text(); err == nil {
			whole = strings.TrimSpace(text)
		}
	}
	if whole == "" {
		return "", 0
	}
	display := symbol + whole
	return display, utils.ParsePrice(display)
}

func extractRating(page *rod.Page) float64 {
	if el, err := page.Timeout(5 * time.Second).Element("#acrPopover"); err == nil {
		if attr, err := el.Attribute("title"); err == nil && attr != nil {
			return utils.ParseRating(*attr)
		}
	}
	return 0
}

func extractReviewCount(page *rod.Page) int {
	if el, err := page.Timeout(5 * time.Second).Element("#acrCustomerReviewText"); err == nil {
		if text, err := el.Text(); err == nil {
			return utils.ParseReviewCount(text)
		}
	}
	return 0
}

func extractBulletPoints(page *rod.Page) string {
	if el, err := page.Timeout(5 * time.Second).Element("#feature-bullets"); err == nil {
		if html, err := el.HTML(); err == nil {
			return BulletLines(html)
		}
	}
	return ""
}

func extractImages(page *rod.Page) models.JSONStringSlice {
	elements, err := page.Timeout(5 * time.Second).Elements("li.thumbnail img")
	if err != nil {
		return nil
	}
	var urls []string
	for _, el := range elements {
		src, err := el.Attribute("src")
		if err != nil || src == nil || *src == "" {
			continue
		}
		urls = append(urls, utils.NormalizeImageURL(*src))
	}
	return utils.UniqueStrings(urls)
}

func extractDescription(page *rod.Page) string {
	if el, err := page.Timeout(5 * time.Second).Element("#productDescription"); err == nil {
		if text, err := el.Text(); err == nil {
			return strings.TrimSpace(text)
		}
	}
	return ""
}
