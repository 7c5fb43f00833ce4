package amazon

import (
	"fmt"
	"strings"

	"CatalogEnricher/internal/logger"
	"CatalogEnricher/pkg/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// AmazonScraper owns one headless browser session and scrapes product
// pages with it. Each worker in the enrichment job holds its own
// instance.
type AmazonScraper struct {
	Browser  *rod.Browser
	launcher *launcher.Launcher
	Conf     config.ScraperConfig
	Logger   logger.Logger
}

// New launches a headless browser and connects a scraper to it.
func New(conf config.ScraperConfig, log logger.Logger) (*AmazonScraper, error) {
	l := launcher.New().
		Headless(conf.Headless).
		NoSandbox(true)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &AmazonScraper{
		Browser:  browser,
		launcher: l,
		Conf:     conf,
		Logger:   log,
	}, nil
}

// Close shuts down the browser and its launcher.
func (s *AmazonScraper) Close() {
	if s.Browser != nil {
		_ = s.Browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
}

// newPage opens a fresh stealth page. Stealth pages mask the headless
// fingerprint (navigator.webdriver and friends) that product pages use to
// serve robot checks.
func (s *AmazonScraper) newPage() (*rod.Page, error) {
	page, err := stealth.Page(s.Browser)
	if err != nil {
		return nil, fmt.Errorf("failed to open stealth page: %w", err)
	}
	return page, nil
}

// productURL builds the page URL for an ASIN from the configured base.
func (s *AmazonScraper) productURL(asin string) string {
	return strings.TrimRight(s.Conf.BaseURL, "/") + "/" + asin
}
