package scraper

import (
	"fmt"
	"log"
	"os"

	"mspro-labs/bol-lister/internal/config"
	"mspro-labs/bol-lister/internal/extract"
	"mspro-labs/bol-lister/internal/models"
	"mspro-labs/bol-lister/internal/render"
)

var logger = log.New(os.Stdout, "SCRAPER: ", log.LstdFlags|log.Lshortfile)

// Run drives one full extraction: validate the URL, launch a browser
// session, render the page and extract the record. The browser lives for
// exactly one call.
func Run(cfg *config.SiteConfig, rawURL string) (models.ProductRecord, error) {
	eng := extract.NewEngine(cfg.Marketplace.DomainToken, cfg.Marketplace.MediaMarker)

	// Reject before paying for a browser launch.
	if err := eng.ValidateURL(rawURL); err != nil {
		return models.ProductRecord{}, err
	}

	logger.Println("Launching headless browser...")
	browser, err := render.Launch(cfg.Render)
	if err != nil {
		return models.ProductRecord{}, err
	}
	defer browser.Close()

	return RunWith(browser, eng, rawURL)
}

// RunWith performs the render-then-extract sequence against an already
// running renderer. Split out so the flow is testable without Chromium.
func RunWith(r render.Renderer, eng *extract.Engine, rawURL string) (models.ProductRecord, error) {
	if err := eng.ValidateURL(rawURL); err != nil {
		return models.ProductRecord{}, err
	}

	html, err := r.Render(rawURL)
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("failed to fetch page: %w", err)
	}

	logger.Println("Extracting product fields...")
	rec, err := eng.Extract(rawURL, html)
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("failed to extract product: %w", err)
	}
	return rec, nil
}
