package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"mspro-labs/bol-lister/internal/config"
	"mspro-labs/bol-lister/internal/db"
	"mspro-labs/bol-lister/internal/models"
	"mspro-labs/bol-lister/internal/scraper"
)

var scrapeSave bool

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]",
	Short: "Extract one product page and print the record",
	Long: `Renders the given bol.com product page in a headless browser,
extracts the product fields and prints them. With --save the record is
appended to the local database with the template defaults, skipping the
web review step.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runScrape(args[0])
	},
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "append the record to the database with template defaults")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(url string) {
	// 1. Load Config
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	siteCfg := loadSiteConfigOrDefault(appCfg.ConfigPath)

	// 2. Run Scraper
	rec, err := scraper.Run(siteCfg, url)
	if err != nil {
		log.Fatalf("Scraping failed: %v", err)
	}

	printRecord(rec)

	if !scrapeSave {
		return
	}

	// 3. Save with defaults
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	id, err := db.AppendRow(database, models.NewListingRow(rec))
	if err != nil {
		log.Fatalf("Failed to save row: %v", err)
	}
	log.Printf("SUCCESS: Saved listing row %d.", id)
}

// loadSiteConfigOrDefault falls back to built-in bol.com settings when no
// config file is present, so the tool works out of the box.
func loadSiteConfigOrDefault(path string) *config.SiteConfig {
	siteCfg, err := config.LoadSiteConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("No config file at %s, using built-in defaults.", path)
			return config.Default()
		}
		log.Fatalf("Failed to load site config: %v", err)
	}
	return siteCfg
}

func printRecord(rec models.ProductRecord) {
	fmt.Printf("Titel:        %s\n", rec.Title)
	fmt.Printf("Merk:         %s\n", rec.Brand)
	fmt.Printf("Prijs:        %s", rec.PriceText)
	if rec.PriceValue != nil {
		fmt.Printf(" (%.2f)", *rec.PriceValue)
	}
	fmt.Println()
	fmt.Printf("Adviesprijs:  %s", rec.ListPriceText)
	if rec.ListPriceVal != nil {
		fmt.Printf(" (%.2f)", *rec.ListPriceVal)
	}
	fmt.Println()
	fmt.Printf("EAN:          %s\n", rec.EAN)
	fmt.Printf("Hoofdfoto:    %s\n", rec.MainImage)
	fmt.Printf("Foto's:       %d\n", len(rec.AllImages))
	fmt.Printf("Beschrijving: %s\n", truncate(rec.Description, 200))
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
