package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bol-lister",
	Short: "Scrape bol.com product pages into marketplace listing rows",
	Long: `bol-lister extracts the fields of a single bol.com product page
(title, price, brand, EAN, description, gallery), lets you review and
correct them in a browser, and stores accepted records as rows matching
the marketplace upload template.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
