package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"mspro-labs/bol-lister/internal/config"
	"mspro-labs/bol-lister/internal/db"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all saved rows as a CSV spreadsheet",
	Long:  `Exports every saved listing row to a CSV file in the marketplace template's column order. With no argument the CSV is written to stdout.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runExport(args)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(args []string) {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	out := os.Stdout
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			log.Fatalf("Failed to create %s: %v", args[0], err)
		}
		defer f.Close()
		out = f
	}

	if err := db.ExportCSV(database, out); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	if out != os.Stdout {
		log.Printf("SUCCESS: Exported to %s.", args[0])
	}
}
