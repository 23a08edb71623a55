package db

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"mspro-labs/bol-lister/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := createSchema(database); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return database
}

func sampleRow() models.ListingRow {
	price := 49.99
	return models.ListingRow{
		SourceURL:   "https://www.bol.com/nl/nl/p/widget/1/",
		Title:       "Test Widget",
		Description: "A widget for testing.",
		EAN:         "8712345678903",
		Condition:   models.DefaultCondition,
		Stock:       models.DefaultStock,
		Price:       &price,
		ForSale:     models.DefaultForSale,
		MainImage:   "https://media.s-bol.com/media/a.jpg",
		AllImages:   "https://media.s-bol.com/media/a.jpg|https://media.s-bol.com/media/b.jpg",
	}
}

func TestAppendAndGetRow(t *testing.T) {
	database := openTestDB(t)

	id, err := AppendRow(database, sampleRow())
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero row id")
	}

	got, err := GetRow(database, id)
	if err != nil {
		t.Fatalf("GetRow failed: %v", err)
	}
	if got.Title != "Test Widget" {
		t.Errorf("title mismatch: got %q", got.Title)
	}
	if got.Price == nil || *got.Price != 49.99 {
		t.Errorf("price mismatch: got %v", got.Price)
	}
	if got.Stock != models.DefaultStock {
		t.Errorf("stock mismatch: got %d", got.Stock)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should be set by the database")
	}
}

func TestAppendRowWithoutPrice(t *testing.T) {
	database := openTestDB(t)

	row := sampleRow()
	row.Price = nil
	id, err := AppendRow(database, row)
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	got, err := GetRow(database, id)
	if err != nil {
		t.Fatalf("GetRow failed: %v", err)
	}
	if got.Price != nil {
		t.Errorf("expected nil price to round-trip as nil, got %v", got.Price)
	}
}

func TestUpdateRow(t *testing.T) {
	database := openTestDB(t)

	id, err := AppendRow(database, sampleRow())
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	row, _ := GetRow(database, id)
	row.Title = "Corrected Title"
	newPrice := 39.95
	row.Price = &newPrice

	if err := UpdateRow(database, row); err != nil {
		t.Fatalf("UpdateRow failed: %v", err)
	}

	got, _ := GetRow(database, id)
	if got.Title != "Corrected Title" {
		t.Errorf("update not applied: got %q", got.Title)
	}
	if got.Price == nil || *got.Price != 39.95 {
		t.Errorf("price update not applied: got %v", got.Price)
	}

	// Unknown ID is an error, not a silent no-op.
	row.ID = 9999
	if err := UpdateRow(database, row); err == nil {
		t.Error("expected error updating a missing row")
	}
}

func TestDeleteAndListRows(t *testing.T) {
	database := openTestDB(t)

	first, _ := AppendRow(database, sampleRow())
	second := sampleRow()
	second.Title = "Second Widget"
	if _, err := AppendRow(database, second); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	if err := DeleteRow(database, first); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}

	listings, err := ListRows(database)
	if err != nil {
		t.Fatalf("ListRows failed: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 row after delete, got %d", len(listings))
	}
	if listings[0].Title != "Second Widget" {
		t.Errorf("wrong row survived the delete: %q", listings[0].Title)
	}
}

func TestExportCSV(t *testing.T) {
	database := openTestDB(t)

	if _, err := AppendRow(database, sampleRow()); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportCSV(database, &buf); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Productnaam,Beschrijving,") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Test Widget") {
		t.Errorf("row missing title: %q", lines[1])
	}
	if !strings.Contains(lines[1], "49.99") {
		t.Errorf("row missing formatted price: %q", lines[1])
	}
	if !strings.Contains(lines[1], "a.jpg|https://") {
		t.Errorf("gallery should stay pipe-joined in the export: %q", lines[1])
	}
}
