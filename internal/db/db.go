package db

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only

	"mspro-labs/bol-lister/internal/models"
)

// Connect opens a connection to the SQLite database and ensures the schema
// exists. It applies recommended settings for concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = database.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = createSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return database, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(database *sql.DB) error {
	listingTable := `
	CREATE TABLE IF NOT EXISTS listing (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  source_url TEXT,
	  title TEXT,
	  description TEXT,
	  internal_ref TEXT,
	  ean TEXT,
	  condition TEXT,
	  condition_comment TEXT,
	  stock INTEGER,
	  price REAL,
	  delivery_time TEXT,
	  delivery_method TEXT,
	  for_sale TEXT,
	  main_image TEXT,
	  participant TEXT,
	  all_images TEXT,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_listing_ean ON listing(ean);
	`
	_, err := database.Exec(listingTable)
	return err
}

// AppendRow inserts one listing row and returns its ID.
func AppendRow(database *sql.DB, row models.ListingRow) (int64, error) {
	insertSQL := `
	INSERT INTO listing (
	  source_url, title, description, internal_ref, ean, condition, condition_comment,
	  stock, price, delivery_time, delivery_method, for_sale, main_image, participant, all_images
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := database.ExecContext(ctx, insertSQL,
		row.SourceURL,
		row.Title,
		row.Description,
		row.InternalRef,
		row.EAN,
		row.Condition,
		row.ConditionComment,
		row.Stock,
		nullFloat(row.Price),
		row.DeliveryTime,
		row.DeliveryMethod,
		row.ForSale,
		row.MainImage,
		row.Participant,
		row.AllImages,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append row: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRow rewrites an existing listing row in place.
func UpdateRow(database *sql.DB, row models.ListingRow) error {
	updateSQL := `
	UPDATE listing SET
	  source_url = ?, title = ?, description = ?, internal_ref = ?, ean = ?,
	  condition = ?, condition_comment = ?, stock = ?, price = ?, delivery_time = ?,
	  delivery_method = ?, for_sale = ?, main_image = ?, participant = ?, all_images = ?
	WHERE id = ?;
	`
	res, err := database.Exec(updateSQL,
		row.SourceURL, row.Title, row.Description, row.InternalRef, row.EAN,
		row.Condition, row.ConditionComment, row.Stock, nullFloat(row.Price), row.DeliveryTime,
		row.DeliveryMethod, row.ForSale, row.MainImage, row.Participant, row.AllImages,
		row.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update row %d: %w", row.ID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("no listing row with id %d", row.ID)
	}
	return nil
}

// DeleteRow removes a listing row.
func DeleteRow(database *sql.DB, id int64) error {
	_, err := database.Exec(`DELETE FROM listing WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete row %d: %w", id, err)
	}
	return nil
}

// ListRows returns all saved listings, oldest first.
func ListRows(database *sql.DB) ([]models.ListingRow, error) {
	rows, err := database.Query(`
		SELECT id, source_url, title, description, internal_ref, ean, condition,
		       condition_comment, stock, price, delivery_time, delivery_method,
		       for_sale, main_image, participant, all_images, created_at
		FROM listing
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ListingRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetRow loads a single listing by ID.
func GetRow(database *sql.DB, id int64) (models.ListingRow, error) {
	rows, err := database.Query(`
		SELECT id, source_url, title, description, internal_ref, ean, condition,
		       condition_comment, stock, price, delivery_time, delivery_method,
		       for_sale, main_image, participant, all_images, created_at
		FROM listing WHERE id = ?
	`, id)
	if err != nil {
		return models.ListingRow{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		return models.ListingRow{}, fmt.Errorf("no listing row with id %d", id)
	}
	return scanRow(rows)
}

func scanRow(rows *sql.Rows) (models.ListingRow, error) {
	var row models.ListingRow
	var price sql.NullFloat64
	err := rows.Scan(
		&row.ID, &row.SourceURL, &row.Title, &row.Description, &row.InternalRef,
		&row.EAN, &row.Condition, &row.ConditionComment, &row.Stock, &price,
		&row.DeliveryTime, &row.DeliveryMethod, &row.ForSale, &row.MainImage,
		&row.Participant, &row.AllImages, &row.CreatedAt,
	)
	if err != nil {
		return models.ListingRow{}, err
	}
	if price.Valid {
		v := price.Float64
		row.Price = &v
	}
	return row, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// ExportColumns is the fixed header of the marketplace upload template, in
// the exact order the template expects.
var ExportColumns = []string{
	"Productnaam",
	"Beschrijving",
	"Interne referentie",
	"EAN",
	"Conditie",
	"Conditie commentaar",
	"Voorraad",
	"Prijs",
	"Levertijd",
	"Afleverwijze",
	"Te koop",
	"Hoofdafbeelding",
	"Marktdeelnemer",
	"Additionele afbeeldingen",
}

// ExportCSV streams all saved listings as a spreadsheet in the template's
// column order.
func ExportCSV(database *sql.DB, w io.Writer) error {
	listings, err := ListRows(database)
	if err != nil {
		return fmt.Errorf("failed to load rows for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, row := range listings {
		price := ""
		if row.Price != nil {
			price = strconv.FormatFloat(*row.Price, 'f', 2, 64)
		}
		record := []string{
			row.Title,
			row.Description,
			row.InternalRef,
			row.EAN,
			row.Condition,
			row.ConditionComment,
			strconv.Itoa(row.Stock),
			price,
			row.DeliveryTime,
			row.DeliveryMethod,
			row.ForSale,
			row.MainImage,
			row.Participant,
			row.AllImages,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
