package models

import (
	"strconv"
	"strings"
	"time"
)

// ProductRecord holds the fields extracted from a single bol.com product
// page. Every field has a usable zero value, so a record is constructable
// even when every extractor came up empty.
type ProductRecord struct {
	SourceURL     string
	Title         string
	Brand         string
	PriceText     string
	PriceValue    *float64 // nil when no price was found or parsing failed
	ListPriceText string
	ListPriceVal  *float64 // nil when the page shows no reference price
	EAN           string   // digits only
	Description   string
	MainImage     string
	AllImages     []string // deduplicated, first-seen order, capped
}

// ListingRow is one row of the export sheet: the extracted record plus the
// operator-filled fields from the marketplace upload template.
type ListingRow struct {
	ID               int64
	SourceURL        string
	Title            string
	Description      string
	InternalRef      string
	EAN              string
	Condition        string
	ConditionComment string
	Stock            int
	Price            *float64
	DeliveryTime     string
	DeliveryMethod   string
	ForSale          string
	MainImage        string
	Participant      string
	AllImages        string // pipe-joined gallery URLs
	CreatedAt        time.Time
}

// PriceString formats the optional price for form fields and tables; an
// absent price renders as the empty string, not 0.00.
func (r ListingRow) PriceString() string {
	if r.Price == nil {
		return ""
	}
	return strconv.FormatFloat(*r.Price, 'f', 2, 64)
}

// Template defaults injected when a fresh extraction becomes a listing row.
const (
	DefaultCondition = "Nieuw"
	DefaultStock     = 69
	DefaultForSale   = "Ja"
)

// NewListingRow maps an extracted record onto a listing row with the
// template defaults filled in. The gallery is joined here; the extraction
// engine itself only ever deals in slices.
func NewListingRow(rec ProductRecord) ListingRow {
	return ListingRow{
		SourceURL:   rec.SourceURL,
		Title:       rec.Title,
		Description: rec.Description,
		EAN:         rec.EAN,
		Condition:   DefaultCondition,
		Stock:       DefaultStock,
		Price:       rec.ListPriceVal,
		ForSale:     DefaultForSale,
		MainImage:   rec.MainImage,
		AllImages:   JoinImages(rec.AllImages),
	}
}

// JoinImages serializes a gallery for row storage.
func JoinImages(urls []string) string {
	return strings.Join(urls, "|")
}

// SplitImages is the inverse of JoinImages. An empty string yields nil, not
// a one-element slice.
func SplitImages(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "|")
}
