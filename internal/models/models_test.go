package models

import "testing"

func TestNewListingRowDefaults(t *testing.T) {
	price := 89.99
	rec := ProductRecord{
		SourceURL:    "https://www.bol.com/nl/nl/p/widget/1/",
		Title:        "Widget",
		EAN:          "8712345678903",
		ListPriceVal: &price,
		MainImage:    "https://media.s-bol.com/media/a.jpg",
		AllImages: []string{
			"https://media.s-bol.com/media/a.jpg",
			"https://media.s-bol.com/media/b.jpg",
		},
	}

	row := NewListingRow(rec)
	if row.Condition != DefaultCondition {
		t.Errorf("condition default: got %q", row.Condition)
	}
	if row.Stock != DefaultStock {
		t.Errorf("stock default: got %d", row.Stock)
	}
	if row.ForSale != DefaultForSale {
		t.Errorf("for-sale default: got %q", row.ForSale)
	}
	if row.Price == nil || *row.Price != 89.99 {
		t.Errorf("list price should seed the row price, got %v", row.Price)
	}
	if row.AllImages != "https://media.s-bol.com/media/a.jpg|https://media.s-bol.com/media/b.jpg" {
		t.Errorf("gallery join: got %q", row.AllImages)
	}
}

func TestJoinAndSplitImages(t *testing.T) {
	urls := []string{"a", "b", "c"}
	joined := JoinImages(urls)
	if joined != "a|b|c" {
		t.Errorf("JoinImages: got %q", joined)
	}

	back := SplitImages(joined)
	if len(back) != 3 || back[0] != "a" || back[2] != "c" {
		t.Errorf("SplitImages round trip failed: %v", back)
	}

	if got := SplitImages(""); got != nil {
		t.Errorf("empty string should split to nil, got %v", got)
	}
	if got := JoinImages(nil); got != "" {
		t.Errorf("nil gallery should join to empty, got %q", got)
	}
}

func TestPriceString(t *testing.T) {
	if got := (ListingRow{}).PriceString(); got != "" {
		t.Errorf("absent price should format empty, got %q", got)
	}
	v := 12.5
	if got := (ListingRow{Price: &v}).PriceString(); got != "12.50" {
		t.Errorf("expected '12.50', got %q", got)
	}
}
