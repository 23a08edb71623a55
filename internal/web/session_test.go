package web

import (
	"testing"

	"mspro-labs/bol-lister/internal/models"
)

func TestPendingStoreRoundTrip(t *testing.T) {
	s := NewPendingStore()
	token := NewToken()

	if _, ok := s.Get(token); ok {
		t.Fatal("empty store should not return a row")
	}

	s.Put(token, models.ListingRow{Title: "Pending Widget"})
	row, ok := s.Get(token)
	if !ok || row.Title != "Pending Widget" {
		t.Fatalf("expected stored row back, got %v (ok=%v)", row, ok)
	}

	s.Delete(token)
	if _, ok := s.Get(token); ok {
		t.Error("row should be gone after delete")
	}
}

func TestNewTokenIsUnique(t *testing.T) {
	a, b := NewToken(), NewToken()
	if a == b {
		t.Error("two tokens should not collide")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}
