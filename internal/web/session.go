package web

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"mspro-labs/bol-lister/internal/models"
)

// CookieName carries the pending-edit token between workflow steps.
const CookieName = "pending_listing"

// PendingStore holds the in-progress listing between the scrape, edit and
// confirm steps, keyed by a random cookie token. One entry per operator
// session; saving or abandoning removes it.
type PendingStore struct {
	mu   sync.Mutex
	rows map[string]models.ListingRow
}

func NewPendingStore() *PendingStore {
	return &PendingStore{rows: make(map[string]models.ListingRow)}
}

// NewToken returns a fresh random session token.
func NewToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure means the process is unusable
	}
	return hex.EncodeToString(b)
}

func (s *PendingStore) Put(token string, row models.ListingRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[token] = row
}

func (s *PendingStore) Get(token string) (models.ListingRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[token]
	return row, ok
}

func (s *PendingStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, token)
}
