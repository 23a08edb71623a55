package rehost

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

var logger = log.New(os.Stdout, "REHOST: ", log.LstdFlags|log.Lshortfile)

// Mirror downloads remote product images and serves them from local disk,
// so saved listings don't depend on the marketplace CDN staying stable.
// The HTTP client is passed in explicitly: callers own its lifetime and
// timeouts, and tests can point it at a stub server.
type Mirror struct {
	client *http.Client
	dir    string
}

// New creates a mirror writing into dir. A nil client gets a conservative
// default timeout.
func New(client *http.Client, dir string) (*Mirror, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir %s: %w", dir, err)
	}
	return &Mirror{client: client, dir: dir}, nil
}

// Dir returns the local storage directory, for serving via a file server.
func (m *Mirror) Dir() string {
	return m.dir
}

// Fetch downloads every image and returns the local filenames, in input
// order. Each image is best-effort: a failed download is logged and
// skipped, never fatal.
func (m *Mirror) Fetch(urls []string) []string {
	var names []string
	for _, u := range urls {
		name, err := m.fetchOne(u)
		if err != nil {
			logger.Printf("Skipping image %s: %v", u, err)
			continue
		}
		names = append(names, name)
	}
	return names
}

func (m *Mirror) fetchOne(rawURL string) (string, error) {
	name := localName(rawURL)
	dest := filepath.Join(m.dir, name)

	// Already mirrored.
	if _, err := os.Stat(dest); err == nil {
		return name, nil
	}

	resp, err := m.client.Get(rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.CreateTemp(m.dir, "download-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Rename(f.Name(), dest); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return name, nil
}

// localName derives a stable filename from the source URL: hash plus the
// original extension, so re-fetching the same URL is a no-op.
func localName(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	ext := ".jpg"
	if u, err := url.Parse(rawURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	return hex.EncodeToString(sum[:]) + ext
}
