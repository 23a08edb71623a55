package render

import (
	"fmt"
	"log"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"mspro-labs/bol-lister/internal/config"
)

var logger = log.New(os.Stdout, "RENDER: ", log.LstdFlags|log.Lshortfile)

// Renderer produces the final post-JavaScript markup for a URL. The
// extraction engine consumes it through this interface so tests can swap in
// a canned document.
type Renderer interface {
	Render(url string) (string, error)
}

// Browser is a Renderer backed by a headless Chromium instance. Close must
// be called to release the underlying browser process.
type Browser struct {
	cfg     config.Render
	browser *rod.Browser
}

// Launch starts the browser process.
func Launch(cfg config.Render) (*Browser, error) {
	l := launcher.New().Headless(!cfg.Headed).NoSandbox(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	var browser *rod.Browser
	err = rod.Try(func() {
		browser = rod.New().ControlURL(u).MustConnect()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return &Browser{cfg: cfg, browser: browser}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	_ = rod.Try(b.browser.MustClose)
}

// Render navigates to the URL in a fresh stealth page and returns the
// rendered HTML. The page is released on every exit path. Dynamic content
// is waited for through the configured wait selector and rod's stability
// heuristic, not a fixed sleep.
func (b *Browser) Render(url string) (html string, err error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		_ = rod.Try(page.MustClose)
	}()

	err = rod.Try(func() {
		p := page.Timeout(b.cfg.PageTimeout.Std())

		logger.Printf("Navigating to: %s", url)
		p.MustNavigate(url)
		p.MustWaitStable()

		// Cookie consent banner, when configured. Missing is fine.
		if sel := b.cfg.CookieButton; sel != "" {
			_ = rod.Try(func() {
				p.Timeout(b.cfg.ElementWindow.Std()).MustElement(sel).MustClick()
				p.MustWaitStable()
			})
		}

		if sel := b.cfg.WaitSelector; sel != "" {
			logger.Printf("Waiting for content: %s", sel)
			p.MustElement(sel)
		}

		html = p.MustHTML()
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	return html, nil
}
