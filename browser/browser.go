// Package browser is a thin facade over a headless Chromium instance,
// exposing exactly the primitives the crawl engine needs: navigate,
// wait-for-selector, query text/attributes, remove elements, and screenshot.
package browser

import (
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/use-agent/sitecrawl/config"
)

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
const acceptLanguage = "en-US,en;q=0.9"

// Browser owns the single headless Chromium process and a reusable page
// pool shared by DiscoveryJob and FetchPool workers.
type Browser struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	cfg         config.BrowserConfig
	maxPages    int
	activePages atomic.Int32
}

// Stats reports the current utilisation of the page pool.
type Stats struct {
	MaxPages    int
	ActivePages int
}

// Stats returns a snapshot of the pool's current state.
func (b *Browser) Stats() Stats {
	return Stats{MaxPages: b.maxPages, ActivePages: int(b.activePages.Load())}
}

// Launch starts headless Chromium and initialises the page pool.
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, NewDriverError(ErrDriverUnavailable, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, NewDriverError(ErrDriverUnavailable, "failed to connect to browser", err)
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	return &Browser{
		browser:  b,
		pagePool: rod.NewPagePool(maxPages),
		cfg:      cfg,
		maxPages: maxPages,
	}, nil
}

// Close drains the page pool and kills the Chromium process.
func (b *Browser) Close() {
	b.pagePool.Cleanup(func(p *rod.Page) { _ = p.Close() })
	b.browser.MustClose()
}
