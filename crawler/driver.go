package crawler

import (
	"context"
	"time"
)

// Driver is the subset of browser.Driver the crawl engine depends on. It is
// declared here, rather than imported from the browser package, so
// DiscoveryJob and FetchPool can be exercised in tests against a fake
// implementation with no real Chromium process involved.
type Driver interface {
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Text(selector string) (string, error)
	HTML(selector string) (string, error)
	Attr(selector, name string) (string, error)
	Attrs(selector, name string) ([]string, error)
	Remove(selectors []string) error
	Close()
}

// OpenFunc opens a navigated Driver handle at url, bound to ctx for its
// lifetime. Implementations must return promptly on ctx cancellation.
type OpenFunc func(ctx context.Context, url string) (Driver, error)
