package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Driver is a single navigated page, bound to the context passed to Open.
// Every operation must be called from the goroutine that owns the Driver;
// handles must never be shared across goroutines mid-use.
type Driver struct {
	raw     *rod.Page // the pool-native page, used only for release/cleanup
	page    *rod.Page // raw.Context(ctx)-bound page used for every operation
	pool    rod.Pool[rod.Page]
	onClose func()
}

// Open allocates a tab from the pool, sets device metrics, desktop user
// agent and accept-language, navigates to url, and waits for
// document.readyState == "complete" or for ctx to expire. width/height
// default to 1920x1080 when zero.
func (b *Browser) Open(ctx context.Context, url string, width, height int) (*Driver, error) {
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}

	raw, err := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, NewDriverError(ErrDriverUnavailable, "failed to acquire page from pool", err)
	}
	b.activePages.Add(1)

	d := &Driver{raw: raw, pool: b.pagePool, onClose: func() { b.activePages.Add(-1) }}

	if b.cfg.Stealth {
		if _, err := raw.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without it", "error", err)
		}
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width: width, Height: height, DeviceScaleFactor: 1, Mobile: false,
	}).Call(raw); err != nil {
		slog.Warn("failed to set device metrics", "error", err)
	}

	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent:      desktopUserAgent,
		AcceptLanguage: acceptLanguage,
	}).Call(raw); err != nil {
		slog.Warn("failed to set user agent", "error", err)
	}

	p := raw.Context(ctx)
	if err := p.Navigate(url); err != nil {
		d.Close()
		return nil, classify(err, ErrNavigationFailed, fmt.Sprintf("navigation to %s failed", url))
	}
	if err := p.WaitLoad(); err != nil {
		d.Close()
		return nil, classify(err, ErrNavigationFailed, "page did not reach readyState complete")
	}

	d.page = p
	return d, nil
}

// WaitFor blocks until the first element matching selector appears, or
// returns a selector-timeout error.
func (d *Driver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := d.page.Context(waitCtx).Element(selector); err != nil {
		return classify(err, ErrSelectorTimeout, fmt.Sprintf("selector %q did not appear", selector))
	}
	return nil
}

// Text returns the inner text of the first match of selector.
func (d *Driver) Text(selector string) (string, error) {
	el, err := d.page.Element(selector)
	if err != nil {
		return "", classify(err, ErrScriptFailed, fmt.Sprintf("element %q not found", selector))
	}
	text, err := el.Text()
	if err != nil {
		return "", classify(err, ErrScriptFailed, "failed to read element text")
	}
	return text, nil
}

// HTML returns the outer HTML of the first match of selector.
func (d *Driver) HTML(selector string) (string, error) {
	el, err := d.page.Element(selector)
	if err != nil {
		return "", classify(err, ErrScriptFailed, fmt.Sprintf("element %q not found", selector))
	}
	res, err := el.Eval(`() => this.outerHTML`)
	if err != nil {
		return "", classify(err, ErrScriptFailed, "failed to read outerHTML")
	}
	return res.Value.Str(), nil
}

// Attr returns the named attribute of the first match of selector, or an
// empty string if that element has no such attribute. A missing element is
// reported as an error.
func (d *Driver) Attr(selector, name string) (string, error) {
	el, err := d.page.Element(selector)
	if err != nil {
		return "", classify(err, ErrScriptFailed, fmt.Sprintf("element %q not found", selector))
	}
	val, err := el.Attribute(name)
	if err != nil {
		return "", classify(err, ErrScriptFailed, "failed to read attribute")
	}
	if val == nil {
		return "", nil
	}
	return *val, nil
}

// Attrs returns the named attribute across every match of selector, in
// document order. Elements without the attribute are skipped.
func (d *Driver) Attrs(selector, name string) ([]string, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, classify(err, ErrScriptFailed, fmt.Sprintf("elements %q not found", selector))
	}

	out := make([]string, 0, len(els))
	for _, el := range els {
		val, err := el.Attribute(name)
		if err != nil || val == nil {
			continue
		}
		out = append(out, *val)
	}
	return out, nil
}

// Remove deletes every DOM node matching any of selectors. Failures on
// individual selectors are logged and do not fail the batch.
func (d *Driver) Remove(selectors []string) error {
	const js = `(sel) => { document.querySelectorAll(sel).forEach((el) => el.remove()); }`
	for _, sel := range selectors {
		if _, err := d.page.Eval(js, sel); err != nil {
			slog.Warn("remove: selector failed", "selector", sel, "error", err)
		}
	}
	return nil
}

// Screenshot writes a JPEG of the body's bounding box to path (default
// "screenshot.jpeg") and returns the path written.
func (d *Driver) Screenshot(path string) (string, error) {
	if path == "" {
		path = "screenshot.jpeg"
	}

	body, err := d.page.Element("body")
	if err != nil {
		return "", classify(err, ErrIOFailed, "body element not found")
	}
	shape, err := body.Shape()
	if err != nil {
		return "", classify(err, ErrIOFailed, "failed to measure body")
	}
	box := shape.Box()

	data, err := d.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatJpeg,
		Clip: &proto.PageViewport{
			X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Scale: 1,
		},
	})
	if err != nil {
		return "", classify(err, ErrIOFailed, "screenshot failed")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", NewDriverError(ErrIOFailed, "failed to write screenshot file", err)
	}
	return path, nil
}

// Close resets the tab to about:blank and returns it to the page pool.
// Safe to call multiple times.
func (d *Driver) Close() {
	if d.raw == nil {
		return
	}
	if err := d.raw.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
	}
	d.pool.Put(d.raw)
	d.raw = nil
	if d.onClose != nil {
		d.onClose()
	}
}
