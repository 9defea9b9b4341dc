package crawler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/use-agent/sitecrawl/store"
)

// FetchPool drains pending and failed posts, extracting title/body/image/
// video from each post's page under a bounded number of concurrent workers.
type FetchPool struct {
	posts   store.PostStore
	tracker *SiteErrorTracker
	open    OpenFunc
	sem     *semaphore.Weighted

	maxRetry       int
	postTimeout    time.Duration
	browserTimeout time.Duration
}

// FetchConfig carries the concurrency limit and timeouts FetchPool enforces.
type FetchConfig struct {
	Concurrency    int
	MaxRetry       int
	PostTimeout    time.Duration
	BrowserTimeout time.Duration
}

// NewFetchPool builds a FetchPool bounded to cfg.Concurrency simultaneous
// in-flight extractions.
func NewFetchPool(posts store.PostStore, tracker *SiteErrorTracker, open OpenFunc, cfg FetchConfig) *FetchPool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	postTimeout := cfg.PostTimeout
	if postTimeout == 0 {
		postTimeout = 90 * time.Second
	}
	browserTimeout := cfg.BrowserTimeout
	if browserTimeout == 0 {
		browserTimeout = 30 * time.Second
	}
	maxRetry := cfg.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 3
	}

	return &FetchPool{
		posts:          posts,
		tracker:        tracker,
		open:           open,
		sem:            semaphore.NewWeighted(int64(concurrency)),
		maxRetry:       maxRetry,
		postTimeout:    postTimeout,
		browserTimeout: browserTimeout,
	}
}

// Run drains every PENDING/FAILED post currently in the store, fetching
// each under a worker bounded by the pool's concurrency limit. It returns
// once every post picked up by this tick has finished.
func (f *FetchPool) Run(ctx context.Context) {
	pending, err := f.posts.ListPendingWithSite(ctx)
	if err != nil {
		slog.Error("fetchpool: failed to list pending posts", "error", err)
		return
	}

	done := make(chan struct{}, len(pending))
	for _, item := range pending {
		item := item
		if err := f.sem.Acquire(ctx, 1); err != nil {
			return // ctx cancelled while waiting for a worker slot
		}
		go func() {
			defer f.sem.Release(1)
			defer func() { done <- struct{}{} }()
			f.runWorker(ctx, item)
		}()
	}
	for range pending {
		<-done
	}
}

// runWorker processes a single post, recovering from any panic so one bad
// extraction never takes down the pool. A panicking post is marked failed.
func (f *FetchPool) runWorker(ctx context.Context, item store.PostWithSite) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("fetchpool: worker panicked", "post_id", item.Post.ID, "recovered", r)
			f.markFailed(ctx, item.Post)
		}
	}()

	postCtx, cancel := context.WithTimeout(ctx, f.postTimeout)
	defer cancel()
	f.processPost(postCtx, item)
}

func (f *FetchPool) processPost(ctx context.Context, item store.PostWithSite) {
	post, site := item.Post, item.Site

	openCtx, cancel := context.WithTimeout(ctx, f.browserTimeout)
	defer cancel()
	driver, err := f.open(openCtx, post.URL)
	if err != nil {
		slog.Warn("fetchpool: failed to open post page", "post_id", post.ID, "error", err)
		f.markFailed(ctx, post)
		return
	}
	defer driver.Close()

	if selectors := parseRemoveSelectors(site.PathRemove); len(selectors) > 0 {
		if err := driver.Remove(selectors); err != nil {
			slog.Warn("fetchpool: remove failed", "post_id", post.ID, "error", err)
		}
	}

	title := f.extractText(driver, site.PathTitle)
	body := f.extractHTML(driver, site.PathContent)
	image := NormalizeLink(site.URL, f.extractAttrOrText(driver, site.PathImage, "src"))
	video := NormalizeLink(site.URL, f.extractAttrOrText(driver, site.PathVideo, "src"))

	if title == "" && body == "" && image == "" && video == "" {
		slog.Warn("fetchpool: extraction produced no content", "post_id", post.ID, "site_id", site.ID)
		f.tracker.Register(site.ID)
		f.markFailed(ctx, post)
		return
	}

	err = f.posts.Complete(ctx, post.ID, store.PostUpdate{
		Title:  title,
		Body:   body,
		Image:  image,
		Video:  video,
		Status: store.PostCompleted,
	})
	if err != nil {
		slog.Error("fetchpool: failed to persist completed post", "post_id", post.ID, "error", err)
		f.markFailed(ctx, post)
	}
}

// extractText returns the trimmed inner text of selector, or "" if selector
// is unconfigured or the element is absent.
func (f *FetchPool) extractText(driver Driver, selector string) string {
	if strings.TrimSpace(selector) == "" {
		return ""
	}
	text, err := driver.Text(selector)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// extractHTML returns the trimmed outer HTML of selector, or "" if selector
// is unconfigured or the element is absent.
func (f *FetchPool) extractHTML(driver Driver, selector string) string {
	if strings.TrimSpace(selector) == "" {
		return ""
	}
	html, err := driver.HTML(selector)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

// extractAttrOrText returns attr of the first match of selector, falling
// back to "" when the selector is unconfigured, absent, or bare of attr.
func (f *FetchPool) extractAttrOrText(driver Driver, selector, attr string) string {
	if strings.TrimSpace(selector) == "" {
		return ""
	}
	val, err := driver.Attr(selector, attr)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(val)
}

// markFailed records a failed attempt. It detaches from ctx's deadline so a
// post whose per-post timeout has already expired is still marked.
func (f *FetchPool) markFailed(ctx context.Context, post store.Post) {
	if err := f.posts.MarkFailed(context.WithoutCancel(ctx), post.ID, f.maxRetry); err != nil {
		slog.Error("fetchpool: failed to mark post failed", "post_id", post.ID, "error", err)
	}
}
