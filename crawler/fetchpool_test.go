package crawler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/sitecrawl/store"
)

type fakePendingPostStore struct {
	fakePostStore
	pending   []store.PostWithSite
	completed map[int64]store.PostUpdate
	failedIDs map[int64]int
}

func (p *fakePendingPostStore) ListPendingWithSite(ctx context.Context) ([]store.PostWithSite, error) {
	return p.pending, nil
}

func (p *fakePendingPostStore) Complete(ctx context.Context, id int64, update store.PostUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed == nil {
		p.completed = make(map[int64]store.PostUpdate)
	}
	p.completed[id] = update
	return nil
}

func (p *fakePendingPostStore) MarkFailed(ctx context.Context, id int64, maxRetry int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failedIDs == nil {
		p.failedIDs = make(map[int64]int)
	}
	p.failedIDs[id]++
	return nil
}

func TestFetchPoolCompletesPostWithContent(t *testing.T) {
	site := store.Site{ID: 1, URL: "https://x.test", PathTitle: "h1", PathContent: "article", PathImage: "img"}
	post := store.Post{ID: 100, URL: "https://x.test/p/1", SiteID: 1}
	posts := &fakePendingPostStore{pending: []store.PostWithSite{{Post: post, Site: site}}}
	tracker := NewSiteErrorTracker()

	driver := &fakeDriver{
		texts: map[string]string{"h1": "  Hello  "},
		htmls: map[string]string{"article": "<p>body text</p>"},
		attr:  map[string]string{"img|src": "/img.jpg"},
	}
	open := func(ctx context.Context, url string) (Driver, error) { return driver, nil }

	pool := NewFetchPool(posts, tracker, open, FetchConfig{Concurrency: 2, PostTimeout: 5 * time.Second, BrowserTimeout: 5 * time.Second})
	pool.Run(context.Background())

	update, ok := posts.completed[100]
	if !ok {
		t.Fatalf("expected post 100 to be completed")
	}
	if update.Title != "Hello" {
		t.Errorf("title = %q, want trimmed %q", update.Title, "Hello")
	}
	if update.Body != "<p>body text</p>" {
		t.Errorf("body = %q, want outer HTML %q", update.Body, "<p>body text</p>")
	}
	if update.Image != "https://x.test/img.jpg" {
		t.Errorf("image = %q, want normalized %q", update.Image, "https://x.test/img.jpg")
	}
	if update.Status != store.PostCompleted {
		t.Errorf("status = %q, want COMPLETED", update.Status)
	}
	if !driver.closed {
		t.Error("driver was not closed")
	}
}

func TestFetchPoolMarksFailedWhenExtractionEmpty(t *testing.T) {
	site := store.Site{ID: 2, PathTitle: "h1", PathContent: "article"}
	post := store.Post{ID: 200, URL: "https://x.test/p/2", SiteID: 2}
	posts := &fakePendingPostStore{pending: []store.PostWithSite{{Post: post, Site: site}}}
	tracker := NewSiteErrorTracker()

	driver := &fakeDriver{}
	open := func(ctx context.Context, url string) (Driver, error) { return driver, nil }

	pool := NewFetchPool(posts, tracker, open, FetchConfig{Concurrency: 1, MaxRetry: 3})
	pool.Run(context.Background())

	if posts.failedIDs[200] != 1 {
		t.Fatalf("expected post 200 to be marked failed once, got %d", posts.failedIDs[200])
	}
	if _, completed := posts.completed[200]; completed {
		t.Error("post should not have been completed")
	}
	if got := tracker.Register(2); got != 2 {
		t.Errorf("expected extraction failure to have already registered one site error, got count %d before this call", got-1)
	}
}

func TestFetchPoolMarksFailedWhenOpenErrors(t *testing.T) {
	site := store.Site{ID: 3}
	post := store.Post{ID: 300, URL: "https://x.test/p/3", SiteID: 3}
	posts := &fakePendingPostStore{pending: []store.PostWithSite{{Post: post, Site: site}}}
	tracker := NewSiteErrorTracker()

	open := func(ctx context.Context, url string) (Driver, error) { return nil, errBoom }

	pool := NewFetchPool(posts, tracker, open, FetchConfig{Concurrency: 1})
	pool.Run(context.Background())

	if posts.failedIDs[300] != 1 {
		t.Fatalf("expected post 300 to be marked failed, got %d", posts.failedIDs[300])
	}
	if got := tracker.Register(3); got != 1 {
		t.Errorf("browser-open failure must not register a site error, got pre-existing count %d", got-1)
	}
}

func TestFetchPoolMarksFailedWhenPersistenceFails(t *testing.T) {
	site := store.Site{ID: 4, PathTitle: "h1"}
	post := store.Post{ID: 400, URL: "https://x.test/p/4", SiteID: 4}
	posts := &fakeFailingCompletePostStore{
		fakePendingPostStore: fakePendingPostStore{pending: []store.PostWithSite{{Post: post, Site: site}}},
	}
	tracker := NewSiteErrorTracker()

	driver := &fakeDriver{texts: map[string]string{"h1": "title"}}
	open := func(ctx context.Context, url string) (Driver, error) { return driver, nil }

	pool := NewFetchPool(posts, tracker, open, FetchConfig{Concurrency: 1, MaxRetry: 3})
	pool.Run(context.Background())

	if posts.failedIDs[400] != 1 {
		t.Fatalf("expected post 400 to be marked failed after persistence error, got %d", posts.failedIDs[400])
	}
}

type fakeFailingCompletePostStore struct {
	fakePendingPostStore
}

func (p *fakeFailingCompletePostStore) Complete(ctx context.Context, id int64, update store.PostUpdate) error {
	return errBoom
}

func TestFetchPoolRespectsConcurrencyLimit(t *testing.T) {
	var pending []store.PostWithSite
	for i := int64(1); i <= 5; i++ {
		pending = append(pending, store.PostWithSite{
			Post: store.Post{ID: i, URL: "https://x.test/p", SiteID: 1},
			Site: store.Site{ID: 1, PathTitle: "h1"},
		})
	}
	posts := &fakePendingPostStore{pending: pending}
	tracker := NewSiteErrorTracker()

	var inFlight, maxInFlight int
	var mu sync.Mutex
	driver := &fakeDriver{texts: map[string]string{"h1": "x"}}
	open := func(ctx context.Context, url string) (Driver, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return driver, nil
	}

	pool := NewFetchPool(posts, tracker, open, FetchConfig{Concurrency: 2})
	pool.Run(context.Background())

	if maxInFlight > 2 {
		t.Errorf("max in-flight opens = %d, want <= 2", maxInFlight)
	}
}
