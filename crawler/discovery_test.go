package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/sitecrawl/store"
	"gorm.io/gorm"
)

// fakeDriver is a scripted Driver used to exercise DiscoveryJob and FetchPool
// without a real browser.
type fakeDriver struct {
	waitForErr error
	attrs      map[string][]string
	attrsErr   error
	texts      map[string]string
	htmls      map[string]string
	attr       map[string]string

	mu      sync.Mutex
	removed []string
	closed  bool
}

func (d *fakeDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return d.waitForErr
}
func (d *fakeDriver) Text(selector string) (string, error) { return d.texts[selector], nil }
func (d *fakeDriver) HTML(selector string) (string, error) { return d.htmls[selector], nil }
func (d *fakeDriver) Attr(selector, name string) (string, error) {
	return d.attr[selector+"|"+name], nil
}
func (d *fakeDriver) Attrs(selector, name string) ([]string, error) {
	if d.attrsErr != nil {
		return nil, d.attrsErr
	}
	return d.attrs[selector+"|"+name], nil
}
func (d *fakeDriver) Remove(selectors []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removed = append(d.removed, selectors...)
	return nil
}
func (d *fakeDriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// fakeSiteStore and fakePostStore give DiscoveryJob/FetchPool tests an
// in-memory, single-goroutine substitute for the GORM-backed stores.
type fakeSiteStore struct {
	mu       sync.Mutex
	sites    []store.Site
	disabled map[int64]bool
}

func (s *fakeSiteStore) ListEnabled(ctx context.Context) ([]store.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Site
	for _, site := range s.sites {
		if site.Status {
			out = append(out, site)
		}
	}
	return out, nil
}

func (s *fakeSiteStore) Disable(ctx context.Context, siteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled == nil {
		s.disabled = make(map[int64]bool)
	}
	s.disabled[siteID] = true
	for i := range s.sites {
		if s.sites[i].ID == siteID {
			s.sites[i].Status = false
		}
	}
	return nil
}

type fakePostStore struct {
	mu      sync.Mutex
	posts   []store.Post
	nextID  int64
	failed  map[int64]int
}

func (p *fakePostStore) Insert(ctx context.Context, n store.NewPost) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.posts {
		if existing.SiteID == n.SiteID && existing.URL == n.URL {
			return gorm.ErrDuplicatedKey
		}
	}
	p.nextID++
	p.posts = append(p.posts, store.Post{
		ID: p.nextID, URL: n.URL, SiteID: n.SiteID, UserID: n.UserID, APIKeyID: n.APIKeyID,
		Status: store.PostPending,
	})
	return nil
}

func (p *fakePostStore) ListPendingWithSite(ctx context.Context) ([]store.PostWithSite, error) {
	return nil, nil
}
func (p *fakePostStore) Get(ctx context.Context, id int64) (store.Post, bool, error) {
	return store.Post{}, false, nil
}
func (p *fakePostStore) Complete(ctx context.Context, id int64, update store.PostUpdate) error {
	return nil
}
func (p *fakePostStore) MarkFailed(ctx context.Context, id int64, maxRetry int) error { return nil }
func (p *fakePostStore) DeleteBelowBoundary(ctx context.Context, keepLatest int) (int64, error) {
	return 0, nil
}

func TestDiscoveryJobInsertsNormalizedLinks(t *testing.T) {
	site := store.Site{ID: 1, Name: "s", URL: "https://x.test", URLList: "https://x.test/list", PathLink: "a.post", Status: true}
	sites := &fakeSiteStore{sites: []store.Site{site}}
	posts := &fakePostStore{}
	tracker := NewSiteErrorTracker()

	driver := &fakeDriver{attrs: map[string][]string{"a.post|href": {"/p/1", "/p/2", "/p/1"}}}
	open := func(ctx context.Context, url string) (Driver, error) { return driver, nil }

	job := NewDiscoveryJob(sites, posts, tracker, open, DiscoveryConfig{InterSiteSleep: time.Millisecond})
	job.Run(context.Background())

	if len(posts.posts) != 2 {
		t.Fatalf("got %d posts, want 2 (duplicate href collapsed)", len(posts.posts))
	}
	for i, want := range []string{"https://x.test/p/1", "https://x.test/p/2"} {
		if posts.posts[i].URL != want {
			t.Errorf("post %d url = %q, want normalized %q", i, posts.posts[i].URL, want)
		}
	}
	if !driver.closed {
		t.Error("driver was not closed after processSite")
	}
}

func TestDiscoveryJobDisablesSiteAfterThreshold(t *testing.T) {
	site := store.Site{ID: 7, Name: "s", URL: "https://x.test", URLList: "https://x.test/list", PathLink: "a.post", Status: true}
	sites := &fakeSiteStore{sites: []store.Site{site}}
	posts := &fakePostStore{}
	tracker := NewSiteErrorTracker()

	driver := &fakeDriver{waitForErr: errBoom}
	open := func(ctx context.Context, url string) (Driver, error) { return driver, nil }

	job := NewDiscoveryJob(sites, posts, tracker, open, DiscoveryConfig{InterSiteSleep: time.Millisecond, DisableThreshold: 3})
	for i := 0; i < 3; i++ {
		job.Run(context.Background())
	}

	if !sites.disabled[7] {
		t.Error("expected site to be disabled after repeated WaitFor failures")
	}
}

func TestDiscoveryJobSkipsSiteWithoutPathLink(t *testing.T) {
	site := store.Site{ID: 9, Name: "s", URL: "https://x.test", URLList: "https://x.test/list", Status: true}
	sites := &fakeSiteStore{sites: []store.Site{site}}
	posts := &fakePostStore{}
	tracker := NewSiteErrorTracker()

	called := false
	open := func(ctx context.Context, url string) (Driver, error) {
		called = true
		return nil, nil
	}

	job := NewDiscoveryJob(sites, posts, tracker, open, DiscoveryConfig{})
	job.Run(context.Background())

	if called {
		t.Error("open should not be called for a site with no PathLink configured")
	}
}

var errBoom = errors.New("boom")
