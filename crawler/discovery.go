package crawler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/sitecrawl/store"
)

// DiscoveryJob periodically visits every enabled site's list page and
// inserts newly-discovered post URLs as PENDING posts.
type DiscoveryJob struct {
	sites   store.SiteStore
	posts   store.PostStore
	tracker *SiteErrorTracker
	open    OpenFunc

	interSiteSleep   time.Duration
	siteTimeout      time.Duration
	disableThreshold int
	waitForTimeout   time.Duration
	attrsTimeout     time.Duration
	openTimeout      time.Duration
}

// DiscoveryConfig carries the timeouts and thresholds DiscoveryJob enforces.
// Zero values fall back to the defaults from spec.md §4.4.
type DiscoveryConfig struct {
	InterSiteSleep   time.Duration
	SiteTimeout      time.Duration
	DisableThreshold int
}

// NewDiscoveryJob builds a DiscoveryJob. open is called to navigate to each
// site's list page.
func NewDiscoveryJob(sites store.SiteStore, posts store.PostStore, tracker *SiteErrorTracker, open OpenFunc, cfg DiscoveryConfig) *DiscoveryJob {
	j := &DiscoveryJob{
		sites:            sites,
		posts:            posts,
		tracker:          tracker,
		open:             open,
		interSiteSleep:   cfg.InterSiteSleep,
		siteTimeout:      cfg.SiteTimeout,
		disableThreshold: cfg.DisableThreshold,
		waitForTimeout:   20 * time.Second,
		attrsTimeout:     20 * time.Second,
		openTimeout:      30 * time.Second,
	}
	if j.interSiteSleep == 0 {
		j.interSiteSleep = 3 * time.Second
	}
	if j.siteTimeout == 0 {
		j.siteTimeout = 60 * time.Second
	}
	if j.disableThreshold == 0 {
		j.disableThreshold = 5
	}
	return j
}

// Run performs one discovery tick: every enabled site is visited
// sequentially, with a pacing sleep between sites. Failures on individual
// sites are logged and do not abort the tick.
func (j *DiscoveryJob) Run(ctx context.Context) {
	sites, err := j.sites.ListEnabled(ctx)
	if err != nil {
		slog.Error("discovery: failed to load enabled sites", "error", err)
		return
	}

	for i, site := range sites {
		siteCtx, cancel := context.WithTimeout(ctx, j.siteTimeout)
		j.processSite(siteCtx, site)
		cancel()

		if i < len(sites)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(j.interSiteSleep):
			}
		}
	}
}

func (j *DiscoveryJob) processSite(ctx context.Context, site store.Site) {
	if strings.TrimSpace(site.PathLink) == "" {
		return
	}

	openCtx, cancel := context.WithTimeout(ctx, j.openTimeout)
	defer cancel()
	driver, err := j.open(openCtx, site.URLList)
	if err != nil {
		slog.Warn("discovery: failed to open list page", "site_id", site.ID, "error", err)
		j.registerError(ctx, site)
		return
	}
	defer driver.Close()

	if err := driver.WaitFor(ctx, site.PathLink, j.waitForTimeout); err != nil {
		slog.Warn("discovery: link selector did not appear", "site_id", site.ID, "error", err)
		j.registerError(ctx, site)
		return
	}

	// Navigation and the selector wait both succeeded: the site's error
	// budget is cleared regardless of what downstream extraction does.
	j.tracker.Reset(site.ID)

	if selectors := parseRemoveSelectors(site.PathRemove); len(selectors) > 0 {
		if err := driver.Remove(selectors); err != nil {
			slog.Warn("discovery: remove failed", "site_id", site.ID, "error", err)
		}
	}

	hrefs, err := j.queryLinks(ctx, driver, site)
	if err != nil {
		return
	}

	for _, raw := range hrefs {
		link := NormalizeLink(site.URL, raw)
		err := j.posts.Insert(ctx, store.NewPost{
			URL:      link,
			SiteID:   site.ID,
			UserID:   site.UserID,
			APIKeyID: site.APIKeyID,
		})
		if err == nil {
			continue
		}
		if store.IsUniqueViolation(err) {
			continue
		}
		slog.Error("discovery: failed to insert post", "site_id", site.ID, "url", link, "error", err)
	}
}

func (j *DiscoveryJob) queryLinks(ctx context.Context, driver Driver, site store.Site) ([]string, error) {
	attrsCtx, cancel := context.WithTimeout(ctx, j.attrsTimeout)
	defer cancel()

	hrefs, err := driver.Attrs(site.PathLink, "href")
	if attrsCtx.Err() != nil {
		slog.Warn("discovery: href query timed out", "site_id", site.ID)
		j.registerError(ctx, site)
		return nil, attrsCtx.Err()
	}
	if err != nil {
		slog.Error("discovery: href query failed", "site_id", site.ID, "error", err)
		return nil, err
	}
	return hrefs, nil
}

// registerError bumps the site's error count and disables the site once the
// count reaches the disable threshold.
func (j *DiscoveryJob) registerError(ctx context.Context, site store.Site) {
	count := j.tracker.Register(site.ID)
	if count < j.disableThreshold {
		return
	}

	if err := j.sites.Disable(ctx, site.ID); err != nil {
		slog.Error("discovery: failed to disable site", "site_id", site.ID, "error", err)
		return
	}
	slog.Warn("discovery: site disabled after repeated errors", "site_id", site.ID, "error_count", count)
}

func parseRemoveSelectors(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
