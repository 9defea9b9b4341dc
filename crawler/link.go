// Package crawler implements the periodic crawl engine: site discovery,
// the bounded post-fetch pool, the per-site error tracker, the scheduler,
// and the retention sweep.
package crawler

import "strings"

// NormalizeLink maps a base URL and a raw href, as seen in the DOM, to a
// canonical absolute URL.
//
// Scheme-relative ("//host/...") and query-only ("?x=1") hrefs are returned
// unchanged and may escape the site's origin — this is the documented
// behaviour, not a bug; see the Open Question in the spec about
// normalization policy.
func NormalizeLink(base, raw string) string {
	if raw == "" {
		return raw
	}

	b := strings.TrimRight(strings.TrimSpace(base), "/")

	l := strings.ReplaceAll(strings.TrimSpace(raw), `"`, "")
	l = strings.TrimRight(l, "/")

	if rest, ok := strings.CutPrefix(l, "/"); ok {
		return b + "/" + rest
	}
	return l
}
