// Package store persists sites and posts and exposes the narrow interfaces
// the crawl engine depends on.
package store

import "time"

// PostStatus is the lifecycle state of a Post.
type PostStatus string

const (
	PostPending   PostStatus = "PENDING"
	PostCompleted PostStatus = "COMPLETED"
	PostFailed    PostStatus = "FAILED"
	PostCancelled PostStatus = "CANCELLED"
)

// User is the minimal owner record sites and posts are attributed to.
// Issuance, password hashing, and auth flows are out of scope for the
// crawl engine; this model exists only as the owner the user_id columns
// below refer to. Those columns are plain indexed integers: no database
// foreign-key constraint is declared on them.
type User struct {
	ID           int64 `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

// APIKey is the minimal credential record used by the auth middleware.
type APIKey struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"index;not null"`
	KeyHash   string `gorm:"uniqueIndex;not null"`
	Name      string
	CreatedAt time.Time
}

// Site is a user-registered crawl source.
type Site struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	URL      string `gorm:"not null"`     // origin, used as base for relative hrefs
	URLList  string `gorm:"not null"`     // list-page URL to crawl for new posts

	PathLink    string // anchors on the list page whose href is a candidate post
	PathTitle   string
	PathContent string
	PathImage   string
	PathVideo   string
	PathRemove  string // comma-separated list of selectors to remove before extraction

	Screenshot bool
	Status     bool `gorm:"index;not null;default:true"` // false disables discovery and fetch

	UserID    int64 `gorm:"index;not null"`
	APIKeyID  int64 `gorm:"index;not null"`
	CreatedAt time.Time
}

// Post is one unit of extracted content, unique per (SiteID, URL).
type Post struct {
	ID      int64  `gorm:"primaryKey"`
	Title   string
	Body    string
	Image   string
	Video   string
	URL     string `gorm:"not null;uniqueIndex:idx_site_url"`

	SiteID   int64 `gorm:"not null;uniqueIndex:idx_site_url"`
	UserID   int64 `gorm:"index"`
	APIKeyID int64 `gorm:"index"`

	Retry     int        `gorm:"not null;default:0"`
	Status    PostStatus `gorm:"index;not null;default:PENDING"`
	CreatedAt time.Time
}

// PostWithSite pairs a pending/failed post with its owning site, as returned
// by PostStore.ListPendingWithSite. Posts whose site no longer exists are
// dropped by the store, never surfaced here.
type PostWithSite struct {
	Post Post
	Site Site
}

// PostUpdate is the set of fields FetchPool persists on a successful extraction.
type PostUpdate struct {
	Title  string
	Body   string
	Image  string
	Video  string
	Status PostStatus
}
