package models

import "time"

// Envelope wraps every API response. Error is populated only when Success
// is false; Data is populated only when Success is true.
type Envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string    `json:"status"` // "healthy" or "degraded"
	Uptime       string    `json:"uptime"`
	Version      string    `json:"version"`
	PendingPosts int64     `json:"pending_posts"`
	EnabledSites int64     `json:"enabled_sites"`
	BrowserPool  PoolStats `json:"browser_pool"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// SiteResponse is the API-facing view of a crawl source.
type SiteResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	URLList     string    `json:"url_list"`
	PathLink    string    `json:"path_link"`
	PathTitle   string    `json:"path_title"`
	PathContent string    `json:"path_content"`
	PathImage   string    `json:"path_image"`
	PathVideo   string    `json:"path_video"`
	PathRemove  string    `json:"path_remove"`
	Screenshot  bool      `json:"screenshot"`
	Status      bool      `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// PostResponse is the API-facing view of one extracted unit of content.
type PostResponse struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Image     string    `json:"image"`
	Video     string    `json:"video"`
	Retry     int       `json:"retry"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCreatedResponse is returned by the user bootstrap endpoint, pairing
// the new account with its first issued API key.
type UserCreatedResponse struct {
	UserID    int64                 `json:"user_id"`
	Email     string                `json:"email"`
	APIKey    APIKeyCreatedResponse `json:"api_key"`
	CreatedAt time.Time             `json:"created_at"`
}

// APIKeyCreatedResponse is returned exactly once, at creation time. The
// plaintext key is never retrievable again; only its hash is persisted.
type APIKeyCreatedResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}
