package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecrawl/api/handler"
	"github.com/use-agent/sitecrawl/api/middleware"
	"github.com/use-agent/sitecrawl/browser"
	"github.com/use-agent/sitecrawl/config"
	"github.com/use-agent/sitecrawl/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and user bootstrap are intentionally outside auth: health so
// monitoring probes always work, user bootstrap because a tenant has no
// API key to present until it runs.
func NewRouter(br *browser.Browser, sites *store.GormSiteStore, posts *store.GormPostStore, users *store.GormUserStore, keys *store.GormAPIKeyStore, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(br, sites, posts, startTime))
	v1.POST("/users", handler.CreateUser(users, keys))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(keys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/sites", handler.CreateSite(sites))
	protected.GET("/sites", handler.ListSites(sites))
	protected.GET("/sites/:id", handler.GetSite(sites))
	protected.PATCH("/sites/:id", handler.UpdateSite(sites))
	protected.DELETE("/sites/:id", handler.DeleteSite(sites))
	protected.GET("/sites/:id/posts", handler.ListPostsBySite(posts))

	protected.GET("/posts/:id", handler.GetPost(posts))

	protected.POST("/apikeys", handler.CreateAPIKey(keys))
	protected.DELETE("/apikeys/:id", handler.DeleteAPIKey(keys))

	return r
}
