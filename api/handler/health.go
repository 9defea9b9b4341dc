package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecrawl/browser"
	"github.com/use-agent/sitecrawl/models"
	"github.com/use-agent/sitecrawl/store"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(br *browser.Browser, sites *store.GormSiteStore, posts *store.GormPostStore, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		poolStats := br.Stats()

		status := "healthy"
		if poolStats.MaxPages > 0 && poolStats.ActivePages > int(float64(poolStats.MaxPages)*0.8) {
			status = "degraded"
		}

		var pendingPosts, enabledSites int64
		if enabled, err := sites.ListEnabled(ctx); err == nil {
			enabledSites = int64(len(enabled))
		}
		if pending, err := posts.ListPendingWithSite(ctx); err == nil {
			pendingPosts = int64(len(pending))
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			Version:      "0.1.0",
			PendingPosts: pendingPosts,
			EnabledSites: enabledSites,
			BrowserPool:  models.PoolStats{MaxPages: poolStats.MaxPages, ActivePages: poolStats.ActivePages},
		})
	}
}
