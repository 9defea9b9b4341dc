package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecrawl/models"
	"github.com/use-agent/sitecrawl/store"
)

// Auth returns API-key authentication middleware.
//
// Supports two header styles:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// Presented keys are bcrypt-compared against every row in an in-memory
// cache of issued key hashes, refreshed every 30 seconds by a background
// goroutine — grounded in the same ticker-refresh shape as RateLimit's
// eviction loop. Key counts for this kind of internal crawler API are
// expected to stay small enough that a linear scan per request is cheap.
func Auth(keys *store.GormAPIKeyStore) gin.HandlerFunc {
	cache := newKeyCache(keys)
	go cache.refreshLoop()

	return func(c *gin.Context) {
		presented := extractAPIKey(c)
		if presented == "" {
			unauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}

		key, ok := cache.match(presented)
		if !ok {
			unauthorized(c, "invalid API key")
			return
		}

		c.Set("api_key_id", key.ID)
		c.Set("user_id", key.UserID)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.Envelope{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeUnauthorized, Message: message},
	})
}

// extractAPIKey tries X-API-Key first, then Authorization: Bearer.
func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

type keyCache struct {
	store *store.GormAPIKeyStore

	mu   sync.RWMutex
	keys []store.APIKey
}

func newKeyCache(s *store.GormAPIKeyStore) *keyCache {
	c := &keyCache{store: s}
	c.reload()
	return c
}

func (c *keyCache) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	keys, err := c.store.List(ctx)
	if err != nil {
		return // keep serving the stale cache rather than locking everyone out
	}
	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
}

func (c *keyCache) refreshLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		c.reload()
	}
}

func (c *keyCache) match(presented string) (store.APIKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range c.keys {
		if store.VerifyAPIKey(presented, key.KeyHash) {
			return key, true
		}
	}
	return store.APIKey{}, false
}
