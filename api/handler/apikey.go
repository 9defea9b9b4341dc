package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecrawl/models"
	"github.com/use-agent/sitecrawl/store"
)

// CreateAPIKey returns a handler for POST /api/v1/apikeys. The plaintext
// key is returned exactly once, in this response; only its bcrypt hash is
// ever persisted.
func CreateAPIKey(keys *store.GormAPIKeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateAPIKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		plaintext, hash, err := store.GenerateAPIKey()
		if err != nil {
			internalError(c, err)
			return
		}

		key, err := keys.Create(c.Request.Context(), userID(c), req.Name, hash)
		if err != nil {
			internalError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.Envelope{
			Success: true,
			Data: models.APIKeyCreatedResponse{
				ID: key.ID, Name: key.Name, Key: plaintext, CreatedAt: key.CreatedAt,
			},
		})
	}
}

// DeleteAPIKey returns a handler for DELETE /api/v1/apikeys/:id.
func DeleteAPIKey(keys *store.GormAPIKeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			badRequest(c, "invalid api key id")
			return
		}
		if err := keys.Delete(c.Request.Context(), userID(c), id); err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true})
	}
}
