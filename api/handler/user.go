package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecrawl/models"
	"github.com/use-agent/sitecrawl/store"
)

// CreateUser returns a handler for POST /api/v1/users. It sits outside the
// API-key auth group by construction — a tenant has no key until this call
// issues one — and registers both the account and its first API key in a
// single response.
func CreateUser(users *store.GormUserStore, keys *store.GormAPIKeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		passwordHash, err := store.HashPassword(req.Password)
		if err != nil {
			internalError(c, err)
			return
		}

		user, err := users.Create(c.Request.Context(), req.Email, passwordHash)
		if err != nil {
			if store.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, models.Envelope{
					Success: false,
					Error:   &models.ErrorDetail{Code: models.ErrCodeConflict, Message: "email already registered"},
				})
				return
			}
			internalError(c, err)
			return
		}

		plaintext, hash, err := store.GenerateAPIKey()
		if err != nil {
			internalError(c, err)
			return
		}
		key, err := keys.Create(c.Request.Context(), user.ID, "default", hash)
		if err != nil {
			internalError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.Envelope{
			Success: true,
			Data: models.UserCreatedResponse{
				UserID: user.ID,
				Email:  user.Email,
				APIKey: models.APIKeyCreatedResponse{
					ID: key.ID, Name: key.Name, Key: plaintext, CreatedAt: key.CreatedAt,
				},
				CreatedAt: user.CreatedAt,
			},
		})
	}
}
