package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecrawl/models"
	"github.com/use-agent/sitecrawl/store"
)

// ListPostsBySite returns a handler for GET /api/v1/sites/:id/posts.
func ListPostsBySite(posts *store.GormPostStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		siteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			badRequest(c, "invalid site id")
			return
		}

		list, err := posts.ListBySite(c.Request.Context(), userID(c), siteID)
		if err != nil {
			internalError(c, err)
			return
		}

		out := make([]models.PostResponse, 0, len(list))
		for _, p := range list {
			out = append(out, toPostResponse(p))
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true, Data: out})
	}
}

// GetPost returns a handler for GET /api/v1/posts/:id.
func GetPost(posts *store.GormPostStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			badRequest(c, "invalid post id")
			return
		}

		post, ok, err := posts.GetOwned(c.Request.Context(), userID(c), id)
		if err != nil {
			internalError(c, err)
			return
		}
		if !ok {
			notFound(c, "post not found")
			return
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true, Data: toPostResponse(post)})
	}
}

func toPostResponse(p store.Post) models.PostResponse {
	return models.PostResponse{
		ID: p.ID, SiteID: p.SiteID, URL: p.URL,
		Title: p.Title, Body: p.Body, Image: p.Image, Video: p.Video,
		Retry: p.Retry, Status: string(p.Status), CreatedAt: p.CreatedAt,
	}
}
