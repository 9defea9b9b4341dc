package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecrawl/models"
	"github.com/use-agent/sitecrawl/store"
)

// CreateSite returns a handler for POST /api/v1/sites.
func CreateSite(sites *store.GormSiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateSiteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		site := store.Site{
			Name:        req.Name,
			URL:         req.URL,
			URLList:     req.URLList,
			PathLink:    req.PathLink,
			PathTitle:   req.PathTitle,
			PathContent: req.PathContent,
			PathImage:   req.PathImage,
			PathVideo:   req.PathVideo,
			PathRemove:  req.PathRemove,
			Screenshot:  req.Screenshot,
			Status:      true,
			UserID:      userID(c),
			APIKeyID:    apiKeyID(c),
		}
		if err := sites.Create(c.Request.Context(), &site); err != nil {
			internalError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.Envelope{Success: true, Data: toSiteResponse(site)})
	}
}

// ListSites returns a handler for GET /api/v1/sites.
func ListSites(sites *store.GormSiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := sites.List(c.Request.Context(), userID(c))
		if err != nil {
			internalError(c, err)
			return
		}

		out := make([]models.SiteResponse, 0, len(list))
		for _, s := range list {
			out = append(out, toSiteResponse(s))
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true, Data: out})
	}
}

// GetSite returns a handler for GET /api/v1/sites/:id.
func GetSite(sites *store.GormSiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			badRequest(c, "invalid site id")
			return
		}

		site, ok, err := sites.Get(c.Request.Context(), userID(c), id)
		if err != nil {
			internalError(c, err)
			return
		}
		if !ok {
			notFound(c, "site not found")
			return
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true, Data: toSiteResponse(site)})
	}
}

// UpdateSite returns a handler for PATCH /api/v1/sites/:id.
func UpdateSite(sites *store.GormSiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			badRequest(c, "invalid site id")
			return
		}

		var req models.UpdateSiteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		fields := map[string]any{}
		setIfPresent(fields, "name", req.Name)
		setIfPresent(fields, "url_list", req.URLList)
		setIfPresent(fields, "path_link", req.PathLink)
		setIfPresent(fields, "path_title", req.PathTitle)
		setIfPresent(fields, "path_content", req.PathContent)
		setIfPresent(fields, "path_image", req.PathImage)
		setIfPresent(fields, "path_video", req.PathVideo)
		setIfPresent(fields, "path_remove", req.PathRemove)
		if req.Screenshot != nil {
			fields["screenshot"] = *req.Screenshot
		}
		if req.Status != nil {
			fields["status"] = *req.Status
		}
		if len(fields) == 0 {
			badRequest(c, "no fields to update")
			return
		}

		if err := sites.Update(c.Request.Context(), userID(c), id, fields); err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true})
	}
}

// DeleteSite returns a handler for DELETE /api/v1/sites/:id.
func DeleteSite(sites *store.GormSiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			badRequest(c, "invalid site id")
			return
		}
		if err := sites.Delete(c.Request.Context(), userID(c), id); err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true})
	}
}

func setIfPresent(fields map[string]any, key string, val *string) {
	if val != nil {
		fields[key] = *val
	}
}

func toSiteResponse(s store.Site) models.SiteResponse {
	return models.SiteResponse{
		ID: s.ID, Name: s.Name, URL: s.URL, URLList: s.URLList,
		PathLink: s.PathLink, PathTitle: s.PathTitle, PathContent: s.PathContent,
		PathImage: s.PathImage, PathVideo: s.PathVideo, PathRemove: s.PathRemove,
		Screenshot: s.Screenshot, Status: s.Status, CreatedAt: s.CreatedAt,
	}
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func userID(c *gin.Context) int64 {
	v, _ := c.Get("user_id")
	id, _ := v.(int64)
	return id
}

func apiKeyID(c *gin.Context) int64 {
	v, _ := c.Get("api_key_id")
	id, _ := v.(int64)
	return id
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.Envelope{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: message},
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.Envelope{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeNotFound, Message: message},
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, models.Envelope{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()},
	})
}
