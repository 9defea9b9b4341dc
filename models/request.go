package models

// CreateSiteRequest is the body of POST /api/v1/sites.
type CreateSiteRequest struct {
	Name        string `json:"name" binding:"required"`
	URL         string `json:"url" binding:"required,url"`
	URLList     string `json:"url_list" binding:"required,url"`
	PathLink    string `json:"path_link" binding:"required"`
	PathTitle   string `json:"path_title"`
	PathContent string `json:"path_content"`
	PathImage   string `json:"path_image"`
	PathVideo   string `json:"path_video"`
	PathRemove  string `json:"path_remove"`
	Screenshot  bool   `json:"screenshot"`
}

// UpdateSiteRequest is the body of PATCH /api/v1/sites/:id. A nil pointer
// leaves the corresponding field unchanged.
type UpdateSiteRequest struct {
	Name        *string `json:"name"`
	URLList     *string `json:"url_list"`
	PathLink    *string `json:"path_link"`
	PathTitle   *string `json:"path_title"`
	PathContent *string `json:"path_content"`
	PathImage   *string `json:"path_image"`
	PathVideo   *string `json:"path_video"`
	PathRemove  *string `json:"path_remove"`
	Screenshot  *bool   `json:"screenshot"`
	Status      *bool   `json:"status"`
}

// CreateAPIKeyRequest is the body of POST /api/v1/apikeys.
type CreateAPIKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateUserRequest is the body of POST /api/v1/users, the unauthenticated
// bootstrap endpoint that registers a tenant and issues its first API key.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}
