package store

import (
	"context"

	"gorm.io/gorm"
)

// SiteStore is the narrow persistence interface the crawl engine depends on.
type SiteStore interface {
	// ListEnabled returns every site with Status = true.
	ListEnabled(ctx context.Context) ([]Site, error)

	// Disable persists Status = false for the given site id.
	Disable(ctx context.Context, siteID int64) error
}

// GormSiteStore is the GORM-backed SiteStore implementation.
type GormSiteStore struct {
	db *gorm.DB
}

// NewGormSiteStore wraps db as a SiteStore.
func NewGormSiteStore(db *gorm.DB) *GormSiteStore {
	return &GormSiteStore{db: db}
}

func (s *GormSiteStore) ListEnabled(ctx context.Context) ([]Site, error) {
	var sites []Site
	err := s.db.WithContext(ctx).
		Where("status = ?", true).
		Order("id desc").
		Find(&sites).Error
	return sites, err
}

func (s *GormSiteStore) Disable(ctx context.Context, siteID int64) error {
	return s.db.WithContext(ctx).
		Model(&Site{}).
		Where("id = ?", siteID).
		Update("status", false).Error
}

// Create persists a new site and fills in its generated ID and CreatedAt.
func (s *GormSiteStore) Create(ctx context.Context, site *Site) error {
	return s.db.WithContext(ctx).Create(site).Error
}

// List returns every site owned by userID, most recent first.
func (s *GormSiteStore) List(ctx context.Context, userID int64) ([]Site, error) {
	var sites []Site
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&sites).Error
	return sites, err
}

// Get returns a site by id, scoped to userID so tenants cannot read each
// other's sites.
func (s *GormSiteStore) Get(ctx context.Context, userID, siteID int64) (Site, bool, error) {
	var site Site
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", siteID, userID).
		First(&site).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Site{}, false, nil
		}
		return Site{}, false, err
	}
	return site, true, nil
}

// Update applies a partial update to a site, scoped to userID.
func (s *GormSiteStore) Update(ctx context.Context, userID, siteID int64, fields map[string]any) error {
	return s.db.WithContext(ctx).
		Model(&Site{}).
		Where("id = ? AND user_id = ?", siteID, userID).
		Updates(fields).Error
}

// Delete removes a site, scoped to userID. Posts belonging to the site are
// left in place: posts.site_id carries no foreign-key constraint, so nothing
// cascades.
func (s *GormSiteStore) Delete(ctx context.Context, userID, siteID int64) error {
	return s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", siteID, userID).
		Delete(&Site{}).Error
}
