package store

import (
	"context"

	"gorm.io/gorm"
)

// NewPost is the data required to insert a candidate post discovered on a
// site's list page.
type NewPost struct {
	URL      string
	SiteID   int64
	UserID   int64
	APIKeyID int64
}

// PostStore is the narrow persistence interface the crawl engine depends on.
type PostStore interface {
	// Insert creates a PENDING post with retry = 0. A duplicate (SiteID, URL)
	// returns an error for which store.IsUniqueViolation reports true.
	Insert(ctx context.Context, p NewPost) error

	// ListPendingWithSite returns every PENDING or FAILED post joined with
	// its owning site, ordered by descending post id. Posts whose site has
	// been deleted are dropped.
	ListPendingWithSite(ctx context.Context) ([]PostWithSite, error)

	// Get returns a post by id, or (Post{}, false, nil) if it doesn't exist.
	Get(ctx context.Context, id int64) (Post, bool, error)

	// Complete persists extracted content and marks the post COMPLETED,
	// bumping retry by one.
	Complete(ctx context.Context, id int64, update PostUpdate) error

	// MarkFailed bumps retry by one and transitions the post to FAILED, or
	// to CANCELLED if the bumped retry reaches maxRetry. No-op if the post
	// no longer exists.
	MarkFailed(ctx context.Context, id int64, maxRetry int) error

	// DeleteBelowBoundary deletes every post with id below the post sitting
	// at offset (keepLatest-1) in descending-id order, and returns the
	// number of rows deleted. Returns 0 without deleting when keepLatest is
	// 0 or the table holds fewer than keepLatest rows.
	DeleteBelowBoundary(ctx context.Context, keepLatest int) (int64, error)
}

// GormPostStore is the GORM-backed PostStore implementation.
type GormPostStore struct {
	db *gorm.DB
}

// NewGormPostStore wraps db as a PostStore.
func NewGormPostStore(db *gorm.DB) *GormPostStore {
	return &GormPostStore{db: db}
}

func (s *GormPostStore) Insert(ctx context.Context, p NewPost) error {
	post := Post{
		URL:      p.URL,
		SiteID:   p.SiteID,
		UserID:   p.UserID,
		APIKeyID: p.APIKeyID,
		Status:   PostPending,
		Retry:    0,
	}
	return s.db.WithContext(ctx).Create(&post).Error
}

func (s *GormPostStore) ListPendingWithSite(ctx context.Context) ([]PostWithSite, error) {
	var posts []Post
	err := s.db.WithContext(ctx).
		Where("status IN ?", []PostStatus{PostPending, PostFailed}).
		Order("id desc").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}

	siteIDs := make([]int64, 0, len(posts))
	seen := make(map[int64]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.SiteID]; !ok {
			seen[p.SiteID] = struct{}{}
			siteIDs = append(siteIDs, p.SiteID)
		}
	}

	var sites []Site
	if err := s.db.WithContext(ctx).Where("id IN ?", siteIDs).Find(&sites).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]Site, len(sites))
	for _, site := range sites {
		byID[site.ID] = site
	}

	result := make([]PostWithSite, 0, len(posts))
	for _, p := range posts {
		site, ok := byID[p.SiteID]
		if !ok {
			continue // stale join: owning site was deleted
		}
		result = append(result, PostWithSite{Post: p, Site: site})
	}
	return result, nil
}

func (s *GormPostStore) Get(ctx context.Context, id int64) (Post, bool, error) {
	var post Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Post{}, false, nil
		}
		return Post{}, false, err
	}
	return post, true, nil
}

func (s *GormPostStore) Complete(ctx context.Context, id int64, update PostUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post Post
		if err := tx.First(&post, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		return tx.Model(&post).Updates(map[string]any{
			"title":  update.Title,
			"body":   update.Body,
			"image":  update.Image,
			"video":  update.Video,
			"status": update.Status,
			"retry":  post.Retry + 1,
		}).Error
	})
}

func (s *GormPostStore) MarkFailed(ctx context.Context, id int64, maxRetry int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post Post
		if err := tx.First(&post, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		retry := post.Retry + 1
		status := PostFailed
		if retry >= maxRetry {
			status = PostCancelled
		}

		return tx.Model(&post).Updates(map[string]any{
			"retry":  retry,
			"status": status,
		}).Error
	})
}

// ListBySite returns every post belonging to siteID, most recent first,
// scoped to userID so tenants cannot read each other's posts.
func (s *GormPostStore) ListBySite(ctx context.Context, userID, siteID int64) ([]Post, error) {
	var posts []Post
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND user_id = ?", siteID, userID).
		Order("id desc").
		Find(&posts).Error
	return posts, err
}

// GetOwned returns a post by id, scoped to userID.
func (s *GormPostStore) GetOwned(ctx context.Context, userID, id int64) (Post, bool, error) {
	var post Post
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&post).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Post{}, false, nil
		}
		return Post{}, false, err
	}
	return post, true, nil
}

func (s *GormPostStore) DeleteBelowBoundary(ctx context.Context, keepLatest int) (int64, error) {
	if keepLatest <= 0 {
		return 0, nil
	}

	var boundary Post
	err := s.db.WithContext(ctx).
		Order("id desc").
		Offset(keepLatest - 1).
		Limit(1).
		First(&boundary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}

	result := s.db.WithContext(ctx).Where("id < ?", boundary.ID).Delete(&Post{})
	return result.RowsAffected, result.Error
}
