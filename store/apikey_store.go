package store

import (
	"context"

	"gorm.io/gorm"
)

// GormAPIKeyStore is the GORM-backed persistence layer for API keys. The
// auth middleware keeps its own in-memory cache of the rows returned by
// List; this store never sees a presented key in plaintext.
type GormAPIKeyStore struct {
	db *gorm.DB
}

// NewGormAPIKeyStore wraps db as a GormAPIKeyStore.
func NewGormAPIKeyStore(db *gorm.DB) *GormAPIKeyStore {
	return &GormAPIKeyStore{db: db}
}

// Create persists a new API key record. hash is the already-computed bcrypt
// hash of the issued key, never the plaintext key itself.
func (s *GormAPIKeyStore) Create(ctx context.Context, userID int64, name, hash string) (APIKey, error) {
	key := APIKey{UserID: userID, Name: name, KeyHash: hash}
	err := s.db.WithContext(ctx).Create(&key).Error
	return key, err
}

// List returns every API key, across all users. The auth middleware
// compares a presented key's plaintext against every hash returned here.
func (s *GormAPIKeyStore) List(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	err := s.db.WithContext(ctx).Find(&keys).Error
	return keys, err
}

// ListForUser returns every API key belonging to userID.
func (s *GormAPIKeyStore) ListForUser(ctx context.Context, userID int64) ([]APIKey, error) {
	var keys []APIKey
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&keys).Error
	return keys, err
}

// Delete removes an API key owned by userID.
func (s *GormAPIKeyStore) Delete(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&APIKey{}).Error
}
