package store

import (
	"context"

	"gorm.io/gorm"
)

// GormUserStore is the GORM-backed persistence layer for user accounts.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore wraps db as a GormUserStore.
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

// Create persists a new user. passwordHash is a bcrypt hash, never a
// plaintext password.
func (s *GormUserStore) Create(ctx context.Context, email, passwordHash string) (User, error) {
	user := User{Email: email, PasswordHash: passwordHash}
	err := s.db.WithContext(ctx).Create(&user).Error
	return user, err
}
