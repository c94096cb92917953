package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// UserStore reads the user table.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user. Emails are unique.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return wrap("create user", s.db.WithContext(ctx).Create(u).Error)
}

// Get returns the user with the given id.
func (s *UserStore) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, wrap("get user", err)
	}
	return &u, nil
}

// FindByEmail returns the user with the given email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&u).Error
	if err != nil {
		return nil, wrap("find user by email", err)
	}
	return &u, nil
}
