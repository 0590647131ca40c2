package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"shopper/internal/apperror"
	"shopper/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

var _ UserRepository = (*UserStore)(nil)

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts u; a taken email is reported as apperror.ErrConflict.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", u.Email).Count(&cnt).Error; err != nil {
		return apperror.Persistence("checking email", err)
	}
	if cnt > 0 {
		return apperror.Conflict("user", "email already registered")
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return apperror.Conflict("user", "email already registered")
		}
		return apperror.Persistence("creating user", err)
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", strconv.FormatUint(uint64(id), 10))
	}
	if err != nil {
		return nil, apperror.Persistence("finding user", err)
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", email)
	}
	if err != nil {
		return nil, apperror.Persistence("finding user", err)
	}
	return &u, nil
}
