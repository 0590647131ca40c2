package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"shopper/internal/apperror"
	"shopper/internal/models"
)

type ProductStore struct {
	db *gorm.DB
}

var _ ProductRepository = (*ProductStore)(nil)

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) ListByOwner(ctx context.Context, ownerID uint) ([]models.Product, error) {
	var items []models.Product
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return nil, apperror.Persistence("listing products of owner", err)
	}
	return items, nil
}

func (s *ProductStore) ListAll(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := s.db.WithContext(ctx).Order("id desc").Find(&items).Error; err != nil {
		return nil, apperror.Persistence("listing products", err)
	}
	return items, nil
}

func (s *ProductStore) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var item models.Product
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("product", strconv.FormatUint(uint64(id), 10))
	}
	if err != nil {
		return nil, apperror.Persistence("finding product", err)
	}
	return &item, nil
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperror.Persistence("creating product", err)
	}
	return nil
}

// Save writes the editable columns. owner_id is omitted so a stale or
// tampered struct can never move a product to another owner.
func (s *ProductStore) Save(ctx context.Context, p *models.Product) error {
	res := s.db.WithContext(ctx).
		Model(p).
		Select("title", "description", "price", "image_url", "image_handle", "updated_at").
		Updates(p)
	if res.Error != nil {
		return apperror.Persistence("saving product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product", strconv.FormatUint(uint64(p.ID), 10))
	}
	return nil
}

func (s *ProductStore) DeleteOwned(ctx context.Context, id, ownerID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Product{})
	if res.Error != nil {
		return 0, apperror.Persistence("deleting product", res.Error)
	}
	return res.RowsAffected, nil
}
