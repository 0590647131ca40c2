// Package repository persists users and products through gorm.
//
// Every method wraps driver failures in apperror.Persistence and reports
// missing rows as apperror.NotFound, so callers only switch on kinds.
package repository

import (
	"context"

	"shopper/internal/models"
)

type ProductRepository interface {
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Save(ctx context.Context, p *models.Product) error
	// DeleteOwned removes the product only when ownerID matches and returns
	// the number of rows removed.
	DeleteOwned(ctx context.Context, id, ownerID uint) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
