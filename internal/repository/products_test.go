package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopper/internal/apperror"
	"shopper/internal/db/dbtest"
	"shopper/internal/models"
)

func newTestProducts(t *testing.T) *ProductStore {
	t.Helper()
	return NewProductStore(dbtest.New(t))
}

// createTestProduct inserts a product owned by ownerID and fails the test on error.
func createTestProduct(t *testing.T, s *ProductStore, ownerID uint, title, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		OwnerID:     ownerID,
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		ImageURL:    "/uploads/" + title + ".jpg",
		ImageHandle: title + ".jpg",
	}
	require.NoError(t, s.Create(context.Background(), p))
	return p
}

func TestProductStore_CreateThenFind(t *testing.T) {
	s := newTestProducts(t)
	created := createTestProduct(t, s, 1, "Lamp", "25.50")

	require.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := s.FindByID(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Lamp", found.Title)
	assert.Equal(t, "Lamp description", found.Description)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("25.50")), "price = %s", found.Price)
	assert.Equal(t, "/uploads/Lamp.jpg", found.ImageURL)
	assert.Equal(t, "Lamp.jpg", found.ImageHandle)
	assert.Equal(t, uint(1), found.OwnerID)
}

func TestProductStore_FindByID_NotFound(t *testing.T) {
	s := newTestProducts(t)

	_, err := s.FindByID(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestProductStore_ListByOwner(t *testing.T) {
	s := newTestProducts(t)
	createTestProduct(t, s, 1, "Lamp", "25.50")
	createTestProduct(t, s, 2, "Chair", "80")
	createTestProduct(t, s, 1, "Desk", "120")

	items, err := s.ListByOwner(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Desk", items[0].Title, "newest first")
	assert.Equal(t, "Lamp", items[1].Title)
	for _, it := range items {
		assert.Equal(t, uint(1), it.OwnerID)
	}

	none, err := s.ListByOwner(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProductStore_ListAll(t *testing.T) {
	s := newTestProducts(t)
	createTestProduct(t, s, 1, "Lamp", "25.50")
	createTestProduct(t, s, 2, "Chair", "80")

	items, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestProductStore_SaveKeepsOwner(t *testing.T) {
	s := newTestProducts(t)
	p := createTestProduct(t, s, 1, "Lamp", "25.50")

	p.Title = "Floor lamp"
	p.Price = decimal.RequireFromString("40")
	p.OwnerID = 2 // must not be persisted
	require.NoError(t, s.Save(context.Background(), p))

	found, err := s.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Floor lamp", found.Title)
	assert.True(t, found.Price.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, uint(1), found.OwnerID)
}

func TestProductStore_SaveMissing(t *testing.T) {
	s := newTestProducts(t)

	err := s.Save(context.Background(), &models.Product{Base: models.Base{ID: 77}, Title: "ghost"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestProductStore_DeleteOwned(t *testing.T) {
	s := newTestProducts(t)
	p := createTestProduct(t, s, 1, "Lamp", "25.50")

	t.Run("other owner deletes nothing", func(t *testing.T) {
		n, err := s.DeleteOwned(context.Background(), p.ID, 2)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = s.FindByID(context.Background(), p.ID)
		assert.NoError(t, err, "row must still exist")
	})

	t.Run("owner deletes the row", func(t *testing.T) {
		n, err := s.DeleteOwned(context.Background(), p.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = s.FindByID(context.Background(), p.ID)
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})
}

func TestProductStore_ClosedDatabase(t *testing.T) {
	conn := dbtest.New(t)
	s := NewProductStore(conn)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = s.ListByOwner(context.Background(), 1)
	assert.True(t, errors.Is(err, apperror.ErrPersistence))
}
