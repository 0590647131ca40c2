package models

import "github.com/shopspring/decimal"

// Product is a listing in the catalog, table products.
type Product struct {
	Base
	OwnerID     uint            `gorm:"index;not null"`
	Title       string          `gorm:"not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ImageURL    string          `gorm:"not null"`
	ImageHandle string          `gorm:"not null"` // used to delete the hosted image
}

// OwnedBy reports whether userID created the product.
func (p *Product) OwnedBy(userID uint) bool {
	return p.OwnerID == userID
}
