// Package models holds the gorm-mapped tables of the shop.
package models

import "time"

// Base is embedded by every table; gorm fills the timestamps.
type Base struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// All lists the tables AutoMigrate must create.
func All() []any {
	return []any{&User{}, &Product{}}
}
