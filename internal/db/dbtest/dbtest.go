// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopper/internal/db"
)

// New returns a migrated in-memory SQLite database closed at test cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("dbtest: opening sqlite: %v", err)
	}

	// every pooled connection to :memory: would see its own empty database
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("dbtest: getting pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("dbtest: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	return conn
}
