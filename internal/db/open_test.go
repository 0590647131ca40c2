package db

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shopper/internal/config"
)

func TestOpen_ClosesPoolWhenMigrationFails(t *testing.T) {
	var opened *gorm.DB
	failing := func(conn *gorm.DB) error {
		opened = conn
		return errors.New("db: migrating: boom")
	}

	conn, err := open(sqlite.Open(":memory:"), config.DatabaseConfig{LogLevel: "silent"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), failing)
	require.Error(t, err)
	assert.Nil(t, conn)
	require.NotNil(t, opened)

	sqlDB, err := opened.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "pool must be closed")
}

func TestOpen_MigratesOnSuccess(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shop.db")
	conn, err := open(sqlite.Open(dsn), config.DatabaseConfig{LogLevel: "silent"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), Migrate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(conn) })

	assert.True(t, conn.Migrator().HasTable("products"))
}
