package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopper/internal/config"
	"shopper/internal/models"
)

// Open connects to Postgres with the DSN from the config and migrates the
// schema.
func Open(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db: DSN is empty")
	}
	return open(postgres.Open(cfg.DSN), cfg, log, Migrate)
}

// open connects through dialector and runs migrate; the pool is closed
// again when migrate fails.
func open(dialector gorm.Dialector, cfg config.DatabaseConfig, log *slog.Logger, migrate func(*gorm.DB) error) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewLogger(log, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connecting: %w", err)
	}
	if err := migrate(conn); err != nil {
		if cerr := Close(conn); cerr != nil {
			log.Warn("closing database after failed migration", slog.String("error", cerr.Error()))
		}
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates every table of the shop.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("db: migrating: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("db: getting connection pool: %w", err)
	}
	return sqlDB.Close()
}

// NewLogger routes gorm's log output through the application's slog logger.
func NewLogger(log *slog.Logger, level string) logger.Interface {
	return logger.New(slogWriter{log: log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  parseLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func parseLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "gorm"))
}

var _ logger.Writer = slogWriter{}
