package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"lodging/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded goose migrations on PostgreSQL and
// falls back to AutoMigrate on SQLite.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if IsSQLite(db) {
		if err := db.WithContext(ctx).AutoMigrate(domain.Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Rollback reverts the last steps PostgreSQL migrations.
func Rollback(ctx context.Context, db *gorm.DB, steps int) error {
	if IsSQLite(db) {
		return fmt.Errorf("rollback is only supported on PostgreSQL")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	for range steps {
		if err := goose.DownContext(ctx, sqlDB, "migrations"); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	}
	return nil
}
