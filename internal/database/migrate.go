package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// RunStartupMigrations applies the schema at boot. A failure is returned only
// in production; elsewhere it is logged and the process keeps running. There
// is no database-less mode: a nil handle is always an error.
func RunStartupMigrations(db *gorm.DB, env string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if db == nil {
		return ErrNoDatabaseURL
	}

	start := time.Now()
	err := Migrate(db)
	observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	if err == nil {
		logger.Info("database migrations completed successfully")
		observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "success")
		return nil
	}

	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "error")
	if strings.EqualFold(env, "production") {
		logger.Error("migration failed in production, stopping application", "error", err)
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Error("migration failed in development mode, continuing without migrations", "error", err)
	logger.Warn("make sure DATABASE_URL is correct and the database is accessible")
	return nil
}

type TableStatus struct {
	Table   string `json:"table"`
	Present bool   `json:"present"`
}

// SchemaStatus reports, in migration order, which model tables exist.
func SchemaStatus(db *gorm.DB) ([]TableStatus, error) {
	models := domain.Models()
	out := make([]TableStatus, 0, len(models))
	for _, m := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", m, err)
		}
		out = append(out, TableStatus{
			Table:   stmt.Schema.Table,
			Present: db.Migrator().HasTable(m),
		})
	}
	return out, nil
}
