package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lmring/lmring/internal/observability"
)

var ErrNoDatabaseURL = errors.New("database url not configured")

const sqliteScheme = "sqlite://"

// Open connects to Postgres, or to SQLite for a sqlite:// URL (local runs and
// tests). Connection errors are returned as-is and never retried.
func Open(databaseURL string) (*gorm.DB, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "connect", time.Since(start))
	}()

	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, ErrNoDatabaseURL
	}
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	var dialector gorm.Dialector
	if dsn, ok := strings.CutPrefix(databaseURL, sqliteScheme); ok {
		dialector = sqlite.Open(SQLiteDSN(dsn))
	} else {
		dialector = postgres.Open(databaseURL)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "connect", "error")
		return nil, err
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "connect", "success")
	return db, nil
}

// SQLiteDSN turns on foreign key enforcement, which SQLite leaves off per
// connection, so ON DELETE CASCADE behaves as it does on Postgres.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}
