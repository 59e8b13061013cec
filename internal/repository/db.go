package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"context-reminder/internal/model"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrAmbiguousID = errors.New("ambiguous id prefix")
)

// NewDB opens a SQLite database and runs migrations. A nil logger keeps
// gorm silent.
func NewDB(dsn string, logger gormlogger.Interface) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "reminders.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = gormlogger.Discard
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Reminder{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}
