package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ai-financer/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gormConfig(logMode bool) *gorm.Config {
	gormLogger := logger.Default
	if !logMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}
	// TranslateError maps driver constraint errors to gorm.ErrDuplicatedKey
	return &gorm.Config{Logger: gormLogger, TranslateError: true}
}

// openSQLite creates a SQLite database connection with basic tuning.
func openSQLite(path string, logMode bool) (*gorm.DB, error) {
	// ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// busy_timeout in the DSN applies to every pooled connection
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), gormConfig(logMode))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// connection pool
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// SQLite performance and reliability tuning
	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")

	return db, nil
}

// InitLocal opens the on-device cache database.
func InitLocal(cfg config.LocalConfig) (*gorm.DB, error) {
	return openSQLite(cfg.Path, cfg.LogMode)
}

// InitRemote opens the shared record store.
func InitRemote(cfg config.RemoteConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return openSQLite(cfg.DSN, cfg.LogMode)
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig(cfg.LogMode))
		if err != nil {
			return nil, fmt.Errorf("open remote database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported remote driver %q", cfg.Driver)
	}
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
