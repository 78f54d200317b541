package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stash/internal/auth"
	"stash/internal/config"
	"stash/internal/resource"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens a gorm handle for the given driver. For sqlite the dsn is a
// file path (or ":memory:").
func Connect(driver, dsn string, log *logrus.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{TranslateError: true}
	if log != nil {
		gcfg.Logger = gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	} else {
		gcfg.Logger = gormlogger.Discard
	}

	switch driver {
	case config.DriverPostgres:
		gdb, err := gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return gdb, nil
	case config.DriverSQLite:
		return openSQLite(dsn, gcfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(path), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// one connection: writers are serialized and the pragma below sticks
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := gdb.Exec(`PRAGMA foreign_keys = ON;`).Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&auth.User{},
		&auth.Token{},
		&resource.Resource{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmts := []string{
		`create index if not exists idx_resources_owner_id on resources(created_by_id, id);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
