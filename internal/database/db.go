package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
	"github.com/vladimiradmaev/diabetes-tracker/internal/database/migrations"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const initialSchemaID = "0001_initial_schema"

func init() {
	migrations.Register(initialSchemaID,
		func(db *gorm.DB) error {
			return db.AutoMigrate(Models()...)
		},
		func(db *gorm.DB) error {
			return db.Migrator().DropTable(Models()...)
		},
	)
}

// NewDB opens the configured SQL database and brings its schema up to date.
// The memory driver has no SQL backing and is rejected here.
func NewDB(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(logger.GetLogger()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite has a single writer, and each connection to :memory: is its
		// own database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := migrations.LoadEmbedded(); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established and migrations completed", "driver", cfg.Driver)
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
