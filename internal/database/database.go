// Package database opens the SQLite file shared by the persisted stores:
// the encrypted key/value rows and the browser session table.
package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/hotsearch-web/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase connects to dbPath and migrates the stored value table.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&entities.StoredValue{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("database: ready")
	return &Database{DB: db}, nil
}

// SQL returns the pool behind gorm, for libraries that want a *sql.DB.
func (d *Database) SQL() (*sql.DB, error) {
	return d.DB.DB()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
