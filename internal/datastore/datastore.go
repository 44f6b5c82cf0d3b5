// Package datastore opens and migrates the sqlite-backed store.
package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

// Open opens (or creates) the sqlite database at path and migrates the
// schema. Use ":memory:" for an in-memory store, e.g. in tests.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for all entities.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.Handle{},
		&entities.Reply{},
		&entities.DenyWord{},
		&entities.SurgeConfig{},
		&entities.SurgeAlert{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
