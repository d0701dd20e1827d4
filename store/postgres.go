// Package store provides the Postgres-backed persistence for the
// worker: the encrypted append-only message log, the violation history
// and the user directory. Message content is encrypted at rest with
// pgcrypto symmetric encryption; everything content-bearing is keyed by
// the one-way user id hash.
package store

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres and migrates the worker-owned tables. The
// user directory tables belong to the account service and are never
// migrated here.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting sql.DB")
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		return nil, errors.Wrap(err, "ensuring pgcrypto extension")
	}
	if err := db.AutoMigrate(&messageRow{}, &violationRow{}); err != nil {
		return nil, errors.Wrap(err, "migrating worker tables")
	}
	return db, nil
}

// Close releases the underlying connection pool. Call it on shutdown
// after all stores are done.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting sql.DB")
	}
	return errors.Wrap(sqlDB.Close(), "closing postgres")
}
