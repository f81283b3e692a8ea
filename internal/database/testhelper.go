package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// NewInMemory creates an in-memory database for testing purposes.
// It enables foreign keys but does not run migrations or enable WAL mode.
func NewInMemory() (*DB, error) {
	sqlDB, err := sqlx.Open(DriverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	// Every connection would get its own empty database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		path:   ":memory:",
		logger: zap.NewNop(),
	}, nil
}
