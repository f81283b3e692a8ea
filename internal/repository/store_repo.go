package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stockup/stockup/internal/database"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/util"
)

// StoreRepository handles the persisted store set.
type StoreRepository struct {
	db *database.DB
}

// NewStoreRepository creates a new store repository.
func NewStoreRepository(db *database.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

type storeRow struct {
	models.StoreLocation
	FetchedAt string `db:"fetched_at"`
}

// List returns the persisted stores ordered by ID.
func (r *StoreRepository) List(ctx context.Context) ([]models.StoreLocation, error) {
	var stores []models.StoreLocation
	err := r.db.SelectContext(ctx, &stores, `
		SELECT id, name, address, latitude, longitude
		FROM stores
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	return stores, nil
}

// FetchedAt returns when the current set was stored, or the zero time if
// no stores are persisted.
func (r *StoreRepository) FetchedAt(ctx context.Context) (time.Time, error) {
	var s string
	err := r.db.GetContext(ctx, &s, "SELECT COALESCE(MAX(fetched_at), '') FROM stores")
	if err != nil {
		return time.Time{}, fmt.Errorf("reading fetch time: %w", err)
	}
	if s == "" {
		return time.Time{}, nil
	}
	return util.ParseTimestamp(s)
}

// ReplaceAll swaps the persisted set in a single transaction. Every store is
// validated before the transaction starts.
func (r *StoreRepository) ReplaceAll(ctx context.Context, stores []models.StoreLocation, fetchedAt time.Time) error {
	rows := make([]storeRow, len(stores))
	stamp := util.FormatTimestamp(fetchedAt)
	for i, s := range stores {
		if err := s.Validate(); err != nil {
			return err
		}
		rows[i] = storeRow{StoreLocation: s, FetchedAt: stamp}
	}

	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM stores"); err != nil {
			return fmt.Errorf("clearing stores: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO stores (id, name, address, latitude, longitude, fetched_at)
			VALUES (:id, :name, :address, :latitude, :longitude, :fetched_at)`, rows)
		if err != nil {
			return fmt.Errorf("inserting stores: %w", err)
		}
		return nil
	})
}
