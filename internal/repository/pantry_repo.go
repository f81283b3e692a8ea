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

// PantryRepository handles pantry item data access.
type PantryRepository struct {
	db *database.DB
}

// NewPantryRepository creates a new pantry repository.
func NewPantryRepository(db *database.DB) *PantryRepository {
	return &PantryRepository{db: db}
}

type pantryRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Quantity  int    `db:"quantity"`
	Threshold int    `db:"threshold"`
	Category  string `db:"category"`
	UpdatedAt string `db:"updated_at"`
}

func (r pantryRow) model() models.PantryItem {
	item := models.PantryItem{
		ID:        r.ID,
		Name:      r.Name,
		Quantity:  r.Quantity,
		Threshold: r.Threshold,
		Category:  r.Category,
	}
	item.UpdatedAt, _ = util.ParseTimestamp(r.UpdatedAt)
	return item
}

// List returns every pantry item ordered by name.
func (r *PantryRepository) List(ctx context.Context) ([]models.PantryItem, error) {
	var rows []pantryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, quantity, threshold, category, updated_at
		FROM pantry_items
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing pantry items: %w", err)
	}

	items := make([]models.PantryItem, len(rows))
	for i, row := range rows {
		items[i] = row.model()
	}
	return items, nil
}

// Get retrieves a pantry item by ID.
func (r *PantryRepository) Get(ctx context.Context, id string) (models.PantryItem, error) {
	var row pantryRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, quantity, threshold, category, updated_at
		FROM pantry_items
		WHERE id = ?`, id)
	if err != nil {
		return models.PantryItem{}, fmt.Errorf("getting pantry item %s: %w", id, notFound(err))
	}
	return row.model(), nil
}

// Upsert inserts or replaces an item. The item is validated first and
// UpdatedAt is set when zero.
func (r *PantryRepository) Upsert(ctx context.Context, tx *sqlx.Tx, item models.PantryItem) (models.PantryItem, error) {
	item = item.Normalized()
	if err := item.Validate(); err != nil {
		return models.PantryItem{}, err
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}

	row := pantryRow{
		ID:        item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		Threshold: item.Threshold,
		Category:  item.Category,
		UpdatedAt: util.FormatTimestamp(item.UpdatedAt),
	}

	query := `
		INSERT INTO pantry_items (id, name, quantity, threshold, category, updated_at)
		VALUES (:id, :name, :quantity, :threshold, :category, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			threshold = excluded.threshold,
			category = excluded.category,
			updated_at = excluded.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, getExecer(r.db.DB, tx), query, row); err != nil {
		return models.PantryItem{}, fmt.Errorf("upserting pantry item: %w", err)
	}
	return item, nil
}

// Delete removes an item. Returns ErrNotFound if it does not exist.
func (r *PantryRepository) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	res, err := getExecer(r.db.DB, tx).ExecContext(ctx, "DELETE FROM pantry_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting pantry item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting pantry item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting pantry item %s: %w", id, ErrNotFound)
	}
	return nil
}
