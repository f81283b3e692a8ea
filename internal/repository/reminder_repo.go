package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stockup/stockup/internal/database"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/util"
)

// ReminderRepository stores delivered reminders.
type ReminderRepository struct {
	db *database.DB
}

// NewReminderRepository creates a new reminder repository.
func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

type reminderRow struct {
	ID          string `db:"id"`
	StoreID     string `db:"store_id"`
	StoreName   string `db:"store_name"`
	TriggeredAt string `db:"triggered_at"`
	Items       string `db:"items"`
}

// Insert records a reminder.
func (r *ReminderRepository) Insert(ctx context.Context, ev models.ReminderEvent) error {
	if ev.ID == "" {
		ev.ID = util.NewID()
	}
	items, err := json.Marshal(ev.Items)
	if err != nil {
		return fmt.Errorf("encoding reminder items: %w", err)
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO reminders (id, store_id, store_name, triggered_at, items)
		VALUES (:id, :store_id, :store_name, :triggered_at, :items)`,
		reminderRow{
			ID:          ev.ID,
			StoreID:     ev.StoreID,
			StoreName:   ev.StoreName,
			TriggeredAt: util.FormatTimestamp(ev.TriggeredAt),
			Items:       string(items),
		})
	if err != nil {
		return fmt.Errorf("inserting reminder: %w", err)
	}
	return nil
}

// ListRecent returns reminders newest first.
func (r *ReminderRepository) ListRecent(ctx context.Context, page models.Pagination) ([]models.ReminderEvent, error) {
	var rows []reminderRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, store_id, store_name, triggered_at, items
		FROM reminders
		ORDER BY triggered_at DESC, id DESC
		LIMIT ? OFFSET ?`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}

	events := make([]models.ReminderEvent, 0, len(rows))
	for _, row := range rows {
		ev := models.ReminderEvent{
			ID:        row.ID,
			StoreID:   row.StoreID,
			StoreName: row.StoreName,
		}
		ev.TriggeredAt, _ = util.ParseTimestamp(row.TriggeredAt)
		if err := json.Unmarshal([]byte(row.Items), &ev.Items); err != nil {
			return nil, fmt.Errorf("decoding items for reminder %s: %w", row.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Count returns the number of stored reminders.
func (r *ReminderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM reminders"); err != nil {
		return 0, fmt.Errorf("counting reminders: %w", err)
	}
	return n, nil
}
