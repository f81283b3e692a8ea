package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockup/stockup/internal/models"
)

// FixturePantryItem creates a pantry item that is in good stock.
func FixturePantryItem(overrides ...func(*models.PantryItem)) models.PantryItem {
	item := models.PantryItem{
		ID:        uuid.New().String(),
		Name:      "Rice",
		Quantity:  4,
		Threshold: 2,
		Category:  models.CategoryEssential,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	for _, override := range overrides {
		override(&item)
	}

	return item
}

// FixtureLowItem creates a pantry item below its threshold.
func FixtureLowItem(name string, overrides ...func(*models.PantryItem)) models.PantryItem {
	return FixturePantryItem(append([]func(*models.PantryItem){
		func(p *models.PantryItem) {
			p.Name = name
			p.Quantity = 1
			p.Threshold = 3
		},
	}, overrides...)...)
}

// FixtureStore creates a store near midtown Manhattan.
func FixtureStore(overrides ...func(*models.StoreLocation)) models.StoreLocation {
	store := models.StoreLocation{
		ID:        "place-" + uuid.New().String()[:8],
		Name:      "Corner Market",
		Address:   "350 5th Ave",
		Latitude:  40.7484,
		Longitude: -73.9857,
	}

	for _, override := range overrides {
		override(&store)
	}

	return store
}

// FixtureReminder creates a reminder event for a store.
func FixtureReminder(storeID string, triggeredAt time.Time, items ...string) models.ReminderEvent {
	if len(items) == 0 {
		items = []string{"Milk"}
	}
	return models.ReminderEvent{
		ID:          uuid.New().String(),
		StoreID:     storeID,
		StoreName:   "Corner Market",
		TriggeredAt: triggeredAt.UTC(),
		Items:       items,
	}
}
