// Package inventory tracks the latest known pantry snapshot.
package inventory

import (
	"sort"
	"sync"

	"github.com/stockup/stockup/internal/models"
)

// Tracker holds the current pantry items keyed by ID. It keeps no history.
type Tracker struct {
	mu    sync.RWMutex
	items map[string]models.PantryItem
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{items: make(map[string]models.PantryItem)}
}

// Upsert inserts or replaces an item by ID. Invalid items are rejected with a
// ValidationError and the snapshot is left unchanged.
func (t *Tracker) Upsert(item models.PantryItem) error {
	item = item.Normalized()
	if err := item.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	t.items[item.ID] = item
	t.mu.Unlock()
	return nil
}

// Replace swaps the whole snapshot, typically after hydrating from storage.
// Every item is validated first; on failure nothing changes.
func (t *Tracker) Replace(items []models.PantryItem) error {
	next := make(map[string]models.PantryItem, len(items))
	for _, item := range items {
		item = item.Normalized()
		if err := item.Validate(); err != nil {
			return err
		}
		next[item.ID] = item
	}

	t.mu.Lock()
	t.items = next
	t.mu.Unlock()
	return nil
}

// Remove deletes an item. It reports whether the item existed.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.items[id]; !ok {
		return false
	}
	delete(t.items, id)
	return true
}

// Get returns a single item.
func (t *Tracker) Get(id string) (models.PantryItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	item, ok := t.items[id]
	return item, ok
}

// Snapshot returns a copy of the current id -> item mapping.
func (t *Tracker) Snapshot() map[string]models.PantryItem {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]models.PantryItem, len(t.items))
	for id, item := range t.items {
		out[id] = item
	}
	return out
}

// Items returns the snapshot ordered by name, then ID.
func (t *Tracker) Items() []models.PantryItem {
	t.mu.RLock()
	out := make([]models.PantryItem, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, item)
	}
	t.mu.RUnlock()

	sortByName(out)
	return out
}

// LowStockNames returns the names of every item that is Low or Empty,
// ascending by name.
func (t *Tracker) LowStockNames() []string {
	low := t.LowStock()
	names := make([]string, len(low))
	for i, item := range low {
		names[i] = item.Name
	}
	return names
}

// LowStock returns every item that is Low or Empty, ascending by name.
func (t *Tracker) LowStock() []models.PantryItem {
	t.mu.RLock()
	var out []models.PantryItem
	for _, item := range t.items {
		if item.NeedsRestock() {
			out = append(out, item)
		}
	}
	t.mu.RUnlock()

	sortByName(out)
	return out
}

// Len returns the number of tracked items.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

func sortByName(items []models.PantryItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
}
