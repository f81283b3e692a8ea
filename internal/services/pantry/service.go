// Package pantry provides the pantry management service: persisted edits
// that keep the in-memory tracker and the reminder engine current.
package pantry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/database"
	"github.com/stockup/stockup/internal/inventory"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/repository"
	"github.com/stockup/stockup/internal/util"
)

// ChangeNotifier is told whenever the pantry snapshot changes.
type ChangeNotifier interface {
	OnInventoryChanged()
}

// Service provides pantry operations.
type Service struct {
	db       *database.DB
	items    *repository.PantryRepository
	tracker  *inventory.Tracker
	notifier ChangeNotifier
	clock    util.Clock
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for UpdatedAt.
func WithClock(c util.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNotifier sets the receiver of change signals.
func WithNotifier(n ChangeNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a new pantry service.
func NewService(db *database.DB, tracker *inventory.Tracker, opts ...Option) *Service {
	s := &Service{
		db:      db,
		items:   repository.NewPantryRepository(db),
		tracker: tracker,
		clock:   util.SystemClock{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("pantry")
	return s
}


func (s *Service) changed() {
	if s.notifier != nil {
		s.notifier.OnInventoryChanged()
	}
}

// ============================================================================
// HYDRATION
// ============================================================================

// Hydrate loads every stored item into the tracker.
func (s *Service) Hydrate(ctx context.Context) error {
	items, err := s.items.List(ctx)
	if err != nil {
		return fmt.Errorf("hydrating pantry: %w", err)
	}
	if err := s.tracker.Replace(items); err != nil {
		return fmt.Errorf("hydrating pantry: %w", err)
	}

	s.logger.Debug("pantry hydrated", zap.Int("items", len(items)))
	s.changed()
	return nil
}

// ============================================================================
// ITEMS
// ============================================================================

// List returns the tracked items sorted by name.
func (s *Service) List() []models.PantryItem {
	return s.tracker.Items()
}

// Get returns one item from storage.
func (s *Service) Get(ctx context.Context, id string) (models.PantryItem, error) {
	return s.items.Get(ctx, id)
}

// Set creates or replaces an item. Invalid input is rejected with a
// ValidationError before anything is written.
func (s *Service) Set(ctx context.Context, input SetItemInput) (models.PantryItem, error) {
	item := models.PantryItem{
		ID:        strings.TrimSpace(input.ID),
		Name:      input.Name,
		Quantity:  input.Quantity,
		Threshold: input.Threshold,
		Category:  input.Category,
		UpdatedAt: s.clock.Now(),
	}
	if item.ID == "" {
		item.ID = util.NewID()
	}
	return s.save(ctx, item)
}

// Adjust changes an item's quantity by delta, stopping at zero.
func (s *Service) Adjust(ctx context.Context, id string, delta int) (models.PantryItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return models.PantryItem{}, err
	}
	item.Quantity += delta
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	item.UpdatedAt = s.clock.Now()
	return s.save(ctx, item)
}

func (s *Service) save(ctx context.Context, item models.PantryItem) (models.PantryItem, error) {
	item = item.Normalized()
	if err := item.Validate(); err != nil {
		return models.PantryItem{}, err
	}

	var saved models.PantryItem
	err := s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		saved, err = s.items.Upsert(ctx, tx, item)
		return err
	})
	if err != nil {
		return models.PantryItem{}, fmt.Errorf("saving pantry item: %w", err)
	}

	if err := s.tracker.Upsert(saved); err != nil {
		return models.PantryItem{}, err
	}

	s.logger.Info("pantry item saved",
		zap.String("id", saved.ID),
		zap.String("name", saved.Name),
		zap.Int("quantity", saved.Quantity),
		zap.Stringer("level", saved.StockLevel()))
	s.changed()
	return saved, nil
}

// Remove deletes an item. Returns repository.ErrNotFound if it does not exist.
func (s *Service) Remove(ctx context.Context, id string) error {
	err := s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return s.items.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.tracker.Remove(id)
	s.logger.Info("pantry item removed", zap.String("id", id))
	s.changed()
	return nil
}

// ============================================================================
// GROCERY LIST
// ============================================================================

// GroceryList returns the items needing restock with the quantity to buy,
// grouped by category in display order then sorted by name.
func (s *Service) GroceryList() GroceryList {
	return BuildGroceryList(s.tracker.LowStock())
}

// BuildGroceryList groups the restockable items.
func BuildGroceryList(items []models.PantryItem) GroceryList {
	byCategory := make(map[string][]GroceryEntry)
	total := 0
	for _, item := range items {
		if !item.NeedsRestock() {
			continue
		}
		byCategory[item.Category] = append(byCategory[item.Category], GroceryEntry{
			Item:     item,
			Level:    item.StockLevel(),
			Quantity: item.RestockQuantity(),
		})
		total++
	}

	list := GroceryList{Total: total}
	for _, cat := range categoryOrder(byCategory) {
		entries := byCategory[cat]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Item.Name != entries[j].Item.Name {
				return entries[i].Item.Name < entries[j].Item.Name
			}
			return entries[i].Item.ID < entries[j].Item.ID
		})
		list.Groups = append(list.Groups, GroceryGroup{Category: cat, Entries: entries})
	}
	return list
}

// categoryOrder lists the known categories first, then any others by name.
func categoryOrder(present map[string][]GroceryEntry) []string {
	known := models.Categories()
	seen := make(map[string]bool, len(known))

	var order []string
	for _, c := range known {
		seen[c] = true
		if _, ok := present[c]; ok {
			order = append(order, c)
		}
	}

	var extra []string
	for c := range present {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
