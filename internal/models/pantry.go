package models

import (
	"strings"
	"time"
)

// StockLevel classifies a pantry item's quantity against its threshold.
type StockLevel string

const (
	StockLevelEmpty StockLevel = "EMPTY"
	StockLevelLow   StockLevel = "LOW"
	StockLevelGood  StockLevel = "GOOD"
)

func (s StockLevel) String() string {
	return string(s)
}

// Known pantry categories offered by the item editor.
const (
	CategoryProduce   = "Produce"
	CategoryDairy     = "Dairy"
	CategoryMeat      = "Meat & Seafood"
	CategoryBakery    = "Bakery"
	CategoryEssential = "Essential"
)

// Categories returns the known categories in display order.
func Categories() []string {
	return []string{CategoryProduce, CategoryDairy, CategoryMeat, CategoryBakery, CategoryEssential}
}

// PantryItem is a tracked household item. The stock level is always
// derived from Quantity and Threshold and never stored.
type PantryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	Category  string    `json:"category"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockLevel returns the current level for the item.
func (p PantryItem) StockLevel() StockLevel {
	switch {
	case p.Quantity <= 0:
		return StockLevelEmpty
	case p.Quantity < p.Threshold:
		return StockLevelLow
	default:
		return StockLevelGood
	}
}

// NeedsRestock reports whether the item belongs on the grocery list.
func (p PantryItem) NeedsRestock() bool {
	return p.StockLevel() != StockLevelGood
}

// RestockQuantity is how many units bring the item back to its threshold.
func (p PantryItem) RestockQuantity() int {
	if !p.NeedsRestock() {
		return 0
	}
	n := p.Threshold - p.Quantity
	if n < 1 {
		return 1
	}
	return n
}

// Validate checks the item can be tracked.
func (p PantryItem) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.Quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if p.Threshold <= 0 {
		return &ValidationError{Field: "threshold", Reason: "must be positive"}
	}
	return nil
}

// Normalized returns a copy with trimmed text and the default category filled in.
func (p PantryItem) Normalized() PantryItem {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if p.Category == "" {
		p.Category = CategoryEssential
	}
	return p
}
