package pantry

import "github.com/stockup/stockup/internal/models"

// SetItemInput contains data for creating or replacing a pantry item. An
// empty ID creates a new item.
type SetItemInput struct {
	ID        string
	Name      string
	Quantity  int
	Threshold int
	Category  string
}

// GroceryEntry is one line of the grocery list.
type GroceryEntry struct {
	Item     models.PantryItem `json:"item"`
	Level    models.StockLevel `json:"level"`
	Quantity int               `json:"quantity"`
}

// GroceryGroup holds the entries of one category.
type GroceryGroup struct {
	Category string         `json:"category"`
	Entries  []GroceryEntry `json:"entries"`
}

// GroceryList is the set of items to buy, grouped by category.
type GroceryList struct {
	Groups []GroceryGroup `json:"groups"`
	Total  int            `json:"total"`
}

// Names returns every item name in list order.
func (l GroceryList) Names() []string {
	names := make([]string, 0, l.Total)
	for _, g := range l.Groups {
		for _, e := range g.Entries {
			names = append(names, e.Item.Name)
		}
	}
	return names
}
