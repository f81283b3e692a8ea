package inventory

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stockup/stockup/internal/models"
)

func item(id, name string, qty, threshold int) models.PantryItem {
	return models.PantryItem{ID: id, Name: name, Quantity: qty, Threshold: threshold, Category: models.CategoryDairy}
}

func TestTracker_UpsertAndSnapshot(t *testing.T) {
	tr := NewTracker()

	if err := tr.Upsert(item("milk", "Milk", 1, 2)); err != nil {
		t.Fatalf("upsert milk: %v", err)
	}
	if err := tr.Upsert(item("eggs", "Eggs", 12, 6)); err != nil {
		t.Fatalf("upsert eggs: %v", err)
	}

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 items, got %d", len(snap))
	}

	// Replacing by ID keeps one entry
	if err := tr.Upsert(item("milk", "Milk", 4, 2)); err != nil {
		t.Fatalf("re-upsert milk: %v", err)
	}
	got, ok := tr.Get("milk")
	if !ok || got.Quantity != 4 {
		t.Errorf("expected milk quantity 4, got %+v", got)
	}
	if tr.Len() != 2 {
		t.Errorf("expected 2 items after replace, got %d", tr.Len())
	}
}

func TestTracker_SnapshotIsCopy(t *testing.T) {
	tr := NewTracker()
	_ = tr.Upsert(item("milk", "Milk", 1, 2))

	snap := tr.Snapshot()
	delete(snap, "milk")

	if tr.Len() != 1 {
		t.Error("mutating the snapshot must not affect the tracker")
	}
}

func TestTracker_UpsertRejectsBadThreshold(t *testing.T) {
	tr := NewTracker()
	_ = tr.Upsert(item("milk", "Milk", 1, 2))
	before := tr.Snapshot()

	err := tr.Upsert(item("bread", "Bread", 1, 0))
	if !models.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if diff := cmp.Diff(before, tr.Snapshot()); diff != "" {
		t.Errorf("snapshot changed after rejected upsert (-before +after):\n%s", diff)
	}

	// Rejected replacement of an existing item leaves the old value
	err = tr.Upsert(item("milk", "Milk", 1, -1))
	if !models.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got, _ := tr.Get("milk"); got.Threshold != 2 {
		t.Errorf("expected threshold 2 preserved, got %d", got.Threshold)
	}
}

func TestTracker_Remove(t *testing.T) {
	tr := NewTracker()
	_ = tr.Upsert(item("milk", "Milk", 1, 2))

	if !tr.Remove("milk") {
		t.Error("expected Remove to report existing item")
	}
	if tr.Remove("milk") {
		t.Error("expected second Remove to report missing item")
	}
	if tr.Len() != 0 {
		t.Errorf("expected empty tracker, got %d", tr.Len())
	}
}

func TestTracker_LowStockNames(t *testing.T) {
	tr := NewTracker()
	for _, it := range []models.PantryItem{
		item("1", "Spinach", 0, 1),
		item("2", "Eggs", 12, 6),
		item("3", "Milk", 1, 2),
		item("4", "Pasta", 3, 2),
		item("5", "Butter", 1, 3),
	} {
		if err := tr.Upsert(it); err != nil {
			t.Fatalf("upsert %s: %v", it.Name, err)
		}
	}

	want := []string{"Butter", "Milk", "Spinach"}
	if diff := cmp.Diff(want, tr.LowStockNames()); diff != "" {
		t.Errorf("LowStockNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_LowStockNamesEmpty(t *testing.T) {
	tr := NewTracker()
	if got := tr.LowStockNames(); len(got) != 0 {
		t.Errorf("expected no names on empty tracker, got %v", got)
	}

	_ = tr.Upsert(item("eggs", "Eggs", 12, 6))
	if got := tr.LowStockNames(); len(got) != 0 {
		t.Errorf("expected no names when all good, got %v", got)
	}
}

func TestTracker_Replace(t *testing.T) {
	tr := NewTracker()
	_ = tr.Upsert(item("old", "Old", 1, 1))

	err := tr.Replace([]models.PantryItem{item("a", "A", 1, 1), item("b", "B", 1, 0)})
	if !models.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := tr.Get("old"); !ok {
		t.Fatal("failed Replace must keep the previous snapshot")
	}

	if err := tr.Replace([]models.PantryItem{item("a", "A", 1, 1)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, ok := tr.Get("old"); ok {
		t.Error("successful Replace must drop old items")
	}
	if tr.Len() != 1 {
		t.Errorf("expected 1 item, got %d", tr.Len())
	}
}

func TestTracker_ItemsOrdered(t *testing.T) {
	tr := NewTracker()
	_ = tr.Upsert(item("2", "Milk", 1, 2))
	_ = tr.Upsert(item("1", "Apples", 3, 2))
	_ = tr.Upsert(item("3", "Bread", 0, 1))

	var names []string
	for _, it := range tr.Items() {
		names = append(names, it.Name)
	}
	if diff := cmp.Diff([]string{"Apples", "Bread", "Milk"}, names); diff != "" {
		t.Errorf("Items() order mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tr.Upsert(item("milk", "Milk", j%3, 2))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tr.LowStockNames()
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	if tr.Len() != 1 {
		t.Errorf("expected 1 item, got %d", tr.Len())
	}
}
