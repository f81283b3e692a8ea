package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/inventory"
	"github.com/stockup/stockup/internal/location"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/repository"
	"github.com/stockup/stockup/internal/services/pantry"
	"github.com/stockup/stockup/internal/stores"
	"github.com/stockup/stockup/internal/testutil"
	"github.com/stockup/stockup/internal/util"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testEnv holds the real components behind a test App.
type testEnv struct {
	pantry    *pantry.Service
	registry  *stores.Registry
	feed      *location.Feed
	reminders *repository.ReminderRepository
	events    chan models.ReminderEvent
	refresher *fakeRefresher
	clock     *util.ManualClock
}

type fakeRefresher struct {
	registry *stores.Registry
	found    []models.StoreLocation
	err      error
	calls    int
}

func (f *fakeRefresher) RefreshStores(context.Context) ([]models.StoreDistance, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := f.registry.ReplaceAll(f.found); err != nil {
		return nil, err
	}
	out := make([]models.StoreDistance, len(f.found))
	for i, s := range f.found {
		out[i] = models.StoreDistance{Store: s}
	}
	return out, nil
}

// newTestEnv wires an in-memory database, tracker and registry.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	clock := util.NewManualClock(testNow)
	registry := stores.NewRegistry(stores.WithMonitor(stores.NewInMemoryMonitor()))

	return &testEnv{
		pantry:    pantry.NewService(tdb.DB, inventory.NewTracker(), pantry.WithClock(clock)),
		registry:  registry,
		feed:      location.NewFeed(nil),
		reminders: repository.NewReminderRepository(tdb.DB),
		events:    make(chan models.ReminderEvent, 4),
		refresher: &fakeRefresher{registry: registry},
		clock:     clock,
	}
}

func (e *testEnv) deps() Deps {
	return Deps{
		Pantry:    e.pantry,
		Stores:    e.registry,
		Positions: e.feed,
		Reminders: e.reminders,
		Refresher: e.refresher,
		Events:    e.events,
		Clock:     e.clock,
	}
}

// seed stores items through the service so the tracker sees them.
func (e *testEnv) seed(t *testing.T, items ...models.PantryItem) {
	t.Helper()
	for _, item := range items {
		if _, err := e.pantry.Set(context.Background(), pantry.SetItemInput{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Threshold: item.Threshold,
			Category:  item.Category,
		}); err != nil {
			t.Fatalf("seeding %s: %v", item.Name, err)
		}
	}
}

// newTestApp creates an App over a fresh environment. The window is set to
// 120x40 and marked ready.
func newTestApp(t *testing.T) (*App, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	app := New(config.Default(), env.deps())
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app, env
}

// run executes a command and feeds the resulting message back into the
// app. Batches are not expanded.
func run(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		app.Update(msg)
	}
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}

// typeText sends each rune as its own key press.
func typeText(app *App, s string) {
	for _, r := range s {
		app.Update(keyMsg(string(r)))
	}
}
