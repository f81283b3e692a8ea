package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/testutil"
)

func TestApp_InitialState(t *testing.T) {
	app, _ := newTestApp(t)

	if app.currentModule != ModulePantry {
		t.Errorf("expected initial module Pantry, got %s", app.currentModule)
	}
	if !app.ready {
		t.Error("expected app to be ready")
	}
	if app.quitting {
		t.Error("expected app not to be quitting")
	}
	if app.showDetail || app.showForm {
		t.Error("expected no detail or form initially")
	}
	if app.confirm != confirmNone {
		t.Error("expected no confirmation initially")
	}
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := newTestApp(t)
	app.ready = false

	if !strings.Contains(app.View(), "Initializing") {
		t.Error("expected initialization message when not ready")
	}
}

func TestApp_View_Quitting(t *testing.T) {
	app, _ := newTestApp(t)
	app.quitting = true

	if !strings.Contains(app.View(), "closing") {
		t.Error("expected closing message when quitting")
	}
}

func TestApp_View_PantryAndHeader(t *testing.T) {
	app, env := newTestApp(t)
	env.seed(t, testutil.FixtureLowItem("Milk"), testutil.FixturePantryItem())
	app.refreshViews()

	output := app.View()
	for _, want := range []string{"STOCK UP v", "=== PANTRY ===", "Milk", "Rice", "NEED: 1"} {
		if !strings.Contains(output, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp_ModuleNavigation_FKeys(t *testing.T) {
	tests := []struct {
		key      tea.KeyType
		expected Module
		title    string
	}{
		{tea.KeyF3, ModuleGrocery, "GROCERY LIST"},
		{tea.KeyF4, ModuleStores, "NEARBY STORES"},
		{tea.KeyF5, ModuleReminders, "REMINDERS"},
		{tea.KeyF1, ModuleHelp, "HELP"},
		{tea.KeyF2, ModulePantry, "PANTRY"},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			app, _ := newTestApp(t)
			app.Update(specialKeyMsg(tea.KeyF4))
			app.Update(specialKeyMsg(tt.key))

			if app.currentModule != tt.expected {
				t.Errorf("expected module %s, got %s", tt.expected, app.currentModule)
			}
			if !strings.Contains(app.View(), tt.title) {
				t.Errorf("expected %q on screen", tt.title)
			}
		})
	}
}

func TestApp_HelpKeyAndBack(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(specialKeyMsg(tea.KeyF3))
	app.Update(keyMsg("?"))

	if app.currentModule != ModuleHelp {
		t.Fatalf("expected Help module, got %s", app.currentModule)
	}

	app.Update(specialKeyMsg(tea.KeyEscape))
	if app.currentModule != ModuleGrocery {
		t.Errorf("expected Esc to return to Grocery, got %s", app.currentModule)
	}
}

func TestApp_QuitConfirmation(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		app, _ := newTestApp(t)
		app.Update(keyMsg("q"))
		if app.confirm != confirmQuit {
			t.Fatal("expected quit confirmation to show")
		}
		if !strings.Contains(app.View(), "CONFIRM EXIT") {
			t.Error("expected confirm dialog on screen")
		}

		app.Update(keyMsg("n"))
		if app.confirm != confirmNone || app.quitting {
			t.Error("expected confirmation dismissed without quitting")
		}
	})

	t.Run("accept", func(t *testing.T) {
		app, _ := newTestApp(t)
		app.Update(specialKeyMsg(tea.KeyF10))
		_, cmd := app.Update(keyMsg("y"))

		if !app.quitting {
			t.Error("expected app to be quitting")
		}
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestApp_AdjustQuantity(t *testing.T) {
	app, env := newTestApp(t)
	milk := testutil.FixtureLowItem("Milk")
	env.seed(t, milk)
	app.refreshViews()

	_, cmd := app.Update(keyMsg("+"))
	run(app, cmd)
	_, cmd = app.Update(keyMsg("+"))
	run(app, cmd)

	got, err := env.pantry.Get(context.Background(), milk.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", got.Quantity)
	}

	for i := 0; i < 5; i++ {
		_, cmd = app.Update(keyMsg("-"))
		run(app, cmd)
	}
	got, _ = env.pantry.Get(context.Background(), milk.ID)
	if got.Quantity != 0 {
		t.Errorf("expected quantity to stop at 0, got %d", got.Quantity)
	}
	if !strings.Contains(app.View(), "EMPTY") {
		t.Error("expected the empty level on screen")
	}
}

func TestApp_AddItemForm(t *testing.T) {
	app, env := newTestApp(t)

	app.Update(keyMsg("a"))
	if !app.showForm || app.itemForm == nil {
		t.Fatal("expected add form to open")
	}
	if !strings.Contains(app.View(), "ADD ITEM") {
		t.Error("expected form title on screen")
	}

	typeText(app, "Eggs")
	app.Update(specialKeyMsg(tea.KeyTab))
	typeText(app, "2")
	app.Update(specialKeyMsg(tea.KeyTab))
	app.Update(specialKeyMsg(tea.KeyBackspace))
	typeText(app, "6")
	_, cmd := app.Update(specialKeyMsg(tea.KeyCtrlS))
	run(app, cmd)

	if app.showForm {
		t.Error("expected form to close after save")
	}
	items := env.pantry.List()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "Eggs" || items[0].Quantity != 2 || items[0].Threshold != 6 {
		t.Errorf("unexpected item %+v", items[0])
	}
	if items[0].Category != models.CategoryEssential {
		t.Errorf("expected default category, got %q", items[0].Category)
	}
	if !strings.Contains(app.View(), "Saved Eggs") {
		t.Error("expected save alert")
	}
}

func TestApp_AddItemForm_RequiresName(t *testing.T) {
	app, env := newTestApp(t)

	app.Update(keyMsg("a"))
	_, cmd := app.Update(specialKeyMsg(tea.KeyCtrlS))
	run(app, cmd)

	if !app.showForm {
		t.Fatal("expected form to stay open")
	}
	if len(env.pantry.List()) != 0 {
		t.Error("expected nothing saved")
	}
	if !strings.Contains(app.View(), "Required") {
		t.Error("expected required error on screen")
	}
}

func TestApp_FormCapturesQuitKey(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(keyMsg("a"))
	app.Update(keyMsg("q"))

	if app.confirm != confirmNone {
		t.Error("q inside the form should be text, not quit")
	}

	app.Update(specialKeyMsg(tea.KeyEscape))
	if app.showForm {
		t.Error("expected Esc to cancel the form")
	}
}

func TestApp_EditItem(t *testing.T) {
	app, env := newTestApp(t)
	bread := testutil.FixturePantryItem(func(p *models.PantryItem) {
		p.Name = "Bread"
		p.Category = models.CategoryBakery
	})
	env.seed(t, bread)
	app.refreshViews()

	app.Update(keyMsg("e"))
	if app.itemForm == nil || !strings.Contains(app.View(), "EDIT ITEM") {
		t.Fatal("expected edit form")
	}
	typeText(app, " Rolls")
	_, cmd := app.Update(specialKeyMsg(tea.KeyCtrlS))
	run(app, cmd)

	got, err := env.pantry.Get(context.Background(), bread.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Bread Rolls" || got.Category != models.CategoryBakery {
		t.Errorf("unexpected item after edit %+v", got)
	}
	if len(env.pantry.List()) != 1 {
		t.Error("edit should not create a second item")
	}
}

func TestApp_RemoveItem(t *testing.T) {
	app, env := newTestApp(t)
	env.seed(t, testutil.FixtureLowItem("Butter"))
	app.refreshViews()

	app.Update(keyMsg("d"))
	if app.confirm != confirmRemove {
		t.Fatal("expected remove confirmation")
	}
	if !strings.Contains(app.View(), "Stop tracking Butter?") {
		t.Error("expected remove question on screen")
	}

	_, cmd := app.Update(keyMsg("y"))
	run(app, cmd)

	if len(env.pantry.List()) != 0 {
		t.Error("expected item removed")
	}
	if app.quitting {
		t.Error("remove confirmation must not quit")
	}
	if !strings.Contains(app.View(), "Removed Butter") {
		t.Error("expected removal alert")
	}
}

func TestApp_DetailView(t *testing.T) {
	app, env := newTestApp(t)
	env.seed(t, testutil.FixtureLowItem("Yogurt"))
	app.refreshViews()

	app.Update(specialKeyMsg(tea.KeyEnter))
	if !app.showDetail {
		t.Fatal("expected detail view")
	}
	if !strings.Contains(app.View(), "=== YOGURT ===") {
		t.Error("expected item detail title")
	}

	app.Update(specialKeyMsg(tea.KeyEscape))
	if app.showDetail {
		t.Error("expected Esc to close the detail")
	}
}

func TestApp_GroceryListFollowsPantry(t *testing.T) {
	app, env := newTestApp(t)
	app.Update(specialKeyMsg(tea.KeyF3))
	if !strings.Contains(app.View(), "Nothing to buy") {
		t.Error("expected empty grocery list")
	}

	env.seed(t, testutil.FixtureLowItem("Cheese", func(p *models.PantryItem) { p.Category = models.CategoryDairy }))
	app.Update(tickMsg(time.Now()))

	output := app.View()
	if !strings.Contains(output, "Cheese") || !strings.Contains(output, "DAIRY") {
		t.Error("expected the low item on the grocery list after a tick")
	}
}

func TestApp_ReminderEvent(t *testing.T) {
	app, _ := newTestApp(t)
	ev := testutil.FixtureReminder("s1", testNow, "Milk", "Eggs")

	_, cmd := app.Update(reminderMsg{event: ev})
	if cmd == nil {
		t.Error("expected the app to keep listening for reminders")
	}

	if !strings.Contains(app.View(), ev.Title()) {
		t.Error("expected reminder in the alert bar")
	}

	app.Update(specialKeyMsg(tea.KeyF5))
	if !strings.Contains(app.View(), "Milk, Eggs") {
		t.Error("expected reminder listed in history")
	}
}

func TestApp_ReminderHistoryLoadsFromDatabase(t *testing.T) {
	app, env := newTestApp(t)
	ev := testutil.FixtureReminder("s1", testNow, "Flour")
	if err := env.reminders.Insert(context.Background(), ev); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, cmd := app.Update(specialKeyMsg(tea.KeyF5))
	run(app, cmd)

	if !strings.Contains(app.View(), "Flour") {
		t.Error("expected stored reminder in history")
	}
}

func TestApp_RefreshStores(t *testing.T) {
	app, env := newTestApp(t)
	env.refresher.found = []models.StoreLocation{testutil.FixtureStore()}

	app.Update(specialKeyMsg(tea.KeyF4))
	_, cmd := app.Update(keyMsg("r"))
	if !app.refreshing {
		t.Error("expected refresh in flight")
	}
	run(app, cmd)

	if env.refresher.calls != 1 {
		t.Errorf("expected one refresh, got %d", env.refresher.calls)
	}
	output := app.View()
	if !strings.Contains(output, "Corner Market") || !strings.Contains(output, "Found 1 nearby stores") {
		t.Error("expected refreshed store on screen")
	}
}

func TestApp_RefreshStoresError(t *testing.T) {
	app, env := newTestApp(t)
	env.refresher.err = errors.New("places unavailable")

	app.Update(specialKeyMsg(tea.KeyF4))
	_, cmd := app.Update(keyMsg("r"))
	run(app, cmd)

	if app.refreshing {
		t.Error("expected refresh to finish")
	}
	if !strings.Contains(app.View(), "places unavailable") {
		t.Error("expected error in the alert bar")
	}
}

func TestApp_AddAlert_Limit(t *testing.T) {
	app, _ := newTestApp(t)
	for i := 0; i < maxAlerts+5; i++ {
		app.AddAlert(AlertInfo, "note")
	}
	if len(app.alerts) != maxAlerts {
		t.Errorf("expected %d alerts, got %d", maxAlerts, len(app.alerts))
	}

	app.ClearAlerts()
	if !strings.Contains(app.View(), "Watching for nearby stores") {
		t.Error("expected idle alert bar")
	}
}

func TestApp_NarrowTerminal(t *testing.T) {
	app, env := newTestApp(t)
	env.seed(t, testutil.FixtureLowItem("Milk"))
	app.Update(tea.WindowSizeMsg{Width: 50, Height: 24})

	output := app.View()
	if !strings.Contains(output, "F2 Pantry") {
		t.Error("expected compact status bar")
	}
	if strings.Contains(output, "[F5]Reminders") {
		t.Error("expected wide status bar hidden")
	}
}
