package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/services/pantry"
	"github.com/stockup/stockup/internal/tui/views/grocery"
	pantryviews "github.com/stockup/stockup/internal/tui/views/pantry"
	"github.com/stockup/stockup/internal/tui/views/reminders"
	"github.com/stockup/stockup/internal/tui/views/stores"
	"github.com/stockup/stockup/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// chromeLines is the header, alert bar and footer height.
const chromeLines = 6

const maxAlerts = 10

// Module represents a view module in the application.
type Module string

const (
	ModulePantry    Module = "pantry"
	ModuleGrocery   Module = "grocery"
	ModuleStores    Module = "stores"
	ModuleReminders Module = "reminders"
	ModuleHelp      Module = "help"
)

// PantryService is the pantry surface the console edits.
type PantryService interface {
	List() []models.PantryItem
	Set(ctx context.Context, input pantry.SetItemInput) (models.PantryItem, error)
	Adjust(ctx context.Context, id string, delta int) (models.PantryItem, error)
	Remove(ctx context.Context, id string) error
	GroceryList() pantry.GroceryList
}

// StoreRefresher looks up nearby stores for the current position.
type StoreRefresher interface {
	RefreshStores(ctx context.Context) ([]models.StoreDistance, error)
}

// Deps are the components behind the console. Refresher and Events are
// optional.
type Deps struct {
	Pantry    PantryService
	Stores    stores.Source
	Positions stores.Locator
	Reminders reminders.History
	Refresher StoreRefresher
	Events    <-chan models.ReminderEvent
	Clock     util.Clock
}

// App is the main Bubble Tea application model.
type App struct {
	config *config.Config
	deps   Deps
	clock  util.Clock

	pantryView    *pantryviews.PantryView
	itemForm      *pantryviews.ItemForm
	groceryView   *grocery.GroceryView
	storesView    *stores.StoresView
	remindersView *reminders.RemindersView

	theme    *Theme
	keys     KeyMap
	width    int
	height   int
	ready    bool
	quitting bool

	currentModule  Module
	previousModule Module
	showDetail     bool
	showForm       bool
	confirm        confirmKind
	pendingRemove  models.PantryItem
	refreshing     bool

	alerts []Alert
}

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmQuit
	confirmRemove
)

// Alert represents a status line message.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

type (
	tickMsg               time.Time
	reminderMsg           struct{ event models.ReminderEvent }
	reminderFeedClosedMsg struct{}
	remindersLoadedMsg    struct{ err error }
	storesRefreshedMsg    struct {
		stores []models.StoreDistance
		err    error
	}
	itemSavedMsg struct {
		item     models.PantryItem
		err      error
		fromForm bool
	}
	itemRemovedMsg struct {
		name string
		err  error
	}
)

// New creates a new App instance.
func New(cfg *config.Config, deps Deps) *App {
	clock := deps.Clock
	if clock == nil {
		clock = util.SystemClock{}
	}
	theme := NewTheme(cfg.Display.ColorScheme)

	pantryView := pantryviews.NewPantryView(deps.Pantry)
	pantryView.SetStyles(theme.TableStyles(), theme.LevelStyle)
	pantryView.SetTimeFormat(cfg.Display.TimeFormat)

	storesView := stores.NewStoresView(deps.Stores, deps.Positions, cfg.Reminder.RadiusMeters)
	storesView.SetStyles(theme.TableStyles())

	remindersView := reminders.NewRemindersView(deps.Reminders)
	remindersView.SetStyles(theme.TableStyles())
	remindersView.SetTimeFormat(cfg.Display.TimeFormat)

	a := &App{
		config:        cfg,
		deps:          deps,
		clock:         clock,
		pantryView:    pantryView,
		groceryView:   grocery.NewGroceryView(deps.Pantry),
		storesView:    storesView,
		remindersView: remindersView,
		theme:         theme,
		keys:          DefaultKeyMap(),
		currentModule: ModulePantry,
	}
	a.refreshViews()
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		a.loadReminders(),
		waitForReminder(a.deps.Events),
	)
}

// tickCmd returns a command that sends tick messages.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForReminder blocks on the engine feed and delivers one event.
func waitForReminder(events <-chan models.ReminderEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return reminderFeedClosedMsg{}
		}
		return reminderMsg{event: ev}
	}
}

// refreshViews re-reads the in-memory pantry and stores. Edits made over
// HTTP or by another process show up on the next tick.
func (a *App) refreshViews() {
	a.pantryView.Refresh()
	a.groceryView.Refresh()
	a.storesView.Refresh()
}

func (a *App) loadReminders() tea.Cmd {
	return func() tea.Msg {
		return remindersLoadedMsg{err: a.remindersView.Load(context.Background())}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		rows := ContentHeight(a.height, chromeLines) - 8
		if rows < 3 {
			rows = 3
		}
		a.pantryView.SetVisibleRows(rows)
		return a, nil

	case tickMsg:
		a.refreshViews()
		return a, tickCmd()

	case reminderMsg:
		ev := msg.event
		a.AddAlert(AlertWarning, ev.Title()+": "+ev.Body())
		a.remindersView.Prepend(ev)
		return a, waitForReminder(a.deps.Events)

	case reminderFeedClosedMsg:
		return a, nil

	case remindersLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load reminders: "+msg.err.Error())
		}
		return a, nil

	case storesRefreshedMsg:
		a.refreshing = false
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Store lookup failed: "+msg.err.Error())
			return a, nil
		}
		a.storesView.Refresh()
		a.AddAlert(AlertInfo, fmt.Sprintf("Found %d nearby stores", len(a.deps.Stores.Current())))
		return a, nil

	case itemSavedMsg:
		if msg.err != nil {
			if msg.fromForm && a.itemForm != nil {
				a.itemForm.Reject(msg.err)
				return a, nil
			}
			a.AddAlert(AlertWarning, "Failed to save item: "+msg.err.Error())
			return a, nil
		}
		if msg.fromForm {
			a.showForm = false
			a.itemForm = nil
			a.AddAlert(AlertInfo, "Saved "+msg.item.Name)
		}
		a.refreshViews()
		a.pantryView.Select(msg.item.ID)
		return a, nil

	case itemRemovedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to remove item: "+msg.err.Error())
		} else {
			a.AddAlert(AlertInfo, "Removed "+msg.name)
		}
		a.showDetail = false
		a.refreshViews()
		return a, nil
	}

	return a, nil
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal dialogs take priority
	if a.confirm != confirmNone {
		return a.handleConfirmKeys(msg)
	}

	// The form needs all input, including q
	if a.showForm && a.itemForm != nil {
		return a.handleFormKeys(msg)
	}

	if a.keys.IsQuit(msg) {
		a.confirm = confirmQuit
		return a, nil
	}

	if a.keys.IsFunctionKey(msg) {
		module, ok := a.keys.FunctionKeyModule(msg)
		if !ok {
			return a, nil
		}
		if module == ModuleHelp && a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
		}
		a.currentModule = module
		a.showDetail = false
		if module == ModuleReminders {
			return a, a.loadReminders()
		}
		return a, nil
	}

	if a.keys.Help.Matches(msg) {
		if a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
			a.currentModule = ModuleHelp
		}
		return a, nil
	}

	if a.keys.Back.Matches(msg) {
		if a.showDetail {
			a.showDetail = false
			return a, nil
		}
		if a.currentModule == ModuleHelp && a.previousModule != "" {
			a.currentModule = a.previousModule
			a.previousModule = ""
		}
		return a, nil
	}

	switch a.currentModule {
	case ModulePantry:
		return a.handlePantryKeys(msg)
	case ModuleGrocery:
		return a.handleGroceryKeys(msg)
	case ModuleStores:
		return a.handleStoresKeys(msg)
	case ModuleReminders:
		return a.handleRemindersKeys(msg)
	}

	return a, nil
}

func (a *App) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		kind := a.confirm
		a.confirm = confirmNone
		if kind == confirmQuit {
			a.quitting = true
			return a, tea.Quit
		}
		return a, a.removeItem(a.pendingRemove)
	case "n", "N", "esc":
		a.confirm = confirmNone
	}
	return a, nil
}

// handlePantryKeys handles key presses in the pantry module.
func (a *App) handlePantryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, hasItem := a.pantryView.SelectedItem()

	switch {
	case a.keys.Increase.Matches(msg):
		if hasItem {
			return a, a.adjustItem(item.ID, 1)
		}
	case a.keys.Decrease.Matches(msg):
		if hasItem {
			return a, a.adjustItem(item.ID, -1)
		}
	case a.keys.Edit.Matches(msg):
		if hasItem {
			a.itemForm = pantryviews.EditItemForm(item)
			a.showForm = true
			a.showDetail = false
		}
	case a.keys.Delete.Matches(msg):
		if hasItem {
			a.pendingRemove = item
			a.confirm = confirmRemove
		}
	case a.showDetail:
		// Only item actions apply to the detail view
	case a.keys.Add.Matches(msg):
		a.itemForm = pantryviews.NewItemForm()
		a.showForm = true
	case msg.String() == "enter":
		if hasItem {
			a.showDetail = true
		}
	case a.keys.Up.Matches(msg):
		a.pantryView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.pantryView.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.pantryView.PageUp()
	case a.keys.PageDown.Matches(msg):
		a.pantryView.PageDown()
	case a.keys.Home.Matches(msg):
		a.pantryView.GoToTop()
	case a.keys.End.Matches(msg):
		a.pantryView.GoToBottom()
	}

	return a, nil
}

// handleFormKeys handles key presses in form mode.
func (a *App) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.itemForm.HandleKey(msg.String())

	if a.itemForm.IsCancelled() {
		a.showForm = false
		a.itemForm = nil
		return a, nil
	}

	if a.itemForm.IsSubmitted() {
		input, ok := a.itemForm.Input()
		if !ok {
			a.itemForm.Reject(errors.New("check the highlighted fields"))
			return a, nil
		}
		return a, a.saveItem(input)
	}

	return a, nil
}

func (a *App) handleGroceryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.groceryView.ScrollUp()
	case a.keys.Down.Matches(msg):
		a.groceryView.ScrollDown()
	}
	return a, nil
}

func (a *App) handleStoresKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.storesView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.storesView.MoveDown()
	case a.keys.Refresh.Matches(msg):
		if a.deps.Refresher == nil {
			a.AddAlert(AlertInfo, "Store lookup is not configured")
			return a, nil
		}
		if a.refreshing {
			return a, nil
		}
		a.refreshing = true
		return a, a.refreshStores()
	}
	return a, nil
}

func (a *App) handleRemindersKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.remindersView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.remindersView.MoveDown()
	case a.keys.PageUp.Matches(msg):
		if a.remindersView.PrevPage() {
			return a, a.loadReminders()
		}
	case a.keys.PageDown.Matches(msg):
		if a.remindersView.NextPage() {
			return a, a.loadReminders()
		}
	}
	return a, nil
}

func (a *App) saveItem(input pantry.SetItemInput) tea.Cmd {
	return func() tea.Msg {
		item, err := a.deps.Pantry.Set(context.Background(), input)
		return itemSavedMsg{item: item, err: err, fromForm: true}
	}
}

func (a *App) adjustItem(id string, delta int) tea.Cmd {
	return func() tea.Msg {
		item, err := a.deps.Pantry.Adjust(context.Background(), id, delta)
		return itemSavedMsg{item: item, err: err}
	}
}

func (a *App) removeItem(item models.PantryItem) tea.Cmd {
	return func() tea.Msg {
		return itemRemovedMsg{name: item.Name, err: a.deps.Pantry.Remove(context.Background(), item.ID)}
	}
}

func (a *App) refreshStores() tea.Cmd {
	return func() tea.Msg {
		found, err := a.deps.Refresher.RefreshStores(context.Background())
		return storesRefreshedMsg{stores: found, err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("Stock Up closing. Happy shopping.")
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	contentHeight := ContentHeight(a.height, chromeLines)
	switch a.confirm {
	case confirmQuit:
		b.WriteString(a.renderConfirmDialog(contentHeight, "CONFIRM EXIT", "Are you sure you want to exit?"))
	case confirmRemove:
		b.WriteString(a.renderConfirmDialog(contentHeight, "REMOVE ITEM",
			fmt.Sprintf("Stop tracking %s?", a.pendingRemove.Name)))
	default:
		b.WriteString(a.renderContent(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("STOCK UP v%s", Version)

	_, low, empty := a.pantryView.Summary()
	info := fmt.Sprintf("%s | NEED: %d", a.config.Household.Name, low+empty)
	if GetBreakpoint(a.width) == BreakpointNarrow {
		info = fmt.Sprintf("NEED: %d", low+empty)
	}

	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(info) - 4
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

// renderAlertBar renders the clock and the latest alert.
func (a *App) renderAlertBar() string {
	timeStr := a.clock.Now().In(time.Local).Format(a.config.Display.TimeFormat)

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("ERROR: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render(alert.Message)
		default:
			alertText = a.theme.Alert.Render(alert.Message)
		}
	} else {
		alertText = a.theme.Muted.Render("Watching for nearby stores")
	}

	line := a.theme.Value.Render(timeStr) + a.theme.StatusDivider.Render() + alertText
	if a.width > 0 && lipgloss.Width(line) > a.width {
		line = Truncate(timeStr+" │ "+alertPlain(a.alerts), a.width)
	}
	return line
}

func alertPlain(alerts []Alert) string {
	if len(alerts) == 0 {
		return "Watching for nearby stores"
	}
	return alerts[0].Message
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	contentWidth := ContentWidth(a.width, 20, MaxContentWidth)
	content := a.moduleContent(contentWidth, height)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	return style.Render(lipgloss.NewStyle().Width(contentWidth).Render(content))
}

func (a *App) moduleContent(width, height int) string {
	switch a.currentModule {
	case ModulePantry:
		if a.showForm && a.itemForm != nil {
			return a.itemForm.Render(width)
		}
		if a.showDetail {
			if item, ok := a.pantryView.SelectedItem(); ok {
				return a.pantryView.RenderDetail(item) + "\n" +
					a.theme.StockGauge(item, 24) + "\n\n" +
					a.theme.Muted.Render("Esc:Back  +/-:Adjust  e:Edit  d:Remove")
			}
		}
		return a.pantryView.Render(width, height)
	case ModuleGrocery:
		return a.groceryView.Render(width, height)
	case ModuleStores:
		return a.storesView.Render(width, height)
	case ModuleReminders:
		return a.remindersView.Render(width, height)
	default:
		return a.renderHelp(width)
	}
}

// renderHelp renders the help screen.
func (a *App) renderHelp(width int) string {
	var nav strings.Builder
	for _, k := range []Key{a.keys.F1, a.keys.F2, a.keys.F3, a.keys.F4, a.keys.F5, a.keys.F10} {
		nav.WriteString(a.theme.Primary.Render(fmt.Sprintf("%-8s %s", strings.ToUpper(k.Keys[0]), k.Help)))
		nav.WriteString("\n")
	}

	var ctrl strings.Builder
	for _, k := range []Key{a.keys.Up, a.keys.Down, a.keys.Add, a.keys.Edit, a.keys.Delete,
		a.keys.Increase, a.keys.Decrease, a.keys.Refresh, a.keys.Back} {
		ctrl.WriteString(a.theme.Primary.Render(fmt.Sprintf("%-8s %s", k.Keys[0], k.Help)))
		ctrl.WriteString("\n")
	}

	panelWidth := width
	if GetBreakpoint(width) != BreakpointNarrow {
		panelWidth = width / 2
	}

	var b strings.Builder
	b.WriteString(a.theme.Title.Render("=== HELP ==="))
	b.WriteString("\n\n")
	b.WriteString(a.theme.Panel("NAVIGATION", strings.TrimRight(nav.String(), "\n"), panelWidth))
	b.WriteString("\n")
	b.WriteString(a.theme.Panel("CONTROLS", strings.TrimRight(ctrl.String(), "\n"), panelWidth))
	b.WriteString("\n\n")
	b.WriteString(a.theme.Muted.Render("Stock Up reminds you what to buy when you walk into a store. Press Esc to return."))
	return b.String()
}

// renderConfirmDialog renders a yes/no dialog.
func (a *App) renderConfirmDialog(height int, title, question string) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render(title) + "\n\n" +
			a.theme.Base.Render(question) + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	return a.theme.DrawHorizontalLine(a.width) + "\n" +
		a.theme.Footer.Render(a.keys.StatusBarHelp(a.width))
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    a.clock.Now(),
	}}, a.alerts...)

	if len(a.alerts) > maxAlerts {
		a.alerts = a.alerts[:maxAlerts]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = nil
}

// Run starts the console and blocks until the user quits or ctx is done.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	p := tea.NewProgram(New(cfg, deps), tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
