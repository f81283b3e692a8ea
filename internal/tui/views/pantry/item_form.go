package pantry

import (
	"slices"
	"strconv"

	"github.com/stockup/stockup/internal/models"
	pantrysvc "github.com/stockup/stockup/internal/services/pantry"
	"github.com/stockup/stockup/internal/tui/components"
)

// FormMode indicates the form mode.
type FormMode int

const (
	FormModeAdd FormMode = iota
	FormModeEdit
)

// ItemForm adds or edits a pantry item.
type ItemForm struct {
	mode FormMode
	id   string

	form      *components.Form
	name      *components.Input
	quantity  *components.Input
	threshold *components.Input
	category  *components.Select
}

// NewItemForm creates an empty form for a new item.
func NewItemForm() *ItemForm {
	return newItemForm(FormModeAdd, models.Categories())
}

// EditItemForm creates a form filled from an existing item.
func EditItemForm(item models.PantryItem) *ItemForm {
	categories := models.Categories()
	if item.Category != "" && !slices.Contains(categories, item.Category) {
		categories = append(categories, item.Category)
	}

	f := newItemForm(FormModeEdit, categories)
	f.id = item.ID
	f.name.SetValue(item.Name)
	f.quantity.SetValue(strconv.Itoa(item.Quantity))
	f.threshold.SetValue(strconv.Itoa(item.Threshold))
	f.category.SetValue(item.Category)
	return f
}

func newItemForm(mode FormMode, categories []string) *ItemForm {
	f := &ItemForm{
		mode:      mode,
		name:      components.NewInput("Name").SetRequired(true).SetWidth(30).SetMaxLength(60),
		quantity:  components.NewInput("Quantity").SetNumeric(true).SetWidth(6).SetMaxLength(5).SetPlaceholder("0"),
		threshold: components.NewInput("Threshold").SetNumeric(true).SetRequired(true).SetWidth(6).SetMaxLength(5).SetValue("1"),
		category:  components.NewSelect("Category", categories),
	}
	if mode == FormModeAdd {
		f.category.SetValue(models.CategoryEssential)
	}

	title := "ADD ITEM"
	if mode == FormModeEdit {
		title = "EDIT ITEM"
	}
	f.form = components.NewForm(title).
		AddField(f.name).
		AddField(f.quantity).
		AddField(f.threshold).
		AddField(f.category)
	return f
}

// Mode returns whether the form adds or edits.
func (f *ItemForm) Mode() FormMode { return f.mode }

// HandleKey forwards a key to the form.
func (f *ItemForm) HandleKey(key string) { f.form.HandleKey(key) }

// IsSubmitted returns true once the user saves.
func (f *ItemForm) IsSubmitted() bool { return f.form.IsSubmitted() }

// IsCancelled returns true once the user cancels.
func (f *ItemForm) IsCancelled() bool { return f.form.IsCancelled() }

// Reject shows err and reopens the form for editing.
func (f *ItemForm) Reject(err error) {
	f.form.SetError(err.Error())
	f.form.Reopen()
}

// Input validates the fields and builds the service input.
func (f *ItemForm) Input() (pantrysvc.SetItemInput, bool) {
	ok := true
	for _, in := range []*components.Input{f.name, f.quantity, f.threshold} {
		if !in.Validate() {
			ok = false
		}
	}
	if !ok {
		return pantrysvc.SetItemInput{}, false
	}

	qty, _ := f.quantity.Int()
	threshold, _ := f.threshold.Int()
	return pantrysvc.SetItemInput{
		ID:        f.id,
		Name:      f.name.Value(),
		Quantity:  qty,
		Threshold: threshold,
		Category:  f.category.Value(),
	}, true
}

// Render renders the form for a terminal width.
func (f *ItemForm) Render(width int) string {
	return f.form.RenderResponsive(width)
}
