package components

import (
	"strings"
	"testing"
)

func TestInput_RequiredValidation(t *testing.T) {
	input := NewInput("Name").SetRequired(true)

	if input.Validate() {
		t.Error("empty required field should fail validation")
	}
	if input.Error() != "Required" {
		t.Errorf("Error() = %q, want Required", input.Error())
	}

	input.SetValue("   ")
	if input.Validate() {
		t.Error("whitespace-only required field should fail validation")
	}

	input.SetValue("Oat milk")
	if !input.Validate() {
		t.Error("filled field should pass validation")
	}
	if input.Error() != "" {
		t.Errorf("Error() = %q after passing validation", input.Error())
	}
}

func TestInput_HandleKey(t *testing.T) {
	input := NewInput("Name")
	input.HandleKey("x")
	if input.Value() != "" {
		t.Errorf("unfocused input accepted a key: %q", input.Value())
	}

	input.Focus(true)
	for _, k := range []string{"M", "i", "l", "k"} {
		input.HandleKey(k)
	}
	if input.Value() != "Milk" {
		t.Fatalf("Value() = %q, want Milk", input.Value())
	}

	input.HandleKey("backspace")
	input.HandleKey("home")
	input.HandleKey("O")
	input.HandleKey("end")
	input.HandleKey("left")
	input.HandleKey("delete")
	if input.Value() != "OMi" {
		t.Errorf("Value() = %q, want OMi", input.Value())
	}

	input.HandleKey("ctrl+x")
	if input.Value() != "OMi" {
		t.Errorf("control key inserted text: %q", input.Value())
	}
}

func TestInput_HandleKey_Runes(t *testing.T) {
	input := NewInput("Name").SetValue("Crme")
	input.Focus(true)

	input.HandleKey("left")
	input.HandleKey("left")
	input.HandleKey("è")
	if input.Value() != "Crème" {
		t.Fatalf("Value() = %q, want Crème", input.Value())
	}

	input.HandleKey("backspace")
	if input.Value() != "Crme" {
		t.Errorf("Value() = %q after backspace, want Crme", input.Value())
	}
}

func TestInput_MaxLength(t *testing.T) {
	input := NewInput("Name").SetMaxLength(3)
	input.Focus(true)
	for _, k := range []string{"a", "b", "c", "d"} {
		input.HandleKey(k)
	}
	if input.Value() != "abc" {
		t.Errorf("Value() = %q, want abc", input.Value())
	}
}

func TestInput_Numeric(t *testing.T) {
	input := NewInput("Quantity").SetNumeric(true)
	input.Focus(true)
	for _, k := range []string{"1", "x", "2", "-", " "} {
		input.HandleKey(k)
	}
	if input.Value() != "12" {
		t.Fatalf("Value() = %q, want 12", input.Value())
	}

	n, err := input.Int()
	if err != nil || n != 12 {
		t.Errorf("Int() = %d, %v, want 12", n, err)
	}

	input.SetValue("")
	if n, err := input.Int(); err != nil || n != 0 {
		t.Errorf("Int() on empty = %d, %v, want 0", n, err)
	}

	input.SetValue("9x")
	if input.Validate() {
		t.Error("non-numeric value should fail validation")
	}
}

func TestInput_Render(t *testing.T) {
	input := NewInput("Threshold").SetRequired(true).SetValue("3")

	out := input.Render()
	if !strings.Contains(out, "Threshold*:") {
		t.Errorf("label missing from %q", out)
	}

	if strings.Contains(input.RenderWithLabelWidth(0), "Threshold") {
		t.Error("label width 0 should hide the label")
	}

	input.Focus(true)
	if !strings.Contains(input.Render(), "3_") {
		t.Error("focused input should show the cursor")
	}

	empty := NewInput("Category").SetPlaceholder("Essential")
	if !strings.Contains(empty.Render(), "Essential") {
		t.Error("unfocused empty input should show the placeholder")
	}

	input.SetError("Must be a number")
	if !strings.Contains(input.Render(), "Must be a number") {
		t.Error("error message missing")
	}
}

func TestSelect(t *testing.T) {
	sel := NewSelect("Category", []string{"Produce", "Dairy", "Bakery"})

	sel.HandleKey("right")
	if sel.Value() != "Produce" {
		t.Errorf("unfocused select moved to %q", sel.Value())
	}

	sel.Focus(true)
	sel.HandleKey("right")
	sel.HandleKey("l")
	sel.HandleKey("right")
	if sel.Value() != "Bakery" {
		t.Errorf("Value() = %q, want Bakery", sel.Value())
	}
	sel.HandleKey("h")
	if sel.SelectedIndex() != 1 {
		t.Errorf("SelectedIndex() = %d, want 1", sel.SelectedIndex())
	}

	sel.SetSelected(99)
	if sel.SelectedIndex() != 1 {
		t.Errorf("out of range SetSelected changed the index to %d", sel.SelectedIndex())
	}

	sel.SetValue("Produce")
	if sel.SelectedIndex() != 0 {
		t.Errorf("SetValue(Produce) index = %d, want 0", sel.SelectedIndex())
	}
	sel.SetValue("Frozen")
	if sel.SelectedIndex() != 0 {
		t.Errorf("unknown SetValue changed the index to %d", sel.SelectedIndex())
	}

	out := sel.Render()
	if !strings.Contains(out, "Category:") || !strings.Contains(out, "[Produce]") {
		t.Errorf("Render() = %q", out)
	}
	if strings.Contains(sel.RenderWithLabelWidth(0), "Category") {
		t.Error("label width 0 should hide the label")
	}
}

func TestForm_Flow(t *testing.T) {
	name := NewInput("Name")
	qty := NewInput("Quantity").SetNumeric(true)
	form := NewForm("Add Item").AddField(name).AddField(qty)

	if !name.IsFocused() {
		t.Fatal("first field should start focused")
	}

	form.HandleKey("E")
	form.HandleKey("tab")
	form.HandleKey("4")
	if name.Value() != "E" || qty.Value() != "4" {
		t.Errorf("values = %q, %q", name.Value(), qty.Value())
	}
	if name.IsFocused() || !qty.IsFocused() {
		t.Error("tab should move focus to the second field")
	}

	form.HandleKey("shift+tab")
	if !name.IsFocused() {
		t.Error("shift+tab should move focus back")
	}
	form.HandleKey("up")
	if !qty.IsFocused() {
		t.Error("up from the first field should wrap to the last")
	}

	form.HandleKey("enter")
	if !form.IsSubmitted() {
		t.Error("enter on the last field should submit")
	}

	form.Reopen()
	if form.IsSubmitted() {
		t.Error("Reopen should clear the submitted flag")
	}
	form.HandleKey("ctrl+s")
	if !form.IsSubmitted() {
		t.Error("ctrl+s should submit")
	}
}

func TestForm_Cancel(t *testing.T) {
	form := NewForm("Edit Item").AddField(NewInput("Name"))
	form.HandleKey("esc")
	if !form.IsCancelled() {
		t.Error("esc should cancel")
	}
}

func TestForm_RenderResponsive(t *testing.T) {
	form := NewForm("Add Item").AddField(NewInput("Name").SetValue("Eggs"))
	form.SetError("threshold must be positive")

	wide := form.RenderResponsive(120)
	for _, want := range []string{"=== Add Item ===", "Name", "Eggs", "Shift+Tab", "threshold must be positive"} {
		if !strings.Contains(wide, want) {
			t.Errorf("wide form missing %q", want)
		}
	}

	if strings.Contains(form.RenderResponsive(50), "Shift+Tab") {
		t.Error("narrow form should use the compact help line")
	}
}
