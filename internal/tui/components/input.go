package components

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultLabelWidth = 16
	compactFormWidth  = 80
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	focusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#006600"))
)

// Input is a single-line text input. The cursor counts runes, so item
// names with accents edit correctly.
type Input struct {
	label       string
	value       []rune
	placeholder string
	width       int
	focused     bool
	cursorPos   int
	maxLength   int
	required    bool
	numeric     bool
	err         string
}

// NewInput creates a new input field.
func NewInput(label string) *Input {
	return &Input{
		label:     label,
		width:     20,
		maxLength: 100,
	}
}

// SetValue sets the input value.
func (i *Input) SetValue(v string) *Input {
	i.value = []rune(v)
	i.cursorPos = len(i.value)
	return i
}

// SetPlaceholder sets the placeholder text.
func (i *Input) SetPlaceholder(p string) *Input {
	i.placeholder = p
	return i
}

// SetWidth sets the input width.
func (i *Input) SetWidth(w int) *Input {
	i.width = w
	return i
}

// SetMaxLength sets the maximum input length.
func (i *Input) SetMaxLength(m int) *Input {
	i.maxLength = m
	return i
}

// SetRequired marks the field as required.
func (i *Input) SetRequired(r bool) *Input {
	i.required = r
	return i
}

// SetNumeric restricts input to digits.
func (i *Input) SetNumeric(n bool) *Input {
	i.numeric = n
	return i
}

// SetError sets an error message.
func (i *Input) SetError(e string) *Input {
	i.err = e
	return i
}

// Error returns the current error message.
func (i *Input) Error() string {
	return i.err
}

// Label returns the field label.
func (i *Input) Label() string {
	return i.label
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
	if focused && i.cursorPos > len(i.value) {
		i.cursorPos = len(i.value)
	}
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the current value.
func (i *Input) Value() string {
	return string(i.value)
}

// Int parses a numeric field. Empty parses as zero.
func (i *Input) Int() (int, error) {
	s := strings.TrimSpace(i.Value())
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// HandleKey handles a key press.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			i.value = append(i.value[:i.cursorPos-1], i.value[i.cursorPos:]...)
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(i.value) {
			i.value = append(i.value[:i.cursorPos], i.value[i.cursorPos+1:]...)
		}
	case "left":
		if i.cursorPos > 0 {
			i.cursorPos--
		}
	case "right":
		if i.cursorPos < len(i.value) {
			i.cursorPos++
		}
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(i.value)
	default:
		r := []rune(key)
		if len(r) != 1 || len(i.value) >= i.maxLength || !unicode.IsPrint(r[0]) {
			return
		}
		if i.numeric && !unicode.IsDigit(r[0]) {
			return
		}
		next := make([]rune, 0, len(i.value)+1)
		next = append(next, i.value[:i.cursorPos]...)
		next = append(next, r[0])
		next = append(next, i.value[i.cursorPos:]...)
		i.value = next
		i.cursorPos++
	}
}

// Validate validates the input.
func (i *Input) Validate() bool {
	if i.required && strings.TrimSpace(i.Value()) == "" {
		i.err = "Required"
		return false
	}
	if i.numeric {
		if _, err := i.Int(); err != nil {
			i.err = "Must be a number"
			return false
		}
	}
	i.err = ""
	return true
}

// Render renders the input field with the default label width.
func (i *Input) Render() string {
	return i.RenderWithLabelWidth(defaultLabelWidth)
}

// RenderWithLabelWidth renders the field with a fixed label column. A
// width of zero hides the label.
func (i *Input) RenderWithLabelWidth(labelWidth int) string {
	var display string
	switch {
	case len(i.value) == 0 && i.placeholder != "" && !i.focused:
		display = mutedStyle.Render(i.placeholder)
	case i.focused:
		before := string(i.value[:i.cursorPos])
		after := string(i.value[i.cursorPos:])
		display = focusStyle.Render(before + "_" + after)
	default:
		display = valueStyle.Render(i.Value())
	}

	if w := lipgloss.Width(display); w < i.width {
		display += strings.Repeat(" ", i.width-w)
	}

	result := display
	if labelWidth > 0 {
		result = labelStyle.Width(labelWidth).Render(i.labelText()) + " " + display
	}

	if i.err != "" {
		result += " " + errStyle.Render(i.err)
	}

	return result
}

func (i *Input) labelText() string {
	label := i.label
	if i.required {
		label += "*"
	}
	return label + ":"
}

// Select is a selection input component.
type Select struct {
	label    string
	options  []string
	selected int
	focused  bool
}

// NewSelect creates a new select input.
func NewSelect(label string, options []string) *Select {
	return &Select{
		label:   label,
		options: options,
	}
}

// SetSelected sets the selected index.
func (s *Select) SetSelected(idx int) *Select {
	if idx >= 0 && idx < len(s.options) {
		s.selected = idx
	}
	return s
}

// SetValue selects the option equal to v, if present.
func (s *Select) SetValue(v string) *Select {
	for i, opt := range s.options {
		if opt == v {
			s.selected = i
		}
	}
	return s
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Label returns the field label.
func (s *Select) Label() string {
	return s.label
}

// Value returns the selected value.
func (s *Select) Value() string {
	if s.selected >= 0 && s.selected < len(s.options) {
		return s.options[s.selected]
	}
	return ""
}

// SelectedIndex returns the selected index.
func (s *Select) SelectedIndex() int {
	return s.selected
}

// HandleKey handles a key press.
func (s *Select) HandleKey(key string) {
	if !s.focused {
		return
	}

	switch key {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "right", "l":
		if s.selected < len(s.options)-1 {
			s.selected++
		}
	}
}

// Render renders the select with the default label width.
func (s *Select) Render() string {
	return s.RenderWithLabelWidth(defaultLabelWidth)
}

// RenderWithLabelWidth renders the select with a fixed label column. A
// width of zero hides the label.
func (s *Select) RenderWithLabelWidth(labelWidth int) string {
	selStyle := valueStyle.Bold(true)

	var b strings.Builder
	if labelWidth > 0 {
		b.WriteString(labelStyle.Width(labelWidth).Render(s.label + ":"))
		b.WriteString(" ")
	}

	for i, opt := range s.options {
		if i > 0 {
			b.WriteString(" ")
		}

		switch {
		case i == s.selected && s.focused:
			b.WriteString(selStyle.Render("[" + opt + "]"))
		case i == s.selected:
			b.WriteString(selStyle.Render("(" + opt + ")"))
		default:
			b.WriteString(labelStyle.Render(" " + opt + " "))
		}
	}

	return b.String()
}

// FormField is a focusable form control.
type FormField interface {
	Label() string
	Focus(bool)
	IsFocused() bool
	HandleKey(string)
	RenderWithLabelWidth(int) string
}

var (
	_ FormField = (*Input)(nil)
	_ FormField = (*Select)(nil)
)

// Form is a simple form container.
type Form struct {
	title      string
	fields     []FormField
	focusIndex int
	submitted  bool
	cancelled  bool
	err        string
}

// NewForm creates a new form.
func NewForm(title string) *Form {
	return &Form{
		title: title,
	}
}

// AddField adds a field to the form.
func (f *Form) AddField(field FormField) *Form {
	f.fields = append(f.fields, field)
	if len(f.fields) == 1 {
		field.Focus(true)
	}
	return f
}

// HandleKey handles form navigation.
func (f *Form) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.nextField()
	case "shift+tab", "up":
		f.prevField()
	case "ctrl+s":
		f.submitted = true
	case "esc":
		f.cancelled = true
	case "enter":
		if f.focusIndex == len(f.fields)-1 {
			f.submitted = true
		} else {
			f.nextField()
		}
	default:
		if f.focusIndex < len(f.fields) {
			f.fields[f.focusIndex].HandleKey(key)
		}
	}
}

func (f *Form) nextField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex = (f.focusIndex + 1) % len(f.fields)
	f.fields[f.focusIndex].Focus(true)
}

func (f *Form) prevField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex--
	if f.focusIndex < 0 {
		f.focusIndex = len(f.fields) - 1
	}
	f.fields[f.focusIndex].Focus(true)
}

// IsSubmitted returns true if form was submitted.
func (f *Form) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if form was cancelled.
func (f *Form) IsCancelled() bool {
	return f.cancelled
}

// Reopen clears the submitted flag so a rejected form can be edited again.
func (f *Form) Reopen() {
	f.submitted = false
}

// SetError sets an error message.
func (f *Form) SetError(err string) {
	f.err = err
}

// Render renders the form at full width.
func (f *Form) Render() string {
	return f.RenderResponsive(0)
}

// RenderResponsive renders the form for a terminal width. Narrow terminals
// get a shorter help line. Zero means unconstrained.
func (f *Form) RenderResponsive(width int) string {
	titleStyle := focusStyle.Bold(true)

	labelWidth := 0
	for _, field := range f.fields {
		if w := lipgloss.Width(field.Label()) + 2; w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("=== %s ===", f.title)))
	b.WriteString("\n\n")

	for _, field := range f.fields {
		b.WriteString(field.RenderWithLabelWidth(labelWidth))
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("Error: " + f.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if width > 0 && width < compactFormWidth {
		b.WriteString(labelStyle.Render("Tab:Next  ^S:Save  Esc:Cancel"))
	} else {
		b.WriteString(labelStyle.Render("Tab/Down:Next  Shift+Tab/Up:Prev  Ctrl+S:Save  Esc:Cancel"))
	}

	return b.String()
}
