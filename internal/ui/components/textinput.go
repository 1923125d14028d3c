package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// MessageInput wraps bubbles/textinput for free-text player messages.
type MessageInput struct {
	Model textinput.Model
}

// NewMessageInput creates a focused input that accepts at most limit runes.
func NewMessageInput(placeholder string, limit int) MessageInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return MessageInput{Model: ti}
}

// Init returns the initial command.
func (t MessageInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t MessageInput) Update(msg tea.Msg) (MessageInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t MessageInput) View() string {
	return t.Model.View()
}

// Value returns the trimmed input.
func (t MessageInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// SetWidth sets the visible width of the input.
func (t *MessageInput) SetWidth(w int) {
	t.Model.SetWidth(w)
}

// Reset clears the input.
func (t *MessageInput) Reset() {
	t.Model.Reset()
}
