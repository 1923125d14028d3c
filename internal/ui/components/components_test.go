package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
)

func TestMenu_SkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Closed", Disabled: true},
		{Label: "Play"},
		{Label: "Also closed", Disabled: true},
		{Label: "Quit"},
	})
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 3, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 3, m.Selected, "stays on the last enabled item")

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 1, m.Selected)
}

func TestMenu_EnterRunsAction(t *testing.T) {
	ran := false
	m := NewMenu([]MenuItem{{Label: "Play", Action: func() tea.Cmd {
		ran = true
		return nil
	}}})

	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.True(t, ran)
	assert.Contains(t, m.View(), "Play")
}

func TestProgressBar_View(t *testing.T) {
	bar := NewProgressBar("Time", 0.5, "2:30", 40)
	view := bar.View()
	assert.Contains(t, view, "Time")
	assert.Contains(t, view, "2:30")
}

func TestMessageInput_Value(t *testing.T) {
	in := NewMessageInput("Say something...", 40)
	in.Model.SetValue("  no thanks  ")
	assert.Equal(t, "no thanks", in.Value())

	in.Reset()
	assert.Empty(t, in.Value())
}
