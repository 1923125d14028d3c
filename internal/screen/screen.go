package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/dealbreaker/internal/ui/layout"
)

// Screen is one page of the terminal client.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show live game status in
// the header.
type StatusProvider interface {
	Status() *layout.Status
}
