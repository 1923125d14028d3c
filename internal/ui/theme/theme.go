package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: late-night shopping mall neon.
var (
	Primary   = lipgloss.Color("#EC4899") // Neon Pink
	Secondary = lipgloss.Color("#22D3EE") // Cyan
	Money     = lipgloss.Color("#FACC15") // Gold
	Success   = lipgloss.Color("#4ADE80") // Green
	Danger    = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#111827") // Night
	BgCard    = lipgloss.Color("#1F2937") // Storefront
	Border    = lipgloss.Color("#374151") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Conversation
var (
	Speaker = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Player = lipgloss.NewStyle().
		Foreground(TextDim)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Cash = lipgloss.NewStyle().
		Foreground(Money).
		Bold(true)

	Loss = lipgloss.NewStyle().
		Foreground(Danger).
		Bold(true)

	Win = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressLow = lipgloss.NewStyle().
			Background(Danger)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	QuickAction = lipgloss.NewStyle().
			Foreground(Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)
)
