package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/dealbreaker/internal/ui/components"
	"github.com/abhisek/dealbreaker/internal/ui/layout"
	"github.com/abhisek/dealbreaker/internal/ui/theme"
)

func (s *PlayScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Danger),
			fmt.Sprintf("\n\n\n  Error: %s\n\n  Press Esc to go back.", s.errMsg))
	}
	if s.sessionID == "" {
		return layout.Centered(width, theme.Hint, "\n\n\n  Opening the mall doors...")
	}

	inner := max(width-4, 20)

	var top strings.Builder
	frac := 0.0
	if s.duration > 0 {
		frac = float64(s.remaining()) / float64(s.duration)
	}
	top.WriteString("  ")
	top.WriteString(components.NewProgressBar("Time", frac, layout.FormatClock(s.remaining()), inner).View())
	top.WriteString("\n  ")
	top.WriteString(theme.Hint.Render(fmt.Sprintf("Salespeople beaten: %d", s.defeated)))
	top.WriteString("\n")

	var bottom strings.Builder
	bottom.WriteString("\n")
	bottom.WriteString(s.renderQuickActions(inner))
	bottom.WriteString("\n\n  ")
	if s.waiting {
		bottom.WriteString(theme.Hint.Render("..."))
	} else {
		s.input.SetWidth(inner - 4)
		bottom.WriteString(s.input.View())
	}

	avail := height - lipgloss.Height(top.String()) - lipgloss.Height(bottom.String())
	return top.String() + s.renderTranscript(inner, avail) + bottom.String()
}

// renderTranscript renders the newest lines that fit in height rows.
func (s *PlayScreen) renderTranscript(width, height int) string {
	if height <= 0 {
		return ""
	}

	var rendered []string
	for i := len(s.transcript) - 1; i >= 0; i-- {
		block := renderLine(s.transcript[i], width)
		rendered = append([]string{block}, rendered...)
		if lipgloss.Height(strings.Join(rendered, "\n")) > height {
			rendered = rendered[1:]
			break
		}
	}

	body := strings.Join(rendered, "\n")
	return lipgloss.NewStyle().Height(height).Render(body)
}

func renderLine(l line, width int) string {
	wrap := lipgloss.NewStyle().Width(width).PaddingLeft(2)
	switch l.kind {
	case linePlayer:
		return wrap.Render(theme.Player.Render(l.speaker+": ") + theme.Body.Render(l.text))
	case lineSystem:
		return wrap.Render(theme.Hint.Render(l.text))
	default:
		return wrap.Render(theme.Speaker.Render(l.speaker+": ") + theme.Body.Render(l.text))
	}
}

func (s *PlayScreen) renderQuickActions(width int) string {
	if len(s.quickActions) == 0 || s.waiting {
		return ""
	}
	parts := make([]string, 0, len(s.quickActions))
	for i, a := range s.quickActions {
		parts = append(parts, theme.QuickAction.Render(fmt.Sprintf("%d %s", i+1, a)))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if lipgloss.Width(row) > width {
		row = lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(row)
}
