// Package scores browses the leaderboard.
package scores

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/dealbreaker/internal/leaderboard"
	"github.com/abhisek/dealbreaker/internal/router"
	"github.com/abhisek/dealbreaker/internal/screen"
	"github.com/abhisek/dealbreaker/internal/ui/layout"
	"github.com/abhisek/dealbreaker/internal/ui/theme"
)

const pageSize = 15

type view int

const (
	viewTop view = iota
	viewRecent
)

type scoresLoadedMsg struct {
	View    view
	Entries []leaderboard.Entry
	Stats   leaderboard.Stats
	Err     error
}

// ScoresScreen shows the best or the newest leaderboard entries.
type ScoresScreen struct {
	board   *leaderboard.Recorder
	view    view
	entries []leaderboard.Entry
	stats   leaderboard.Stats
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*ScoresScreen)(nil)
var _ screen.KeyHintProvider = (*ScoresScreen)(nil)

// New creates a new ScoresScreen.
func New(board *leaderboard.Recorder) *ScoresScreen {
	return &ScoresScreen{board: board}
}

func (s *ScoresScreen) Init() tea.Cmd {
	return s.load(s.view)
}

func (s *ScoresScreen) load(v view) tea.Cmd {
	board := s.board
	return func() tea.Msg {
		ctx := context.Background()

		var (
			entries []leaderboard.Entry
			err     error
		)
		if v == viewRecent {
			entries, err = board.Recent(ctx, pageSize)
		} else {
			entries, err = board.Top(ctx, pageSize)
		}
		if err != nil {
			return scoresLoadedMsg{View: v, Err: err}
		}

		stats, err := board.Stats(ctx)
		return scoresLoadedMsg{View: v, Entries: entries, Stats: stats, Err: err}
	}
}

func (s *ScoresScreen) Title() string {
	if s.view == viewRecent {
		return "Recent Games"
	}
	return "Leaderboard"
}

func (s *ScoresScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Top / Recent"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ScoresScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case scoresLoadedMsg:
		if msg.View != s.view {
			return s, nil
		}
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.entries = msg.Entries
		s.stats = msg.Stats
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab":
			if s.view == viewTop {
				s.view = viewRecent
			} else {
				s.view = viewTop
			}
			s.loaded = false
			return s, s.load(s.view)
		}
	}
	return s, nil
}

func (s *ScoresScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Danger),
			fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return layout.Centered(width, theme.Hint, "\n\n  Loading scores...")
	}
	if len(s.entries) == 0 {
		return layout.Centered(width, theme.Hint, "\n\n  No games yet. Go get fleeced!")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Subtitle, fmt.Sprintf(
		"%d games  ·  average score %.0f  ·  %d model calls (~$%.4f)",
		s.stats.Games, s.stats.AverageScore, s.stats.LLMCalls, s.stats.EstimatedCostUSD)))
	b.WriteString("\n\n")

	header := fmt.Sprintf("%-4s %-24s %7s %7s %8s  %s", "#", "Player", "Score", "Beaten", "Wallet", "Date")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(header)))
	b.WriteString("\n")

	for i, e := range s.entries {
		row := fmt.Sprintf("%-4d %-24s %7d %7d %8s  %s",
			i+1,
			truncate(e.DisplayName, 24),
			e.Score,
			e.DefeatedCount,
			fmt.Sprintf("$%d", e.FinalBalance),
			e.CreatedAt.Local().Format("Jan 02 15:04"),
		)
		style := theme.Body
		if i == 0 && s.view == viewTop {
			style = theme.Cash
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(row)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
