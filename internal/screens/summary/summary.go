// Package summary shows the result of a finished game.
package summary

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/dealbreaker/internal/game"
	"github.com/abhisek/dealbreaker/internal/leaderboard"
	"github.com/abhisek/dealbreaker/internal/router"
	"github.com/abhisek/dealbreaker/internal/screen"
	"github.com/abhisek/dealbreaker/internal/ui/layout"
	"github.com/abhisek/dealbreaker/internal/ui/theme"
)

// Deps holds what the summary needs. Leaderboard may be nil, in which case
// no rank is shown.
type Deps struct {
	Leaderboard *leaderboard.Recorder
	OwnerID     string
	Result      game.TurnResult
}

type standingLoadedMsg struct {
	Standing leaderboard.Standing
	Err      error
}

// SummaryScreen displays the end of a game.
type SummaryScreen struct {
	deps     Deps
	standing *leaderboard.Standing
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(deps Deps) *SummaryScreen {
	return &SummaryScreen{deps: deps}
}

func (s *SummaryScreen) Init() tea.Cmd {
	if s.deps.Leaderboard == nil {
		return nil
	}
	board, owner := s.deps.Leaderboard, s.deps.OwnerID
	return func() tea.Msg {
		st, err := board.Standing(context.Background(), owner)
		return standingLoadedMsg{Standing: st, Err: err}
	}
}

func (s *SummaryScreen) Title() string {
	return "Game Over"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case standingLoadedMsg:
		if msg.Err == nil && msg.Standing.Entry != nil {
			s.standing = &msg.Standing
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	res := s.deps.Result
	var b strings.Builder
	b.WriteString("\n\n")

	headline := "The mall is closing!"
	style := theme.Title
	if res.EndReason == game.EndBankrupt {
		headline = "Flat broke!"
		style = theme.Loss.Align(lipgloss.Center)
	}
	b.WriteString(layout.Centered(width, style, headline))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, theme.Hint, res.ReplyMessage))
	b.WriteString("\n\n")

	score := 0
	if res.Score != nil {
		score = *res.Score
	}
	stats := fmt.Sprintf("Wallet: %s        Beaten: %d        Score: %s",
		theme.Cash.Render(fmt.Sprintf("$%d", res.Balance)),
		res.DefeatedCount,
		theme.Win.Render(fmt.Sprint(score)),
	)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, stats))
	b.WriteString("\n\n")

	if s.standing != nil {
		b.WriteString(layout.Centered(width, theme.Subtitle,
			fmt.Sprintf("Leaderboard rank #%d as %s", s.standing.Rank, s.standing.Entry.DisplayName)))
		b.WriteString("\n")
	}
	return b.String()
}
