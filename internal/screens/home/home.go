// Package home is the title screen.
package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/dealbreaker/internal/router"
	"github.com/abhisek/dealbreaker/internal/screen"
	"github.com/abhisek/dealbreaker/internal/screens/play"
	"github.com/abhisek/dealbreaker/internal/screens/scores"
	"github.com/abhisek/dealbreaker/internal/ui/components"
)

type playerStats struct {
	loaded    bool
	lastScore *int
	rank      int
	games     int
}

type statsLoadedMsg struct {
	stats playerStats
}

// HomeScreen is the title menu.
type HomeScreen struct {
	deps     play.Deps
	canPlay  bool
	menu     components.Menu
	labels   []string
	disabled map[int]bool
	stats    playerStats
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a HomeScreen. canPlay is false when no oracle is configured;
// the start button is then disabled.
func New(deps play.Deps, canPlay bool) *HomeScreen {
	labels := []string{"START SHOPPING", "LEADERBOARD", "EXIT"}
	items := []components.MenuItem{
		{Label: labels[0], Disabled: !canPlay, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: play.New(deps)}
			}
		}},
		{Label: labels[1], Disabled: deps.Leaderboard == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: scores.New(deps.Leaderboard)}
			}
		}},
		{Label: labels[2], Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	disabled := map[int]bool{}
	for i, it := range items {
		if it.Disabled {
			disabled[i] = true
		}
	}

	return &HomeScreen{
		deps:     deps,
		canPlay:  canPlay,
		menu:     components.NewMenu(items),
		labels:   labels,
		disabled: disabled,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) loadStats() tea.Cmd {
	board, owner := h.deps.Leaderboard, h.deps.OwnerID
	if board == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		ps := playerStats{loaded: true}
		if st, err := board.Standing(ctx, owner); err == nil && st.Entry != nil {
			score := st.Entry.Score
			ps.lastScore = &score
			ps.rank = st.Rank
		}
		if all, err := board.Stats(ctx); err == nil {
			ps.games = all.Games
		}
		return statsLoadedMsg{stats: ps}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		h.stats = msg.stats
		return h, nil
	case router.ScreenResumedMsg:
		// Refresh after a game or a trip to the leaderboard.
		return h, h.loadStats()
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	termHeight := height + 8
	compact := termHeight < 30 || width < 100
	cw := contentWidth(width)

	sections := []string{renderMarquee(cw, compact)}
	if h.deps.Leaderboard != nil {
		sections = append(sections, renderStatsBar(h.stats, cw, compact))
	}
	if compact {
		sections = append(sections, renderButtonsCompact(h.labels, h.menu.Selected, cw, h.disabled))
	} else {
		sections = append(sections, renderButtons(h.labels, h.menu.Selected, cw, h.disabled))
	}
	if !h.canPlay {
		sections = append(sections, renderNoOracleBanner(cw))
	}

	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
