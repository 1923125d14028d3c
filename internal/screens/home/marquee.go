package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/dealbreaker/internal/ui/theme"
)

const marqueeFull = `╔╦╗╔═╗╔═╗╦    ╔╗ ╦═╗╔═╗╔═╗╦╔═╔═╗╦═╗
 ║║║╣ ╠═╣║    ╠╩╗╠╦╝║╣ ╠═╣╠╩╗║╣ ╠╦╝
═╩╝╚═╝╩ ╩╩═╝  ╚═╝╩╚═╚═╝╩ ╩╩ ╩╚═╝╩╚═`

const marqueeCompact = "D E A L B R E A K E R"

const tagline = "Keep your wallet. Beat the mall."

// contentWidth returns the shared inner width of every section.
func contentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderMarquee(cw int, compact bool) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	art := marqueeFull
	if compact {
		art = marqueeCompact
	}
	block := style.Render(art) + "\n" + theme.Hint.Render(tagline)
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(block)
}

// renderStatsBar shows the player's last result and how busy the mall is.
func renderStatsBar(p playerStats, cw int, compact bool) string {
	cash := lipgloss.NewStyle().Foreground(theme.Money).Bold(true)
	rank := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var parts []string
	switch {
	case !p.loaded:
		parts = append(parts, dim.Render("…"))
	case p.lastScore == nil:
		parts = append(parts, dim.Render("NO GAMES YET"))
	case compact:
		parts = append(parts,
			cash.Render(fmt.Sprintf("★%d", *p.lastScore)),
			rank.Render(fmt.Sprintf("#%d", p.rank)))
	default:
		parts = append(parts,
			cash.Render(fmt.Sprintf("★ LAST SCORE %d", *p.lastScore)),
			rank.Render(fmt.Sprintf("RANK #%d", p.rank)))
	}
	if p.loaded && !compact {
		parts = append(parts, dim.Render(fmt.Sprintf("%d GAMES", p.games)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw-2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(strings.Join(parts, "  "))
}

const buttonWidth = 22

func renderButtons(labels []string, selected, cw int, disabled map[int]bool) string {
	base := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)
	selectedBtn := base.
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Primary).
		BorderForeground(theme.Primary)

	var buttons []string
	for i, label := range labels {
		switch {
		case disabled[i]:
			buttons = append(buttons, base.Foreground(theme.TextDim).Render(label))
		case i == selected:
			buttons = append(buttons, selectedBtn.Render("▸ "+label))
		default:
			buttons = append(buttons, base.Foreground(theme.Text).Render(label))
		}
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(buttons, "\n"))
}

// renderButtonsCompact drops the borders for very small terminals.
func renderButtonsCompact(labels []string, selected, cw int, disabled map[int]bool) string {
	var lines []string
	for i, label := range labels {
		switch {
		case disabled[i]:
			lines = append(lines, lipgloss.NewStyle().Foreground(theme.TextDim).Render("   "+label))
		case i == selected:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.BgDark).
				Background(theme.Primary).
				Bold(true).
				Render(" ▸ "+label+" "))
		default:
			lines = append(lines, lipgloss.NewStyle().Foreground(theme.Text).Render("   "+label))
		}
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
}

func renderNoOracleBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Money).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ Set an LLM API key to start shopping (see dealbreaker --help)")
}

func renderFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width-2).
		Height(height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
