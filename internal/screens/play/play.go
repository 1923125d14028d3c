// Package play is the in-game screen: one timed session against the
// rotating cast of salespeople.
package play

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/dealbreaker/internal/game"
	"github.com/abhisek/dealbreaker/internal/leaderboard"
	"github.com/abhisek/dealbreaker/internal/router"
	"github.com/abhisek/dealbreaker/internal/screen"
	"github.com/abhisek/dealbreaker/internal/screens/summary"
	"github.com/abhisek/dealbreaker/internal/ui/components"
	"github.com/abhisek/dealbreaker/internal/ui/layout"
)

// maxTranscript is how many lines of conversation are kept on screen.
const maxTranscript = 200

// Deps are the services a game screen talks to.
type Deps struct {
	Game        *game.Service
	Leaderboard *leaderboard.Recorder
	OwnerID     string
	DisplayName string

	// Now defaults to time.Now.
	Now func() time.Time
}

type lineKind int

const (
	lineCharacter lineKind = iota
	linePlayer
	lineSystem
)

type line struct {
	kind    lineKind
	speaker string
	text    string
}

// PlayScreen implements screen.Screen for a running game.
type PlayScreen struct {
	deps  Deps
	input components.MessageInput

	sessionID string
	startedAt time.Time
	duration  time.Duration
	now       time.Time

	balance       int
	threat        int
	defeated      int
	characterName string
	quickActions  []string
	transcript    []line

	waiting bool
	over    bool
	errMsg  string
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)
var _ screen.StatusProvider = (*PlayScreen)(nil)

// New creates a PlayScreen. The session is created by Init.
func New(deps Deps) *PlayScreen {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg := deps.Game.Config()
	return &PlayScreen{
		deps:     deps,
		input:    components.NewMessageInput("Say something, or pick 1-3...", game.MaxMessageLength),
		duration: cfg.SessionDuration,
		balance:  cfg.StartingBalance,
		waiting:  true,
	}
}

func (s *PlayScreen) Init() tea.Cmd {
	return tea.Batch(s.createSession(), s.input.Init(), tickCmd())
}

func (s *PlayScreen) Title() string {
	if s.characterName == "" {
		return "The Mall"
	}
	return s.characterName
}

func (s *PlayScreen) Status() *layout.Status {
	if s.sessionID == "" {
		return nil
	}
	return &layout.Status{
		Balance:   s.balance,
		Remaining: s.remaining(),
		Threat:    s.threat,
	}
}

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{{Key: "Esc", Description: "Leave"}}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Say it"},
		{Key: "1-3", Description: "Quick reply"},
		{Key: "Esc", Description: "Walk out"},
	}
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionCreatedMsg:
		return s.handleCreated(msg)

	case turnDoneMsg:
		return s.handleTurn(msg)

	case timerTickMsg:
		return s.handleTick(time.Time(msg))

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *PlayScreen) createSession() tea.Cmd {
	svc, owner, name := s.deps.Game, s.deps.OwnerID, s.deps.DisplayName
	return func() tea.Msg {
		created, err := svc.CreateSession(context.Background(), owner, name)
		return sessionCreatedMsg{Created: created, Err: err}
	}
}

func (s *PlayScreen) takeTurn(message *string) tea.Cmd {
	s.waiting = true
	svc, id := s.deps.Game, s.sessionID
	return func() tea.Msg {
		res, err := svc.AdvanceTurn(context.Background(), id, message)
		return turnDoneMsg{Result: res, Err: err}
	}
}

func (s *PlayScreen) handleCreated(msg sessionCreatedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.waiting = false
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.sessionID = msg.Created.SessionID
	s.startedAt = msg.Created.CreatedAt
	s.balance = msg.Created.StartingBalance
	s.now = s.deps.Now()
	return s, s.takeTurn(nil)
}

func (s *PlayScreen) handleTurn(msg turnDoneMsg) (screen.Screen, tea.Cmd) {
	s.waiting = false
	if msg.Err != nil {
		if errors.Is(msg.Err, game.ErrBadRequest) {
			s.addLine(lineSystem, "", msg.Err.Error())
			return s, nil
		}
		s.errMsg = msg.Err.Error()
		return s, nil
	}

	res := msg.Result
	s.balance = res.Balance
	s.threat = res.ThreatLevel
	s.defeated = res.DefeatedCount
	s.characterName = res.CharacterName
	s.quickActions = res.QuickActions
	s.addLine(lineCharacter, res.CharacterName, res.ReplyMessage)

	if res.GameOver {
		s.over = true
		sum := summary.New(summary.Deps{
			Leaderboard: s.deps.Leaderboard,
			OwnerID:     s.deps.OwnerID,
			Result:      *res,
		})
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} }
	}

	if res.EncounterResolved {
		s.addLine(lineSystem, "", res.CharacterName+" gives up on you. Someone else is heading your way...")
		return s, s.takeTurn(nil)
	}
	return s, nil
}

func (s *PlayScreen) handleTick(t time.Time) (screen.Screen, tea.Cmd) {
	if s.over || s.errMsg != "" {
		return s, nil
	}
	s.now = t
	// The server ends the game on the first turn after time runs out.
	if s.sessionID != "" && !s.waiting && s.remaining() <= 0 {
		return s, tea.Batch(s.takeTurn(nil), tickCmd())
	}
	return s, tickCmd()
}

func (s *PlayScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.errMsg != "" || s.waiting || s.over {
		return s, nil
	}

	switch key {
	case "enter":
		text := s.input.Value()
		if text == "" {
			return s, nil
		}
		return s, s.say(text)
	case "1", "2", "3":
		if s.input.Value() == "" {
			i := int(key[0] - '1')
			if i < len(s.quickActions) {
				return s, s.say(s.quickActions[i])
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *PlayScreen) say(text string) tea.Cmd {
	s.input.Reset()
	s.addLine(linePlayer, "You", text)
	return s.takeTurn(&text)
}

func (s *PlayScreen) addLine(kind lineKind, speaker, text string) {
	s.transcript = append(s.transcript, line{kind: kind, speaker: speaker, text: strings.TrimSpace(text)})
	if len(s.transcript) > maxTranscript {
		s.transcript = s.transcript[len(s.transcript)-maxTranscript:]
	}
}

func (s *PlayScreen) remaining() time.Duration {
	if s.startedAt.IsZero() {
		return s.duration
	}
	return max(s.duration-s.now.Sub(s.startedAt), 0)
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}
