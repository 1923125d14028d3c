package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/dealbreaker/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
	got     []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}

func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.got = append(s.got, msg)
	return s, nil
}

func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

type pingMsg struct{}

func TestPushAndPop(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)

	game := &stubScreen{title: "game"}
	r.Update(PushScreenMsg{Screen: game})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "game", r.Active().Title())
	assert.True(t, game.initRan)

	cmd := r.Update(PopScreenMsg{})
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, "home", r.Active().Title())
	if assert.NotNil(t, cmd) {
		r.Update(cmd())
		assert.Equal(t, []tea.Msg{ScreenResumedMsg{}}, home.got)
	}

	r.Update(PopScreenMsg{})
	assert.Equal(t, 1, r.Depth(), "root is never popped")
}

func TestReplace(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Push(&stubScreen{title: "game"})

	summary := &stubScreen{title: "summary"}
	r.Update(ReplaceScreenMsg{Screen: summary})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "summary", r.Active().Title())
	assert.True(t, summary.initRan)

	r.Update(PopScreenMsg{})
	assert.Equal(t, "home", r.Active().Title())
}

func TestReplaceAtRootPushes(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Replace(&stubScreen{title: "other"})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "other", r.Active().Title())
}

func TestPopToRoot(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Push(&stubScreen{title: "a"})
	r.Push(&stubScreen{title: "b"})

	r.Update(PopToRootMsg{})
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, "home", r.View(80, 24))
}

func TestUpdateForwardsToActive(t *testing.T) {
	home := &stubScreen{title: "home"}
	game := &stubScreen{title: "game"}
	r := New(home)
	r.Push(game)

	r.Update(pingMsg{})
	assert.Len(t, game.got, 1)
	assert.Empty(t, home.got)
}
