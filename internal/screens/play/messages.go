package play

import (
	"time"

	"github.com/abhisek/dealbreaker/internal/game"
)

// sessionCreatedMsg is sent once the server-side session exists.
type sessionCreatedMsg struct {
	Created *game.Created
	Err     error
}

// turnDoneMsg carries the result of one AdvanceTurn call.
type turnDoneMsg struct {
	Result *game.TurnResult
	Err    error
}

// timerTickMsg is sent every second to update the countdown.
type timerTickMsg time.Time
