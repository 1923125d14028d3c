package game

import "time"

// EndReason explains why a session ended.
type EndReason string

const (
	EndTimeUp   EndReason = "time_up"
	EndBankrupt EndReason = "bankrupt"
)

// Message is the reply shown when a turn ends the game without a character
// speaking.
func (r EndReason) Message() string {
	switch r {
	case EndTimeUp:
		return "Time's up! The mall is closing and you made it out with your wallet."
	default:
		return "You're flat broke. Security escorts you out of the mall."
	}
}

// Created is returned by CreateSession.
type Created struct {
	SessionID       string    `json:"sessionId"`
	CreatedAt       time.Time `json:"createdAt"`
	StartingBalance int       `json:"startingBalance"`
}

// TurnResult is the outcome of one AdvanceTurn call. CharacterName is the
// character that spoke this turn, even when the encounter resolved and the
// session already moved on to the next one.
type TurnResult struct {
	ReplyMessage      string    `json:"replyMessage"`
	Balance           int       `json:"balance"`
	ExpressionAssets  []string  `json:"expressionAssets"`
	EncounterResolved bool      `json:"encounterResolved"`
	GameOver          bool      `json:"gameOver"`
	EndReason         EndReason `json:"endReason,omitempty"`
	CharacterName     string    `json:"characterName"`
	DefeatedCount     int       `json:"defeatedCount"`
	Score             *int      `json:"score,omitempty"`
	ThreatLevel       int       `json:"threatLevel"`
	QuickActions      []string  `json:"quickActions"`
}

// TranscriptLine is one interaction as shown to the player.
type TranscriptLine struct {
	CharacterID       string    `json:"characterId"`
	CharacterName     string    `json:"characterName"`
	PlayerMessage     *string   `json:"playerMessage"`
	ReplyMessage      string    `json:"replyMessage"`
	BalanceAfter      int       `json:"balanceAfter"`
	ExpressionAssets  []string  `json:"expressionAssets"`
	EncounterResolved bool      `json:"encounterResolved"`
	At                time.Time `json:"at"`
}

// SessionState is a read-only projection of a session.
type SessionState struct {
	SessionID       string           `json:"sessionId"`
	OwnerID         string           `json:"ownerId"`
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"createdAt"`
	CharacterID     string           `json:"characterId"`
	CharacterName   string           `json:"characterName"`
	StartingBalance int              `json:"startingBalance"`
	Balance         int              `json:"balance"`
	ElapsedMs       int64            `json:"elapsedMs"`
	RemainingMs     int64            `json:"remainingMs"`
	ThreatLevel     int              `json:"threatLevel"`
	DefeatedCount   int              `json:"defeatedCount"`
	Transcript      []TranscriptLine `json:"transcript"`
}
