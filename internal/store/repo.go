package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// Session is one timed game. Balance is never stored here; it is derived
// from the session's interactions.
type Session struct {
	ID                 string
	OwnerID            string
	CreatedAt          time.Time
	CurrentCharacterID string
	Active             bool
	ThreatLevel        int
}

// Interaction is one exchange with a character. Rows are append-only.
type Interaction struct {
	ID                string
	SessionID         string
	CharacterID       string
	CharacterName     string
	Sequence          int64
	Timestamp         time.Time
	PlayerMessage     *string
	ReplyMessage      string
	BalanceBefore     int
	BalanceAfter      int
	ExpressionAssets  []string
	EncounterResolved bool
}

// LeaderboardEntry is the recorded result of an ended session.
type LeaderboardEntry struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	SessionID     string    `json:"sessionId"`
	DisplayName   string    `json:"displayName"`
	Score         int       `json:"score"`
	DefeatedCount int       `json:"defeatedCount"`
	FinalBalance  int       `json:"finalBalance"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Player maps an owner id to a display name.
type Player struct {
	OwnerID     string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionRepo manages game sessions. Get methods return (nil, nil) when the
// row does not exist.
type SessionRepo interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)

	// DeactivateSession flips active to false. It reports whether this call
	// performed the transition.
	DeactivateSession(ctx context.Context, id string) (bool, error)

	// IncrementThreat adds one to the threat level of an active session and
	// returns the stored level.
	IncrementThreat(ctx context.Context, id string) (int, error)

	SetCurrentCharacter(ctx context.Context, id, characterID string) error
}

// InteractionRepo manages the append-only interaction log.
type InteractionRepo interface {
	// AppendInteraction assigns ID, Sequence and Timestamp and inserts the row.
	AppendInteraction(ctx context.Context, in *Interaction) error

	// LatestInteraction returns the interaction with the highest sequence,
	// or nil if the session has none.
	LatestInteraction(ctx context.Context, sessionID string) (*Interaction, error)

	// ListInteractions returns interactions ascending by sequence. An empty
	// characterID returns the whole session.
	ListInteractions(ctx context.Context, sessionID, characterID string) ([]Interaction, error)

	// ResolvedCharacterIDs returns the distinct character ids that have at
	// least one resolved interaction in the session.
	ResolvedCharacterIDs(ctx context.Context, sessionID string) ([]string, error)
}

// LeaderboardRepo stores final session results.
type LeaderboardRepo interface {
	GetEntryBySession(ctx context.Context, sessionID string) (*LeaderboardEntry, error)

	// InsertEntry assigns ID and CreatedAt when unset.
	InsertEntry(ctx context.Context, e *LeaderboardEntry) error

	// TopEntries orders by score descending, then oldest first.
	TopEntries(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	RecentEntries(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	LatestEntryForOwner(ctx context.Context, ownerID string) (*LeaderboardEntry, error)

	// ScoreSummary returns the entry count and the sum of all scores.
	ScoreSummary(ctx context.Context) (count int, total int64, err error)

	// CountScoresAbove counts entries with a score strictly greater than score.
	CountScoresAbove(ctx context.Context, score int) (int, error)
}

// PlayerRepo stores display names.
type PlayerRepo interface {
	UpsertPlayer(ctx context.Context, p *Player) error
	GetPlayer(ctx context.Context, ownerID string) (*Player, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one (provider, model, purpose) group.
type LLMUsage struct {
	Provider     string
	Model        string
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int64
	OutputTokens int64
	LatencyMs    int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMRequests returns events newest first.
	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMRequest returns (nil, nil) for an unknown id.
	GetLLMRequest(ctx context.Context, id int64) (*LLMRequestEvent, error)

	LLMUsage(ctx context.Context) ([]LLMUsage, error)
}
