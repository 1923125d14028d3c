// Package leaderboard records final session results and serves the read
// projections over them.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/dealbreaker/internal/llm"
	"github.com/abhisek/dealbreaker/internal/store"
)

// AnonymousName is shown for owners that never set a display name.
const AnonymousName = "Anonymous Shopper"

// MaxDisplayNameLength is the longest accepted display name, in runes.
const MaxDisplayNameLength = 40

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ErrInvalidName is returned by SetDisplayName for blank or long names.
var ErrInvalidName = errors.New("invalid display name")

// Entry is a recorded result.
type Entry = store.LeaderboardEntry

// Result is the outcome of an ended session.
type Result struct {
	SessionID     string
	OwnerID       string
	Score         int
	DefeatedCount int
	FinalBalance  int
}

// Stats summarizes all recorded games.
type Stats struct {
	Games            int     `json:"games"`
	AverageScore     float64 `json:"averageScore"`
	LLMCalls         int     `json:"llmCalls"`
	EstimatedCostUSD float64 `json:"estimatedCostUsd"`
}

// Standing is an owner's latest entry and its rank among all entries.
type Standing struct {
	Entry *Entry `json:"entry"`
	Rank  int    `json:"rank"`
}

// Recorder writes at most one entry per session.
type Recorder struct {
	entries store.LeaderboardRepo
	players store.PlayerRepo
	events  store.EventRepo
}

// New creates a Recorder. events may be nil, in which case Stats reports no
// LLM usage.
func New(entries store.LeaderboardRepo, players store.PlayerRepo, events store.EventRepo) *Recorder {
	return &Recorder{entries: entries, players: players, events: events}
}

// RecordIfAbsent returns the session's existing entry unchanged, or inserts
// a new one. The check and the insert are separate statements; the unique
// session index turns a lost race into an error that is resolved by reading
// the winner's entry.
func (r *Recorder) RecordIfAbsent(ctx context.Context, res Result) (*Entry, error) {
	existing, err := r.entries.GetEntryBySession(ctx, res.SessionID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: lookup: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	e := &Entry{
		OwnerID:       res.OwnerID,
		SessionID:     res.SessionID,
		DisplayName:   r.displayName(ctx, res.OwnerID),
		Score:         res.Score,
		DefeatedCount: res.DefeatedCount,
		FinalBalance:  res.FinalBalance,
	}
	if err := r.entries.InsertEntry(ctx, e); err != nil {
		if winner, lookupErr := r.entries.GetEntryBySession(ctx, res.SessionID); lookupErr == nil && winner != nil {
			return winner, nil
		}
		return nil, fmt.Errorf("leaderboard: insert: %w", err)
	}
	return e, nil
}

func (r *Recorder) displayName(ctx context.Context, ownerID string) string {
	if r.players == nil {
		return AnonymousName
	}
	p, err := r.players.GetPlayer(ctx, ownerID)
	if err != nil || p == nil || strings.TrimSpace(p.DisplayName) == "" {
		return AnonymousName
	}
	return p.DisplayName
}

// SetDisplayName stores the name used for the owner's future entries.
func (r *Recorder) SetDisplayName(ctx context.Context, ownerID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, MaxDisplayNameLength)
	}
	if err := r.players.UpsertPlayer(ctx, &store.Player{OwnerID: ownerID, DisplayName: name}); err != nil {
		return fmt.Errorf("leaderboard: set display name: %w", err)
	}
	return nil
}

// Top returns the n best entries by score.
func (r *Recorder) Top(ctx context.Context, n int) ([]Entry, error) {
	list, err := r.entries.TopEntries(ctx, clampLimit(n))
	if err != nil {
		return nil, fmt.Errorf("leaderboard: top: %w", err)
	}
	return list, nil
}

// Recent returns the n newest entries.
func (r *Recorder) Recent(ctx context.Context, n int) ([]Entry, error) {
	list, err := r.entries.RecentEntries(ctx, clampLimit(n))
	if err != nil {
		return nil, fmt.Errorf("leaderboard: recent: %w", err)
	}
	return list, nil
}

// Stats returns the game count, the average score and the estimated model
// spend across all logged LLM calls.
func (r *Recorder) Stats(ctx context.Context) (Stats, error) {
	count, total, err := r.entries.ScoreSummary(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("leaderboard: stats: %w", err)
	}

	st := Stats{Games: count}
	if count > 0 {
		st.AverageScore = float64(total) / float64(count)
	}

	if r.events == nil {
		return st, nil
	}
	usage, err := r.events.LLMUsage(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("leaderboard: llm usage: %w", err)
	}
	for _, u := range usage {
		st.LLMCalls += u.Calls
		if c := llm.LookupCost(u.Model); c != nil {
			st.EstimatedCostUSD += c.Cost(int(u.InputTokens), int(u.OutputTokens))
		}
	}
	return st, nil
}

// Standing returns the owner's most recent entry and its rank, 1 plus the
// number of entries with a strictly higher score. An owner without entries
// gets a nil Entry and rank 0.
func (r *Recorder) Standing(ctx context.Context, ownerID string) (Standing, error) {
	latest, err := r.entries.LatestEntryForOwner(ctx, ownerID)
	if err != nil {
		return Standing{}, fmt.Errorf("leaderboard: standing: %w", err)
	}
	if latest == nil {
		return Standing{}, nil
	}
	better, err := r.entries.CountScoresAbove(ctx, latest.Score)
	if err != nil {
		return Standing{}, fmt.Errorf("leaderboard: rank: %w", err)
	}
	return Standing{Entry: latest, Rank: better + 1}, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}
