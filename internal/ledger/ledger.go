// Package ledger derives a session's balance, progress and transcript from
// its append-only interaction log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/dealbreaker/internal/store"
)

// Interaction is a stored exchange.
type Interaction = store.Interaction

// ErrInvalidRecord is returned for records that would break the balance
// invariants. It indicates a bug in the caller.
var ErrInvalidRecord = errors.New("invalid interaction record")

// Record is the caller-supplied part of a new interaction. Sequence and
// timestamp are always assigned by the ledger.
type Record struct {
	CharacterID       string
	CharacterName     string
	PlayerMessage     *string
	ReplyMessage      string
	BalanceBefore     int
	BalanceAfter      int
	ExpressionAssets  []string
	EncounterResolved bool
}

// Ledger reads and appends interactions.
type Ledger struct {
	interactions    store.InteractionRepo
	startingBalance int
	now             func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides time.Now for elapsed time computation.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger. startingBalance is the balance of a session with no
// interactions.
func New(repo store.InteractionRepo, startingBalance int, opts ...Option) *Ledger {
	l := &Ledger{
		interactions:    repo,
		startingBalance: startingBalance,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StartingBalance returns the balance every session starts with.
func (l *Ledger) StartingBalance() int {
	return l.startingBalance
}

// CurrentBalance returns the latest interaction's balanceAfter, or the
// starting balance when the session has none.
func (l *Ledger) CurrentBalance(ctx context.Context, sessionID string) (int, error) {
	last, err := l.LastInteraction(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return l.startingBalance, nil
	}
	return last.BalanceAfter, nil
}

// LastInteraction returns the most recent interaction, or nil.
func (l *Ledger) LastInteraction(ctx context.Context, sessionID string) (*Interaction, error) {
	last, err := l.interactions.LatestInteraction(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ledger: latest interaction: %w", err)
	}
	return last, nil
}

// HistoryForCharacter returns the session's interactions with one character,
// oldest first.
func (l *Ledger) HistoryForCharacter(ctx context.Context, sessionID, characterID string) ([]Interaction, error) {
	list, err := l.interactions.ListInteractions(ctx, sessionID, characterID)
	if err != nil {
		return nil, fmt.Errorf("ledger: character history: %w", err)
	}
	return list, nil
}

// History returns the whole transcript, oldest first.
func (l *Ledger) History(ctx context.Context, sessionID string) ([]Interaction, error) {
	list, err := l.interactions.ListInteractions(ctx, sessionID, "")
	if err != nil {
		return nil, fmt.Errorf("ledger: history: %w", err)
	}
	return list, nil
}

// AppendInteraction writes a new interaction in a single insert.
func (l *Ledger) AppendInteraction(ctx context.Context, sessionID string, rec Record) (*Interaction, error) {
	if err := rec.validate(); err != nil {
		return nil, err
	}

	in := &Interaction{
		SessionID:         sessionID,
		CharacterID:       rec.CharacterID,
		CharacterName:     rec.CharacterName,
		PlayerMessage:     rec.PlayerMessage,
		ReplyMessage:      rec.ReplyMessage,
		BalanceBefore:     rec.BalanceBefore,
		BalanceAfter:      rec.BalanceAfter,
		ExpressionAssets:  rec.ExpressionAssets,
		EncounterResolved: rec.EncounterResolved,
	}
	if err := l.interactions.AppendInteraction(ctx, in); err != nil {
		return nil, fmt.Errorf("ledger: append: %w", err)
	}
	return in, nil
}

// DefeatedCount is the number of distinct characters with a resolved
// interaction. Resolving the same character twice counts once.
func (l *Ledger) DefeatedCount(ctx context.Context, sessionID string) (int, error) {
	ids, err := l.interactions.ResolvedCharacterIDs(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("ledger: defeated count: %w", err)
	}
	return len(ids), nil
}

// ElapsedSince returns the wall-clock time since the session was created.
func (l *Ledger) ElapsedSince(s *store.Session) time.Duration {
	return l.now().Sub(s.CreatedAt)
}

func (r Record) validate() error {
	switch {
	case r.CharacterID == "":
		return fmt.Errorf("%w: missing character id", ErrInvalidRecord)
	case strings.TrimSpace(r.ReplyMessage) == "":
		return fmt.Errorf("%w: empty reply", ErrInvalidRecord)
	case r.BalanceAfter < 0:
		return fmt.Errorf("%w: negative balance %d", ErrInvalidRecord, r.BalanceAfter)
	case r.BalanceAfter > r.BalanceBefore:
		return fmt.Errorf("%w: balance rose from %d to %d", ErrInvalidRecord, r.BalanceBefore, r.BalanceAfter)
	}
	return nil
}
