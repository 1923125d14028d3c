// Package game runs timed sessions: it validates each turn, asks the oracle
// for the character's reply, records it in the ledger and decides when an
// encounter and the whole game are over.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/abhisek/dealbreaker/internal/characters"
	"github.com/abhisek/dealbreaker/internal/leaderboard"
	"github.com/abhisek/dealbreaker/internal/ledger"
	"github.com/abhisek/dealbreaker/internal/oracle"
	"github.com/abhisek/dealbreaker/internal/store"
)

// MaxMessageLength is the longest accepted player message, in runes.
const MaxMessageLength = 500

// Config holds the game rules.
type Config struct {
	StartingBalance int
	SessionDuration time.Duration
}

// DefaultConfig returns the standard rules: $100 and five minutes.
func DefaultConfig() Config {
	return Config{
		StartingBalance: 100,
		SessionDuration: 5 * time.Minute,
	}
}

// Deps are the handles a Service works with. Sessions and Ledger are
// required; a nil Oracle makes turns fail with ErrServiceUnavailable.
type Deps struct {
	Sessions    store.SessionRepo
	Ledger      *ledger.Ledger
	Characters  characters.Registry
	Oracle      oracle.Oracle
	Leaderboard *leaderboard.Recorder
	Logger      *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// Rand picks the opening character. Nil uses the global source.
	Rand *rand.Rand
}

// Service is the game state machine.
type Service struct {
	deps   Deps
	config Config
	logger *slog.Logger

	randMu sync.Mutex

	// turnLocks serializes turns per session within this process. An entry
	// lives only while a turn holds or waits for it.
	locksMu   sync.Mutex
	turnLocks map[string]*turnLock
}

type turnLock struct {
	mu      sync.Mutex
	holders int
}

// NewService creates a Service.
func NewService(deps Deps, cfg Config) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, config: cfg, logger: logger, turnLocks: make(map[string]*turnLock)}
}

// Config returns the rules the service was created with.
func (s *Service) Config() Config {
	return s.config
}

// CreateSession starts a new session with a random character. A non-empty
// displayName is stored for the owner's leaderboard entries.
func (s *Service) CreateSession(ctx context.Context, ownerID, displayName string) (*Created, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrBadRequest)
	}
	if s.deps.Sessions == nil || s.deps.Characters == nil {
		return nil, fmt.Errorf("%w: session store is not configured", ErrServiceUnavailable)
	}

	s.randMu.Lock()
	ch, ok := s.deps.Characters.Random(s.deps.Rand)
	s.randMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no characters registered", ErrServiceUnavailable)
	}

	if strings.TrimSpace(displayName) != "" && s.deps.Leaderboard != nil {
		if err := s.deps.Leaderboard.SetDisplayName(ctx, ownerID, displayName); err != nil {
			if errors.Is(err, leaderboard.ErrInvalidName) {
				return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
			}
			s.logger.Error("store display name", "owner", ownerID, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrInternal, err)
		}
	}

	sess := &store.Session{
		OwnerID:            ownerID,
		CreatedAt:          s.deps.Now().UTC(),
		CurrentCharacterID: ch.ID,
		Active:             true,
	}
	if err := s.deps.Sessions.CreateSession(ctx, sess); err != nil {
		s.logger.Error("create session", "owner", ownerID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	s.logger.Info("session created", "session", sess.ID, "owner", ownerID, "character", ch.ID)
	return &Created{
		SessionID:       sess.ID,
		CreatedAt:       sess.CreatedAt,
		StartingBalance: s.config.StartingBalance,
	}, nil
}

// AdvanceTurn plays one turn. A nil message asks the current character for
// its opening line and is only accepted at the start of an encounter.
func (s *Service) AdvanceTurn(ctx context.Context, sessionID string, message *string) (*TurnResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrBadRequest)
	}
	if message != nil {
		msg := strings.TrimSpace(*message)
		if msg == "" {
			return nil, fmt.Errorf("%w: message must not be blank", ErrBadRequest)
		}
		if utf8.RuneCountInString(msg) > MaxMessageLength {
			return nil, fmt.Errorf("%w: message exceeds %d characters", ErrBadRequest, MaxMessageLength)
		}
		message = &msg
	}
	if s.deps.Sessions == nil || s.deps.Ledger == nil || s.deps.Characters == nil {
		return nil, fmt.Errorf("%w: session store is not configured", ErrServiceUnavailable)
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	sess, err := s.deps.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %q", ErrNotFound, sessionID)
	}
	if !sess.Active {
		return nil, fmt.Errorf("%w: session %q", ErrGone, sessionID)
	}

	if s.deps.Ledger.ElapsedSince(sess) >= s.config.SessionDuration {
		balance, err := s.deps.Ledger.CurrentBalance(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		return s.endGame(ctx, sess, EndTimeUp, balance)
	}

	balance, err := s.deps.Ledger.CurrentBalance(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if balance <= 0 {
		return s.endGame(ctx, sess, EndBankrupt, 0)
	}

	last, err := s.deps.Ledger.LastInteraction(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if message == nil && last != nil && !last.EncounterResolved {
		return nil, fmt.Errorf("%w: a message is required mid-encounter", ErrBadRequest)
	}
	if last != nil && last.EncounterResolved && last.CharacterID == sess.CurrentCharacterID {
		// A resolved encounter whose successor was never stored.
		if err := s.advanceCharacter(ctx, sess, last.CharacterID); err != nil {
			return nil, err
		}
	}

	if s.deps.Oracle == nil {
		return nil, fmt.Errorf("%w: conversation oracle is not configured", ErrServiceUnavailable)
	}

	ch, err := s.deps.Characters.GetByID(sess.CurrentCharacterID)
	if err != nil {
		s.logger.Error("current character does not resolve",
			"session", sessionID, "character", sess.CurrentCharacterID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	history, err := s.deps.Ledger.HistoryForCharacter(ctx, sessionID, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	reply := s.deps.Oracle.Converse(ctx, oracle.Input{
		Character:     ch,
		Balance:       balance,
		History:       toTurns(history),
		PlayerMessage: message,
		ThreatLevel:   sess.ThreatLevel,
	})
	if err := ctx.Err(); err != nil {
		// A reply produced for a departed caller is usually a fallback and
		// must not resolve the encounter.
		s.logger.Info("turn abandoned", "session", sessionID, "character", ch.ID, "error", err)
		return nil, fmt.Errorf("%w: turn abandoned: %w", ErrInternal, err)
	}

	// The turn is committed from here on, even if the caller goes away.
	wctx := context.WithoutCancel(ctx)

	newBalance := min(max(reply.NewBalance, 0), balance)
	assets := ch.Assets(reply.Expression)
	if assets == nil {
		assets = []string{}
	}

	if _, err := s.deps.Ledger.AppendInteraction(wctx, sessionID, ledger.Record{
		CharacterID:       ch.ID,
		CharacterName:     ch.Name,
		PlayerMessage:     message,
		ReplyMessage:      reply.Message,
		BalanceBefore:     balance,
		BalanceAfter:      newBalance,
		ExpressionAssets:  assets,
		EncounterResolved: reply.EncounterResolved,
	}); err != nil {
		s.logger.Error("append interaction", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	threat := sess.ThreatLevel
	if reply.EscalateThreat && sess.Active {
		level, err := s.deps.Sessions.IncrementThreat(wctx, sessionID)
		if err != nil {
			s.logger.Error("escalate threat", "session", sessionID, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrInternal, err)
		}
		threat = level
	}

	if reply.EncounterResolved {
		if err := s.advanceCharacter(wctx, sess, ch.ID); err != nil {
			return nil, err
		}
	}

	defeated, err := s.deps.Ledger.DefeatedCount(wctx, sessionID)
	if err != nil {
		s.logger.Error("count defeated", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	res := &TurnResult{
		ReplyMessage:      reply.Message,
		Balance:           newBalance,
		ExpressionAssets:  assets,
		EncounterResolved: reply.EncounterResolved,
		CharacterName:     ch.Name,
		DefeatedCount:     defeated,
		ThreatLevel:       threat,
		QuickActions:      reply.QuickActions,
	}

	if newBalance <= 0 {
		// The fatal turn is scored on the balance the player brought into it.
		score := defeated * balance
		res.GameOver = true
		res.EndReason = EndBankrupt
		res.Score = &score
		if entry := s.finish(wctx, sess, score, defeated, 0); entry != nil {
			res.Score = &entry.Score
		}
	}

	s.logger.Debug("turn played",
		"session", sessionID,
		"character", ch.ID,
		"balance_before", balance,
		"balance_after", newBalance,
		"resolved", reply.EncounterResolved,
		"fallback", reply.Fallback,
	)
	return res, nil
}

// endGame handles a turn that arrives after the game is already over. No
// interaction is recorded.
func (s *Service) endGame(ctx context.Context, sess *store.Session, reason EndReason, finalBalance int) (*TurnResult, error) {
	wctx := context.WithoutCancel(ctx)

	defeated, err := s.deps.Ledger.DefeatedCount(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	score := defeated * finalBalance

	res := &TurnResult{
		ReplyMessage:     reason.Message(),
		Balance:          finalBalance,
		ExpressionAssets: []string{},
		GameOver:         true,
		EndReason:        reason,
		DefeatedCount:    defeated,
		Score:            &score,
		ThreatLevel:      sess.ThreatLevel,
		QuickActions:     []string{},
	}
	if ch, err := s.deps.Characters.GetByID(sess.CurrentCharacterID); err == nil {
		res.CharacterName = ch.Name
	}

	if entry := s.finish(wctx, sess, score, defeated, finalBalance); entry != nil {
		res.Score = &entry.Score
	}
	return res, nil
}

// finish deactivates the session and records its leaderboard entry. Both
// steps tolerate being repeated. A recording failure is logged and the
// game still ends.
func (s *Service) finish(ctx context.Context, sess *store.Session, score, defeated, finalBalance int) *leaderboard.Entry {
	flipped, err := s.deps.Sessions.DeactivateSession(ctx, sess.ID)
	if err != nil {
		s.logger.Error("deactivate session", "session", sess.ID, "error", err)
	}
	if flipped {
		s.logger.Info("session ended", "session", sess.ID, "score", score, "defeated", defeated)
	}

	if s.deps.Leaderboard == nil {
		return nil
	}
	entry, err := s.deps.Leaderboard.RecordIfAbsent(ctx, leaderboard.Result{
		SessionID:     sess.ID,
		OwnerID:       sess.OwnerID,
		Score:         score,
		DefeatedCount: defeated,
		FinalBalance:  finalBalance,
	})
	if err != nil {
		s.logger.Error("record leaderboard entry", "session", sess.ID, "error", err)
		return nil
	}
	return entry
}

// State returns a read-only view of the session. It never ends the game,
// even when the time budget has run out.
func (s *Service) State(ctx context.Context, sessionID string) (*SessionState, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrBadRequest)
	}
	if s.deps.Sessions == nil || s.deps.Ledger == nil || s.deps.Characters == nil {
		return nil, fmt.Errorf("%w: session store is not configured", ErrServiceUnavailable)
	}

	sess, err := s.deps.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %q", ErrNotFound, sessionID)
	}

	history, err := s.deps.Ledger.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defeated, err := s.deps.Ledger.DefeatedCount(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	balance := s.deps.Ledger.StartingBalance()
	transcript := make([]TranscriptLine, 0, len(history))
	for _, in := range history {
		transcript = append(transcript, TranscriptLine{
			CharacterID:       in.CharacterID,
			CharacterName:     in.CharacterName,
			PlayerMessage:     in.PlayerMessage,
			ReplyMessage:      in.ReplyMessage,
			BalanceAfter:      in.BalanceAfter,
			ExpressionAssets:  in.ExpressionAssets,
			EncounterResolved: in.EncounterResolved,
			At:                in.Timestamp,
		})
		balance = in.BalanceAfter
	}

	elapsed := s.deps.Ledger.ElapsedSince(sess)
	remaining := max(s.config.SessionDuration-elapsed, 0)

	st := &SessionState{
		SessionID:       sess.ID,
		OwnerID:         sess.OwnerID,
		Active:          sess.Active,
		CreatedAt:       sess.CreatedAt,
		CharacterID:     sess.CurrentCharacterID,
		StartingBalance: s.deps.Ledger.StartingBalance(),
		Balance:         balance,
		ElapsedMs:       elapsed.Milliseconds(),
		RemainingMs:     remaining.Milliseconds(),
		ThreatLevel:     sess.ThreatLevel,
		DefeatedCount:   defeated,
		Transcript:      transcript,
	}
	if ch, err := s.deps.Characters.GetByID(sess.CurrentCharacterID); err == nil {
		st.CharacterName = ch.Name
	}
	return st, nil
}

// advanceCharacter points the session at the successor of a character whose
// encounter just resolved. A failure leaves the pointer where it was; the
// next turn sees the resolved interaction and retries.
func (s *Service) advanceCharacter(ctx context.Context, sess *store.Session, resolvedID string) error {
	next, err := s.deps.Characters.Successor(resolvedID)
	if err != nil {
		s.logger.Error("resolve successor",
			"session", sess.ID, "character", resolvedID, "resolved", true, "error", err)
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if err := s.deps.Sessions.SetCurrentCharacter(ctx, sess.ID, next.ID); err != nil {
		s.logger.Error("advance character",
			"session", sess.ID, "character", resolvedID, "next", next.ID, "resolved", true, "error", err)
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	sess.CurrentCharacterID = next.ID
	return nil
}

// lockSession serializes turns for one session. The returned func releases
// the lock and drops the entry once no other turn is waiting on it.
func (s *Service) lockSession(id string) func() {
	s.locksMu.Lock()
	l, ok := s.turnLocks[id]
	if !ok {
		l = &turnLock{}
		s.turnLocks[id] = l
	}
	l.holders++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.holders--
		if l.holders == 0 {
			delete(s.turnLocks, id)
		}
		s.locksMu.Unlock()
	}
}

func toTurns(history []ledger.Interaction) []oracle.Turn {
	turns := make([]oracle.Turn, 0, len(history))
	for _, in := range history {
		turns = append(turns, oracle.Turn{
			PlayerMessage: in.PlayerMessage,
			Reply:         in.ReplyMessage,
			BalanceAfter:  in.BalanceAfter,
		})
	}
	return turns
}
