package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/dealbreaker/internal/store"
	"github.com/abhisek/dealbreaker/internal/store/storetest"
)

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *store.Store) {
	t.Helper()
	s := storetest.Open(t)
	require.NoError(t, s.SessionRepo().CreateSession(context.Background(), &store.Session{
		ID: "sess", OwnerID: "owner", CurrentCharacterID: "vince", Active: true,
	}))
	return New(s.InteractionRepo(), 100, opts...), s
}

func strPtr(s string) *string { return &s }

func TestCurrentBalance_StartsAtStartingBalance(t *testing.T) {
	l, _ := newTestLedger(t)

	bal, err := l.CurrentBalance(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, 100, bal)
	assert.Equal(t, 100, l.StartingBalance())
}

func TestCurrentBalance_FollowsLatestInteraction(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	steps := []Record{
		{CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "Hi", BalanceBefore: 100, BalanceAfter: 100},
		{CharacterID: "vince", CharacterName: "Vince", PlayerMessage: strPtr("ok"), ReplyMessage: "Sold", BalanceBefore: 100, BalanceAfter: 60, EncounterResolved: true},
		{CharacterID: "gloria", CharacterName: "Gloria", ReplyMessage: "Timeshare?", BalanceBefore: 60, BalanceAfter: 45},
	}
	for _, rec := range steps {
		in, err := l.AppendInteraction(ctx, "sess", rec)
		require.NoError(t, err)
		assert.NotZero(t, in.Sequence)

		bal, err := l.CurrentBalance(ctx, "sess")
		require.NoError(t, err)
		assert.Equal(t, rec.BalanceAfter, bal)
	}

	last, err := l.LastInteraction(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "Timeshare?", last.ReplyMessage)
}

func TestAppendInteraction_RejectsInvalidRecords(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  Record
	}{
		{"balance rises", Record{CharacterID: "vince", ReplyMessage: "x", BalanceBefore: 10, BalanceAfter: 11}},
		{"negative", Record{CharacterID: "vince", ReplyMessage: "x", BalanceBefore: 10, BalanceAfter: -1}},
		{"empty reply", Record{CharacterID: "vince", ReplyMessage: " ", BalanceBefore: 10, BalanceAfter: 10}},
		{"missing character", Record{ReplyMessage: "x", BalanceBefore: 10, BalanceAfter: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.AppendInteraction(ctx, "sess", tt.rec)
			assert.True(t, errors.Is(err, ErrInvalidRecord), "got %v", err)
		})
	}

	history, err := l.History(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryForCharacter(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for _, rec := range []Record{
		{CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "v1", BalanceBefore: 100, BalanceAfter: 100},
		{CharacterID: "gloria", CharacterName: "Gloria", ReplyMessage: "g1", BalanceBefore: 100, BalanceAfter: 100},
		{CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "v2", BalanceBefore: 100, BalanceAfter: 90},
	} {
		_, err := l.AppendInteraction(ctx, "sess", rec)
		require.NoError(t, err)
	}

	vince, err := l.HistoryForCharacter(ctx, "sess", "vince")
	require.NoError(t, err)
	require.Len(t, vince, 2)
	assert.Equal(t, "v1", vince[0].ReplyMessage)
	assert.Equal(t, "v2", vince[1].ReplyMessage)

	all, err := l.History(ctx, "sess")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDefeatedCount_CountsDistinctCharacters(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for _, rec := range []Record{
		{CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "bye", BalanceBefore: 100, BalanceAfter: 100, EncounterResolved: true},
		{CharacterID: "gloria", CharacterName: "Gloria", ReplyMessage: "hi", BalanceBefore: 100, BalanceAfter: 100},
		{CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "bye again", BalanceBefore: 100, BalanceAfter: 100, EncounterResolved: true},
	} {
		_, err := l.AppendInteraction(ctx, "sess", rec)
		require.NoError(t, err)
	}

	n, err := l.DefeatedCount(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestElapsedSince_UsesClock(t *testing.T) {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(t, WithClock(func() time.Time { return created.Add(90 * time.Second) }))

	assert.Equal(t, 90*time.Second, l.ElapsedSince(&store.Session{CreatedAt: created}))
}
