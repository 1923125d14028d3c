package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createSession(t *testing.T, s *Store, id string) *Session {
	t.Helper()
	sess := &Session{ID: id, OwnerID: "owner-1", CurrentCharacterID: "vince", Active: true}
	require.NoError(t, s.SessionRepo().CreateSession(context.Background(), sess))
	return sess
}

func strPtr(s string) *string { return &s }

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"journal_mode", "wal"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"/tmp/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		sqliteDSN("/tmp/x.db"))
	assert.Contains(t, sqliteDSN("file:x.db?mode=rwc"), "mode=rwc&_pragma=foreign_keys(1)")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"sessions", "interactions", "leaderboard_entries", "players", "llm_request_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A second counter over the same table continues where the first left off.
	sc, err := newSequenceCounter(ctx, s.DB())
	require.NoError(t, err)

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		require.NoError(t, err)
		seqs = append(seqs, seq)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seqs)

	next, err := s.conn.seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), next)
}

func TestSessionRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	missing, err := repo.GetSession(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created := createSession(t, s, "sess-1")

	got, err := repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.Equal(t, "vince", got.CurrentCharacterID)
	assert.True(t, got.Active)
	assert.Equal(t, 0, got.ThreatLevel)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)

	require.NoError(t, repo.SetCurrentCharacter(ctx, "sess-1", "gloria"))

	level, err := repo.IncrementThreat(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	level, err = repo.IncrementThreat(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	flipped, err := repo.DeactivateSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.DeactivateSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, flipped, "second deactivation is a no-op")

	// Threat only moves while the session is active.
	level, err = repo.IncrementThreat(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	got, err = repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "gloria", got.CurrentCharacterID)
}

func TestInteractionRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.InteractionRepo()
	ctx := context.Background()
	createSession(t, s, "sess-1")
	createSession(t, s, "sess-2")

	latest, err := repo.LatestInteraction(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	records := []*Interaction{
		{SessionID: "sess-1", CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "Hello!", BalanceBefore: 1000, BalanceAfter: 1000, ExpressionAssets: []string{"vince/smug.png"}},
		{SessionID: "sess-1", CharacterID: "vince", CharacterName: "Vince", PlayerMessage: strPtr("no thanks"), ReplyMessage: "Fine.", BalanceBefore: 1000, BalanceAfter: 800, EncounterResolved: true},
		{SessionID: "sess-2", CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "Other session", BalanceBefore: 1000, BalanceAfter: 1000},
		{SessionID: "sess-1", CharacterID: "gloria", CharacterName: "Gloria", ReplyMessage: "Timeshare?", BalanceBefore: 800, BalanceAfter: 750},
	}
	for _, r := range records {
		require.NoError(t, repo.AppendInteraction(ctx, r))
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.Timestamp.IsZero())
	}
	assert.Less(t, records[0].Sequence, records[1].Sequence)
	assert.Less(t, records[1].Sequence, records[3].Sequence)

	latest, err = repo.LatestInteraction(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "Timeshare?", latest.ReplyMessage)
	assert.Equal(t, 750, latest.BalanceAfter)
	assert.Nil(t, latest.PlayerMessage)
	assert.Empty(t, latest.ExpressionAssets)

	all, err := repo.ListInteractions(ctx, "sess-1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Hello!", "Fine.", "Timeshare?"}, []string{all[0].ReplyMessage, all[1].ReplyMessage, all[2].ReplyMessage})
	assert.Equal(t, []string{"vince/smug.png"}, all[0].ExpressionAssets)
	require.NotNil(t, all[1].PlayerMessage)
	assert.Equal(t, "no thanks", *all[1].PlayerMessage)
	assert.True(t, all[1].EncounterResolved)

	vince, err := repo.ListInteractions(ctx, "sess-1", "vince")
	require.NoError(t, err)
	assert.Len(t, vince, 2)

	resolved, err := repo.ResolvedCharacterIDs(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"vince"}, resolved)
}

func TestInteractionRepo_RequiresSession(t *testing.T) {
	s := openTestStore(t)
	err := s.InteractionRepo().AppendInteraction(context.Background(), &Interaction{
		SessionID: "ghost", CharacterID: "vince", CharacterName: "Vince", ReplyMessage: "Hi", BalanceBefore: 10, BalanceAfter: 10,
	})
	assert.Error(t, err)
}

func TestLeaderboardRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.LeaderboardRepo()
	ctx := context.Background()

	count, total, err := repo.ScoreSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, int64(0), total)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*LeaderboardEntry{
		{OwnerID: "a", SessionID: "s1", DisplayName: "Ann", Score: 900, DefeatedCount: 1, FinalBalance: 900, CreatedAt: base},
		{OwnerID: "b", SessionID: "s2", DisplayName: "Bo", Score: 2400, DefeatedCount: 3, FinalBalance: 800, CreatedAt: base.Add(time.Minute)},
		{OwnerID: "a", SessionID: "s3", DisplayName: "Ann", Score: 0, DefeatedCount: 0, FinalBalance: 0, CreatedAt: base.Add(2 * time.Minute)},
		{OwnerID: "c", SessionID: "s4", DisplayName: "Cy", Score: 900, DefeatedCount: 1, FinalBalance: 900, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, repo.InsertEntry(ctx, e))
	}

	dup := *entries[0]
	dup.ID = ""
	assert.Error(t, repo.InsertEntry(ctx, &dup), "session id is unique")

	got, err := repo.GetEntryBySession(ctx, "s2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2400, got.Score)
	assert.Equal(t, "Bo", got.DisplayName)

	none, err := repo.GetEntryBySession(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)

	top, err := repo.TopEntries(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"s2", "s1", "s4"}, []string{top[0].SessionID, top[1].SessionID, top[2].SessionID})

	recent, err := repo.RecentEntries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s4", recent[0].SessionID)
	assert.Equal(t, "s3", recent[1].SessionID)

	latest, err := repo.LatestEntryForOwner(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "s3", latest.SessionID)

	above, err := repo.CountScoresAbove(ctx, 900)
	require.NoError(t, err)
	assert.Equal(t, 1, above)

	count, total, err = repo.ScoreSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, int64(4200), total)
}

func TestPlayerRepo_Upsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlayerRepo()
	ctx := context.Background()

	p, err := repo.GetPlayer(ctx, "owner-1")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, repo.UpsertPlayer(ctx, &Player{OwnerID: "owner-1", DisplayName: "Dana"}))
	first, err := repo.GetPlayer(ctx, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Dana", first.DisplayName)

	require.NoError(t, repo.UpsertPlayer(ctx, &Player{OwnerID: "owner-1", DisplayName: "Dana the Frugal"}))
	second, err := repo.GetPlayer(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana the Frugal", second.DisplayName)
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Millisecond)
}

func TestEventRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "converse", InputTokens: 100, OutputTokens: 40, LatencyMs: 300, Success: true, RequestBody: "[user]\nhi", ResponseBody: `{"reply_message":"hi"}`},
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "converse", LatencyMs: 50, Success: false, ErrorMessage: "boom"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "converse", InputTokens: 10, OutputTokens: 5, LatencyMs: 20, Success: true},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	list, err := repo.QueryLLMRequests(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "openai", list[0].Provider, "newest first")
	assert.Equal(t, "boom", list[1].ErrorMessage)

	all, err := repo.QueryLLMRequests(ctx, QueryOpts{After: list[1].Sequence})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	got, err := repo.GetLLMRequest(ctx, list[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "gpt-4o-mini", got.Model)

	missing, err := repo.GetLLMRequest(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	usage, err := repo.LLMUsage(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "anthropic", usage[0].Provider)
	assert.Equal(t, 2, usage[0].Calls)
	assert.Equal(t, 1, usage[0].Failures)
	assert.Equal(t, int64(100), usage[0].InputTokens)
	assert.Equal(t, int64(350), usage[0].LatencyMs)
	assert.Equal(t, 0, usage[1].Failures)
}
