package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var leaderboardColumns = []string{
	"id", "owner_id", "session_id", "display_name", "score", "defeated_count", "final_balance", "created_at",
}

type leaderboardRepo struct {
	*conn
}

func (r *leaderboardRepo) GetEntryBySession(ctx context.Context, sessionID string) (*LeaderboardEntry, error) {
	return r.first(ctx, r.selectEntries().Where(entsql.EQ("session_id", sessionID)))
}

func (r *leaderboardRepo) InsertEntry(ctx context.Context, e *LeaderboardEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	q := r.builder().Insert(leaderboardTable).
		Columns(leaderboardColumns...).
		Values(e.ID, e.OwnerID, e.SessionID, e.DisplayName, e.Score, e.DefeatedCount, e.FinalBalance, e.CreatedAt)
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return nil
}

func (r *leaderboardRepo) TopEntries(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	q := r.selectEntries().OrderBy(entsql.Desc("score"), entsql.Asc("created_at"))
	if limit > 0 {
		q.Limit(limit)
	}
	return r.list(ctx, q)
}

func (r *leaderboardRepo) RecentEntries(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	q := r.selectEntries().OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		q.Limit(limit)
	}
	return r.list(ctx, q)
}

func (r *leaderboardRepo) LatestEntryForOwner(ctx context.Context, ownerID string) (*LeaderboardEntry, error) {
	q := r.selectEntries().
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("created_at")).
		Limit(1)
	return r.first(ctx, q)
}

func (r *leaderboardRepo) ScoreSummary(ctx context.Context) (int, int64, error) {
	q := r.builder().Select(entsql.Count("*"), entsql.Sum("score")).
		From(entsql.Table(leaderboardTable))

	var (
		count int
		total sql.NullInt64
	)
	if err := r.queryRow(ctx, q).Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("summarize scores: %w", err)
	}
	return count, total.Int64, nil
}

func (r *leaderboardRepo) CountScoresAbove(ctx context.Context, score int) (int, error) {
	q := r.builder().Select(entsql.Count("*")).
		From(entsql.Table(leaderboardTable)).
		Where(entsql.GT("score", score))

	var n int
	if err := r.queryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scores above: %w", err)
	}
	return n, nil
}

func (r *leaderboardRepo) selectEntries() *entsql.Selector {
	return r.builder().Select(leaderboardColumns...).From(entsql.Table(leaderboardTable))
}

func (r *leaderboardRepo) first(ctx context.Context, q *entsql.Selector) (*LeaderboardEntry, error) {
	list, err := r.list(ctx, q)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *leaderboardRepo) list(ctx context.Context, q *entsql.Selector) ([]LeaderboardEntry, error) {
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.SessionID, &e.DisplayName, &e.Score, &e.DefeatedCount, &e.FinalBalance, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return out, nil
}
