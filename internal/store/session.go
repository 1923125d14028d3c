package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var sessionColumns = []string{"id", "owner_id", "created_at", "current_character_id", "active", "threat_level"}

type sessionRepo struct {
	*conn
}

func (r *sessionRepo) CreateSession(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	q := r.builder().Insert(sessionsTable).
		Columns(sessionColumns...).
		Values(s.ID, s.OwnerID, s.CreatedAt, s.CurrentCharacterID, s.Active, s.ThreatLevel)
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetSession(ctx context.Context, id string) (*Session, error) {
	q := r.builder().Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", id))

	var s Session
	err := r.queryRow(ctx, q).Scan(&s.ID, &s.OwnerID, &s.CreatedAt, &s.CurrentCharacterID, &s.Active, &s.ThreatLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

func (r *sessionRepo) DeactivateSession(ctx context.Context, id string) (bool, error) {
	q := r.builder().Update(sessionsTable).
		Set("active", false).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("active", true)))

	res, err := r.exec(ctx, q)
	if err != nil {
		return false, fmt.Errorf("deactivate session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate session: %w", err)
	}
	return n == 1, nil
}

func (r *sessionRepo) IncrementThreat(ctx context.Context, id string) (int, error) {
	q := r.builder().Update(sessionsTable).
		Add("threat_level", 1).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("active", true)))
	if _, err := r.exec(ctx, q); err != nil {
		return 0, fmt.Errorf("increment threat: %w", err)
	}

	sel := r.builder().Select("threat_level").
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", id))
	var level int
	if err := r.queryRow(ctx, sel).Scan(&level); err != nil {
		return 0, fmt.Errorf("read threat: %w", err)
	}
	return level, nil
}

func (r *sessionRepo) SetCurrentCharacter(ctx context.Context, id, characterID string) error {
	q := r.builder().Update(sessionsTable).
		Set("current_character_id", characterID).
		Where(entsql.EQ("id", id))
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("set current character: %w", err)
	}
	return nil
}
