package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type playerRepo struct {
	*conn
}

// UpsertPlayer inserts the player or updates the display name of an
// existing one. CreatedAt is kept from the first insert.
func (r *playerRepo) UpsertPlayer(ctx context.Context, p *Player) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	q := r.builder().Insert(playersTable).
		Columns("owner_id", "display_name", "created_at", "updated_at").
		Values(p.OwnerID, p.DisplayName, p.CreatedAt, p.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("owner_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("display_name")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (r *playerRepo) GetPlayer(ctx context.Context, ownerID string) (*Player, error) {
	q := r.builder().Select("owner_id", "display_name", "created_at", "updated_at").
		From(entsql.Table(playersTable)).
		Where(entsql.EQ("owner_id", ownerID))

	var p Player
	err := r.queryRow(ctx, q).Scan(&p.OwnerID, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query player: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
