package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var interactionColumns = []string{
	"id", "session_id", "character_id", "character_name", "sequence", "created_at",
	"player_message", "reply_message", "balance_before", "balance_after",
	"expression_assets", "encounter_resolved",
}

type interactionRepo struct {
	*conn
}

func (r *interactionRepo) AppendInteraction(ctx context.Context, in *Interaction) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	assets := in.ExpressionAssets
	if assets == nil {
		assets = []string{}
	}
	assetsJSON, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("marshal expression assets: %w", err)
	}

	in.ID = uuid.NewString()
	in.Sequence = seq
	in.Timestamp = time.Now().UTC()

	var msg any
	if in.PlayerMessage != nil {
		msg = *in.PlayerMessage
	}

	q := r.builder().Insert(interactionsTable).
		Columns(interactionColumns...).
		Values(in.ID, in.SessionID, in.CharacterID, in.CharacterName, in.Sequence, in.Timestamp,
			msg, in.ReplyMessage, in.BalanceBefore, in.BalanceAfter,
			string(assetsJSON), in.EncounterResolved)
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *interactionRepo) LatestInteraction(ctx context.Context, sessionID string) (*Interaction, error) {
	q := r.builder().Select(interactionColumns...).
		From(entsql.Table(interactionsTable)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1)

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query latest interaction: %w", err)
	}
	list, err := scanInteractions(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *interactionRepo) ListInteractions(ctx context.Context, sessionID, characterID string) ([]Interaction, error) {
	where := entsql.EQ("session_id", sessionID)
	if characterID != "" {
		where = entsql.And(where, entsql.EQ("character_id", characterID))
	}
	q := r.builder().Select(interactionColumns...).
		From(entsql.Table(interactionsTable)).
		Where(where).
		OrderBy(entsql.Asc("sequence"))

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	return scanInteractions(rows)
}

func (r *interactionRepo) ResolvedCharacterIDs(ctx context.Context, sessionID string) ([]string, error) {
	q := r.builder().Select("character_id").
		Distinct().
		From(entsql.Table(interactionsTable)).
		Where(entsql.And(entsql.EQ("session_id", sessionID), entsql.EQ("encounter_resolved", true)))

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query resolved characters: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan resolved character: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanInteractions(rows *sql.Rows) ([]Interaction, error) {
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var (
			in     Interaction
			msg    sql.NullString
			assets []byte
		)
		err := rows.Scan(&in.ID, &in.SessionID, &in.CharacterID, &in.CharacterName, &in.Sequence, &in.Timestamp,
			&msg, &in.ReplyMessage, &in.BalanceBefore, &in.BalanceAfter, &assets, &in.EncounterResolved)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if msg.Valid {
			in.PlayerMessage = &msg.String
		}
		if len(assets) > 0 {
			if err := json.Unmarshal(assets, &in.ExpressionAssets); err != nil {
				return nil, fmt.Errorf("decode expression assets: %w", err)
			}
		}
		in.Timestamp = in.Timestamp.UTC()
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}
