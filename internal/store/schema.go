package store

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	sessionsTable     = "sessions"
	interactionsTable = "interactions"
	leaderboardTable  = "leaderboard_entries"
	playersTable      = "players"
	llmEventsTable    = "llm_request_events"
)

var (
	// SessionsColumns holds the columns for the "sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "owner_id", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "current_character_id", Type: field.TypeString},
		{Name: "active", Type: field.TypeBool, Default: true},
		{Name: "threat_level", Type: field.TypeInt, Default: 0},
	}
	// SessionsTable holds the schema information for the "sessions" table.
	SessionsTable = &schema.Table{
		Name:       sessionsTable,
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_owner_id", Columns: []*schema.Column{SessionsColumns[1]}},
		},
	}

	// InteractionsColumns holds the columns for the "interactions" table.
	InteractionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "character_id", Type: field.TypeString},
		{Name: "character_name", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "player_message", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "reply_message", Type: field.TypeString, Size: 2147483647},
		{Name: "balance_before", Type: field.TypeInt},
		{Name: "balance_after", Type: field.TypeInt},
		{Name: "expression_assets", Type: field.TypeJSON},
		{Name: "encounter_resolved", Type: field.TypeBool, Default: false},
	}
	// InteractionsTable holds the schema information for the "interactions" table.
	InteractionsTable = &schema.Table{
		Name:       interactionsTable,
		Columns:    InteractionsColumns,
		PrimaryKey: []*schema.Column{InteractionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "interactions_sessions_interactions",
				Columns:    []*schema.Column{InteractionsColumns[1]},
				RefColumns: []*schema.Column{SessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "interaction_session_id_sequence", Columns: []*schema.Column{InteractionsColumns[1], InteractionsColumns[4]}},
			{Name: "interaction_session_id_character_id", Columns: []*schema.Column{InteractionsColumns[1], InteractionsColumns[2]}},
		},
	}

	// LeaderboardEntriesColumns holds the columns for the "leaderboard_entries" table.
	LeaderboardEntriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "owner_id", Type: field.TypeString},
		// One entry per session; RecordIfAbsent resolves races through it.
		{Name: "session_id", Type: field.TypeString, Unique: true},
		{Name: "display_name", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "defeated_count", Type: field.TypeInt},
		{Name: "final_balance", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	// LeaderboardEntriesTable holds the schema information for the "leaderboard_entries" table.
	LeaderboardEntriesTable = &schema.Table{
		Name:       leaderboardTable,
		Columns:    LeaderboardEntriesColumns,
		PrimaryKey: []*schema.Column{LeaderboardEntriesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "leaderboardentry_score", Columns: []*schema.Column{LeaderboardEntriesColumns[4]}},
			{Name: "leaderboardentry_owner_id_created_at", Columns: []*schema.Column{LeaderboardEntriesColumns[1], LeaderboardEntriesColumns[7]}},
		},
	}

	// PlayersColumns holds the columns for the "players" table.
	PlayersColumns = []*schema.Column{
		{Name: "owner_id", Type: field.TypeString},
		{Name: "display_name", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// PlayersTable holds the schema information for the "players" table.
	PlayersTable = &schema.Table{
		Name:       playersTable,
		Columns:    PlayersColumns,
		PrimaryKey: []*schema.Column{PlayersColumns[0]},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: "", Size: 2147483647},
		{Name: "request_body", Type: field.TypeString, Default: "", Size: 2147483647},
		{Name: "response_body", Type: field.TypeString, Default: "", Size: 2147483647},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       llmEventsTable,
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LlmRequestEventsColumns[5]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		SessionsTable,
		InteractionsTable,
		LeaderboardEntriesTable,
		PlayersTable,
		LlmRequestEventsTable,
	}
)

func init() {
	InteractionsTable.ForeignKeys[0].RefTable = SessionsTable
}

// migrate creates or updates all tables.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}
