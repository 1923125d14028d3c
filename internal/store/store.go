package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas are applied to every pooled SQLite connection through the
// DSN so that each connection sees the same settings.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Config selects the database backend.
type Config struct {
	Driver string // DriverSQLite (default) or DriverPostgres
	DSN    string // file path for SQLite, connection URL for Postgres
}

// Store holds the database handle and provides access to repositories.
type Store struct {
	drv  *entsql.Driver
	conn *conn
}

// Open connects to the configured database, runs auto-migration and
// prepares the global sequence counter.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db  *sql.DB
		dia string
		err error
	)
	switch cfg.Driver {
	case "", DriverSQLite:
		dia = dialect.SQLite
		db, err = sql.Open("sqlite", sqliteDSN(cfg.DSN))
	case DriverPostgres:
		dia = dialect.Postgres
		db, err = sql.Open("pgx", cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	drv := entsql.OpenDB(dia, db)
	if err := migrate(ctx, drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(ctx, db)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{
		drv:  drv,
		conn: &conn{db: db, dialect: dia, seq: seq},
	}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.conn.db
}

// Dialect returns the ent dialect name of the connected database.
func (s *Store) Dialect() string {
	return s.conn.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

func (s *Store) SessionRepo() SessionRepo         { return &sessionRepo{s.conn} }
func (s *Store) InteractionRepo() InteractionRepo { return &interactionRepo{s.conn} }
func (s *Store) LeaderboardRepo() LeaderboardRepo { return &leaderboardRepo{s.conn} }
func (s *Store) PlayerRepo() PlayerRepo           { return &playerRepo{s.conn} }
func (s *Store) EventRepo() EventRepo             { return &eventRepo{s.conn} }

// sqliteDSN appends the connection pragmas to a file path or DSN.
func sqliteDSN(dsn string) string {
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// DefaultDBPath resolves the database file path in priority order:
// 1. DEALBREAKER_DB environment variable
// 2. $XDG_DATA_HOME/dealbreaker/dealbreaker.db
// 3. ~/.local/share/dealbreaker/dealbreaker.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("DEALBREAKER_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "dealbreaker", "dealbreaker.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// conn is shared by all repositories of a Store.
type conn struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

func (c *conn) builder() *entsql.DialectBuilder {
	return entsql.Dialect(c.dialect)
}

func (c *conn) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return c.db.ExecContext(ctx, query, args...)
}

func (c *conn) query(ctx context.Context, q entsql.Querier) (*sql.Rows, error) {
	query, args := q.Query()
	return c.db.QueryContext(ctx, query, args...)
}

func (c *conn) queryRow(ctx context.Context, q entsql.Querier) *sql.Row {
	query, args := q.Query()
	return c.db.QueryRowContext(ctx, query, args...)
}
