package lexicon

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrWong99/soundalike/internal/misspell"
)

// Schema is the SQL DDL for the lexicon table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS lexicon_entries (
    id          UUID PRIMARY KEY,
    word        TEXT NOT NULL,
    strategy    TEXT NOT NULL,
    candidates  TEXT[] NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (word, strategy)
);
CREATE INDEX IF NOT EXISTS idx_lexicon_entries_candidates ON lexicon_entries USING GIN (candidates);
`

const table = "lexicon_entries"

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by PostgreSQL. Candidates are kept in a
// TEXT[] column with a GIN index so reverse lookups stay cheap.
type PostgresStore struct {
	db DB
	sb sq.StatementBuilderType
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] on top of db. The caller is
// responsible for calling [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate executes the [Schema] DDL.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("lexicon: migrate: %w", err)
	}
	return nil
}

// Save implements [Store.Save].
func (s *PostgresStore) Save(ctx context.Context, e Entry) error {
	cands := e.Candidates
	if cands == nil {
		cands = []string{}
	}
	query, args, err := s.sb.Insert(table).
		Columns("id", "word", "strategy", "candidates", "created_at").
		Values(e.ID, e.Word, string(e.Strategy), cands, e.CreatedAt).
		Suffix(`ON CONFLICT (word, strategy) DO UPDATE SET
			id = EXCLUDED.id,
			candidates = EXCLUDED.candidates,
			created_at = EXCLUDED.created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("lexicon: build save: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("lexicon: save %q: %w", e.Word, err)
	}
	return nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, word string, strategy misspell.Strategy) (Entry, error) {
	query, args, err := s.sb.Select("id", "word", "strategy", "candidates", "created_at").
		From(table).
		Where(sq.Eq{"word": word, "strategy": string(strategy)}).
		ToSql()
	if err != nil {
		return Entry{}, fmt.Errorf("lexicon: build get: %w", err)
	}

	var e Entry
	var strat string
	err = s.db.QueryRow(ctx, query, args...).Scan(&e.ID, &e.Word, &strat, &e.Candidates, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("lexicon: get %q: %w", word, err)
	}
	e.Strategy = misspell.Strategy(strat)
	return e, nil
}

// Lookup implements [Store.Lookup].
func (s *PostgresStore) Lookup(ctx context.Context, misspelling string) ([]string, error) {
	return s.words(ctx, "lookup", s.sb.Select("DISTINCT word").
		From(table).
		Where(sq.Expr("candidates @> ARRAY[?]::text[]", misspelling)).
		OrderBy("word"))
}

// Words implements [Store.Words].
func (s *PostgresStore) Words(ctx context.Context) ([]string, error) {
	return s.words(ctx, "words", s.sb.Select("DISTINCT word").
		From(table).
		OrderBy("word"))
}

func (s *PostgresStore) words(ctx context.Context, op string, b sq.SelectBuilder) ([]string, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("lexicon: build %s: %w", op, err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %s: %w", op, err)
	}
	defer rows.Close()

	words := []string{}
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("lexicon: %s scan: %w", op, err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: %s: %w", op, err)
	}
	return words, nil
}
