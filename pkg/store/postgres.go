package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matzehuels/flowcanvas/pkg/graph"
)

const pgSchemaSQL = `
CREATE TABLE IF NOT EXISTS flowcanvas_graphs (
    id         TEXT PRIMARY KEY,
    definition JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_flowcanvas_graphs_updated ON flowcanvas_graphs(updated_at DESC);
`

// pgUniqueViolation is the SQLSTATE for a duplicate primary key.
const pgUniqueViolation = "23505"

// Postgres stores graphs in a single PostgreSQL table, one JSONB document
// per graph.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	s := NewPostgresFromPool(pool)
	if err := s.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresFromPool wraps an existing pool. Closing the store closes the
// pool.
func NewPostgresFromPool(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// CreateSchema creates the graphs table if it doesn't exist.
func (s *Postgres) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchemaSQL); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

// Create implements Store.
func (s *Postgres) Create(ctx context.Context, def graph.Definition) (graph.Definition, error) {
	def = assignID(def)
	data, err := graph.Marshal(def)
	if err != nil {
		return graph.Definition{}, err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO flowcanvas_graphs (id, definition) VALUES ($1, $2)`,
		def.ID, data,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return graph.Definition{}, fmt.Errorf("%w: %s", ErrExists, def.ID)
		}
		return graph.Definition{}, fmt.Errorf("postgres insert: %w", err)
	}
	return def, nil
}

// Get implements Store.
func (s *Postgres) Get(ctx context.Context, id string) (graph.Definition, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT definition FROM flowcanvas_graphs WHERE id = $1`, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return graph.Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return graph.Definition{}, fmt.Errorf("postgres get: %w", err)
	}
	return graph.Unmarshal(data)
}

// Update implements Store.
func (s *Postgres) Update(ctx context.Context, def graph.Definition) error {
	data, err := graph.Marshal(def)
	if err != nil {
		return err
	}
	ct, err := s.db.Exec(ctx,
		`UPDATE flowcanvas_graphs SET definition = $1, updated_at = NOW() WHERE id = $2`,
		data, def.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, def.ID)
	}
	return nil
}

// Delete implements Store.
func (s *Postgres) Delete(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM flowcanvas_graphs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List implements Store.
func (s *Postgres) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id,
		       COALESCE(definition->>'start', ''),
		       CASE WHEN jsonb_typeof(definition->'nodes') = 'array'
		            THEN jsonb_array_length(definition->'nodes') ELSE 0 END,
		       CASE WHEN jsonb_typeof(definition->'edges') = 'array'
		            THEN jsonb_array_length(definition->'edges') ELSE 0 END,
		       created_at, updated_at
		FROM flowcanvas_graphs
		ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum              Summary
			created, updated time.Time
		)
		if err := rows.Scan(&sum.ID, &sum.Start, &sum.Nodes, &sum.Edges, &created, &updated); err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		sum.CreatedAt, sum.UpdatedAt = created, updated
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres rows: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *Postgres) Close(context.Context) error {
	s.db.Close()
	return nil
}

var _ Store = (*Postgres)(nil)
