// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/groblegark/doord/internal/model"
	"github.com/groblegark/doord/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an existing database handle without running migrations.
// Used by tests with a mock connection.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// RecordTransition appends a door state change to the log.
func (s *PostgresStore) RecordTransition(ctx context.Context, t *store.Transition) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO door_transitions (door_id, status, sessions, occurred_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		t.DoorID,
		t.Status.String(),
		pq.Array(t.Sessions),
		t.OccurredAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// ListTransitions returns the most recent transitions for a door, newest first.
func (s *PostgresStore) ListTransitions(ctx context.Context, doorID string, limit int) ([]*store.Transition, error) {
	query := `
		SELECT id, door_id, status, sessions, occurred_at
		FROM door_transitions
		WHERE door_id = $1
		ORDER BY id DESC`
	args := []any{doorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []*store.Transition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanTransition(row scannable) (*store.Transition, error) {
	var t store.Transition
	var status string
	var sessions pq.StringArray
	if err := row.Scan(&t.ID, &t.DoorID, &status, &sessions, &t.OccurredAt); err != nil {
		return nil, err
	}
	t.Status = statusFromString(status)
	if len(sessions) > 0 {
		t.Sessions = []string(sessions)
	}
	return &t, nil
}

func statusFromString(s string) model.DoorStatus {
	switch s {
	case "closed":
		return model.StatusClosed
	case "open":
		return model.StatusOpen
	default:
		return model.StatusMoving
	}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
