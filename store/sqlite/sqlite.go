/*
Package sqlite provides a SQLite-backed ProjectStore.

PURPOSE:
  Persists project records (category tree + settings) as JSON documents
  in a single table. The calculation engine never reads the database
  directly; handlers load a project, build an engine, and compute.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/estimates.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/store.go: interface definition
  - store/memory/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/estimate-engine/estimator"
	"github.com/warp/estimate-engine/store"
)

// Store implements store.ProjectStore using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		categories_json TEXT NOT NULL,
		settings_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or replaces a project by id.
func (s *Store) Save(ctx context.Context, p store.Project) error {
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	now := time.Now().UTC()
	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, categories_json, settings_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			categories_json = excluded.categories_json,
			settings_json = excluded.settings_json,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(categories), string(settings),
		created.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	return err
}

// Get loads one project.
func (s *Store) Get(ctx context.Context, id string) (*store.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, categories_json, settings_json, created_at, updated_at
		FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, estimator.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all projects ordered by name.
func (s *Store) List(ctx context.Context) ([]store.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, categories_json, settings_json, created_at, updated_at
		FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Delete removes a project. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*store.Project, error) {
	var (
		p                            store.Project
		categoriesJSON, settingsJSON string
		createdAt, updatedAt         string
	)
	if err := row.Scan(&p.ID, &p.Name, &categoriesJSON, &settingsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(categoriesJSON), &p.Categories); err != nil {
		return nil, fmt.Errorf("%w: categories: %v", estimator.ErrMalformedRecord, err)
	}
	if err := json.Unmarshal([]byte(settingsJSON), &p.Settings); err != nil {
		return nil, fmt.Errorf("%w: settings: %v", estimator.ErrMalformedRecord, err)
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}
