/*
Package store defines the project persistence collaborator.

PURPOSE:
  The estimator core is a pure calculation engine and never touches
  persistence; project records are loaded and saved by implementations
  of ProjectStore. Two implementations ship with the module:

    store/memory: in-memory map, for tests and development
    store/sqlite: SQLite-backed, for the server

SEE ALSO:
  - store/sqlite/sqlite.go: production implementation
  - store/memory/memory.go: test/dev implementation
*/
package store

import (
	"context"
	"time"

	"github.com/warp/estimate-engine/estimator"
)

// Project is one persisted estimation project: the category tree plus
// the settings it is priced under.
type Project struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Categories []estimator.Category `json:"categories"`
	Settings   estimator.Settings   `json:"settings"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// ProjectStore persists project records. Implementations return
// estimator.ErrProjectNotFound for missing ids.
type ProjectStore interface {
	// Save inserts or replaces a project by id.
	Save(ctx context.Context, p Project) error

	// Get loads one project.
	Get(ctx context.Context, id string) (*Project, error)

	// List returns all projects ordered by name.
	List(ctx context.Context) ([]Project, error)

	// Delete removes a project. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
