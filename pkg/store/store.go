// Package store persists canonical graph definitions.
//
// A [Store] treats each graph as an opaque blob keyed by id: it checks
// nothing beyond what [graph.Validate] already enforced before the call.
// Backends:
//
//   - [Memory]: in-process, for tests and ephemeral servers
//   - [File]: one JSON file per graph in a directory
//   - [Mongo]: MongoDB collection
//   - [Postgres]: PostgreSQL table with a JSONB column
//
// Stores assign a UUID when a graph is created without an id.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowcanvas/pkg/graph"
)

var (
	// ErrNotFound is returned when no graph has the requested id.
	ErrNotFound = errors.New("graph not found")

	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("graph already exists")
)

// Store is the persistence contract for graph definitions.
type Store interface {
	// Create stores a new graph. An empty ID is replaced by a fresh UUID;
	// the stored definition is returned.
	Create(ctx context.Context, def graph.Definition) (graph.Definition, error)
	Get(ctx context.Context, id string) (graph.Definition, error)
	// Update replaces an existing graph.
	Update(ctx context.Context, def graph.Definition) error
	Delete(ctx context.Context, id string) error
	// List returns summaries, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	Close(ctx context.Context) error
}

// Summary describes a stored graph without its body.
type Summary struct {
	ID        string    `json:"id"`
	Start     string    `json:"start"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func summarize(def graph.Definition, created, updated time.Time) Summary {
	return Summary{
		ID:        def.ID,
		Start:     def.Start,
		Nodes:     len(def.Nodes),
		Edges:     len(def.Edges),
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

// assignID fills in a missing graph id.
func assignID(def graph.Definition) graph.Definition {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	return def
}
