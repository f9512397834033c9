// Package store defines the persistence abstraction behind the todo API.
//
// The [Store] interface is implemented by [github.com/surrealdb/todoapi/pkg/store/memory.Store],
// an ordered in-memory collection guarded by a single mutex. Two wrappers add
// cross-cutting behaviour without touching the implementation:
//
//   - [ReadOnlyStore] rejects writes while the application is in read-only mode
//   - [NotifyingStore] publishes a change notification after each successful write
//
// Every method is atomic: it either fully applies its effect or has none.
// Values are copied in and out, so callers never hold references into the
// collection.
package store

import (
	"context"

	"github.com/surrealdb/todoapi/pkg/models"
)

// Store is the todo collection.
type Store interface {
	// List returns at most limit todos starting at offset, in insertion
	// order. An offset past the end yields an empty slice, never nil.
	List(ctx context.Context, offset, limit int) ([]models.Todo, error)

	// Create assigns a fresh id, clears Completed and stamps both
	// timestamps before appending todo. It fails with ErrConflict when a
	// stored todo already has exactly the same title.
	Create(ctx context.Context, todo models.Todo) (models.Todo, error)

	// Get fails with ErrNotFound when no todo has the id.
	Get(ctx context.Context, id string) (models.Todo, error)

	// Update replaces the todo with the result of patch.Apply. Title
	// uniqueness is not checked. Fails with ErrNotFound.
	Update(ctx context.Context, id string, patch models.UpdateTodoSchema) (models.Todo, error)

	// Delete removes the todo and returns it. Fails with ErrNotFound.
	Delete(ctx context.Context, id string) (models.Todo, error)

	// Len reports the number of stored todos.
	Len(ctx context.Context) (int, error)

	Close() error
}
