package store

import (
	"context"

	"github.com/surrealdb/todoapi/pkg/models"
)

// ReadOnlyStore wraps a Store and rejects write operations while isReadOnly
// reports true. Reads always pass through. The predicate is evaluated on
// every write, so read-only mode can be toggled at runtime.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

func NewReadOnlyStore(store Store, isReadOnly func() bool) *ReadOnlyStore {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the wrapped store.
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func (r *ReadOnlyStore) Create(ctx context.Context, todo models.Todo) (models.Todo, error) {
	if err := r.checkReadOnly(); err != nil {
		return models.Todo{}, err
	}
	return r.Store.Create(ctx, todo)
}

func (r *ReadOnlyStore) Update(ctx context.Context, id string, patch models.UpdateTodoSchema) (models.Todo, error) {
	if err := r.checkReadOnly(); err != nil {
		return models.Todo{}, err
	}
	return r.Store.Update(ctx, id, patch)
}

func (r *ReadOnlyStore) Delete(ctx context.Context, id string) (models.Todo, error) {
	if err := r.checkReadOnly(); err != nil {
		return models.Todo{}, err
	}
	return r.Store.Delete(ctx, id)
}
