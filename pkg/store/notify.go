package store

import (
	"context"
	"sync"

	"github.com/surrealdb/todoapi/pkg/models"
)

// Publisher receives change notifications. Publish must not block.
type Publisher interface {
	Publish(n models.Notification)
}

// NotifyingStore wraps a Store and publishes a notification after every
// successful write. The wrapped call has already returned, and so released
// any lock it held, by the time Publish runs.
//
// Writes through a NotifyingStore are serialized with their Publish call, so
// notifications reach the publisher in the order the writes were applied.
// Reads go straight to the wrapped store.
type NotifyingStore struct {
	Store
	pub Publisher

	mu sync.Mutex
}

func NewNotifyingStore(store Store, pub Publisher) *NotifyingStore {
	return &NotifyingStore{Store: store, pub: pub}
}

func (n *NotifyingStore) Create(ctx context.Context, todo models.Todo) (models.Todo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	created, err := n.Store.Create(ctx, todo)
	if err != nil {
		return created, err
	}
	n.pub.Publish(models.Notification{ID: created.ID, Action: models.CreateAction, Todo: created})
	return created, nil
}

func (n *NotifyingStore) Update(ctx context.Context, id string, patch models.UpdateTodoSchema) (models.Todo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	updated, err := n.Store.Update(ctx, id, patch)
	if err != nil {
		return updated, err
	}
	n.pub.Publish(models.Notification{ID: updated.ID, Action: models.UpdateAction, Todo: updated})
	return updated, nil
}

func (n *NotifyingStore) Delete(ctx context.Context, id string) (models.Todo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	removed, err := n.Store.Delete(ctx, id)
	if err != nil {
		return removed, err
	}
	n.pub.Publish(models.Notification{ID: removed.ID, Action: models.DeleteAction, Todo: removed})
	return removed, nil
}
