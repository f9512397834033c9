// Package memory implements store.Store as an ordered in-memory slice.
//
// A single sync.Mutex guards the whole collection. Reads and writes are
// equally exclusive, and each operation runs as exactly one critical
// section. No I/O happens while the lock is held.
//
// If a critical section panics, the store is marked poisoned: the panic is
// converted to store.ErrPoisoned for that caller, and every later operation
// fails with store.ErrPoisoned instead of touching possibly inconsistent
// state.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/surrealdb/todoapi/pkg/models"
	"github.com/surrealdb/todoapi/pkg/store"
)

type Option func(s *Store)

// WithClock replaces time.Now as the source of created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces models.NewTodoID.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithTodos seeds the collection. Seeded todos are stored as given.
func WithTodos(todos ...models.Todo) Option {
	return func(s *Store) {
		for _, t := range todos {
			s.todos = append(s.todos, clone(t))
		}
	}
}

type Store struct {
	mu       sync.Mutex
	todos    []models.Todo
	poisoned bool

	now   func() time.Time
	newID func() string
}

var _ store.Store = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: models.NewTodoID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// critical runs fn with the collection locked. The lock is released on
// every exit path, including a panic inside fn.
func (s *Store) critical(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return store.ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			err = fmt.Errorf("%w: %v", store.ErrPoisoned, r)
		}
	}()

	return fn()
}

func (s *Store) List(_ context.Context, offset, limit int) ([]models.Todo, error) {
	results := []models.Todo{}
	err := s.critical(func() error {
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || offset >= len(s.todos) {
			return nil
		}
		end := len(s.todos)
		if limit < end-offset {
			end = offset + limit
		}
		results = make([]models.Todo, 0, end-offset)
		for _, t := range s.todos[offset:end] {
			results = append(results, clone(t))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) Create(_ context.Context, todo models.Todo) (models.Todo, error) {
	var created models.Todo
	err := s.critical(func() error {
		for _, existing := range s.todos {
			if existing.Title == todo.Title {
				return store.DuplicateTitle(todo.Title)
			}
		}

		now := s.now().UTC()
		createdAt, updatedAt := now, now
		created = models.Todo{
			ID:        s.newID(),
			Title:     todo.Title,
			Content:   todo.Content,
			Completed: false,
			CreatedAt: &createdAt,
			UpdatedAt: &updatedAt,
		}
		s.todos = append(s.todos, created)
		created = clone(created)
		return nil
	})
	if err != nil {
		return models.Todo{}, err
	}
	return created, nil
}

func (s *Store) Get(_ context.Context, id string) (models.Todo, error) {
	var found models.Todo
	err := s.critical(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return store.MissingID(id)
		}
		found = clone(s.todos[i])
		return nil
	})
	if err != nil {
		return models.Todo{}, err
	}
	return found, nil
}

func (s *Store) Update(_ context.Context, id string, patch models.UpdateTodoSchema) (models.Todo, error) {
	var updated models.Todo
	err := s.critical(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return store.MissingID(id)
		}
		s.todos[i] = patch.Apply(s.todos[i], s.now().UTC())
		updated = clone(s.todos[i])
		return nil
	})
	if err != nil {
		return models.Todo{}, err
	}
	return updated, nil
}

func (s *Store) Delete(_ context.Context, id string) (models.Todo, error) {
	var removed models.Todo
	err := s.critical(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return store.MissingID(id)
		}
		removed = clone(s.todos[i])

		kept := s.todos[:0]
		for _, t := range s.todos {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		// Clear the tail so removed todos are not kept alive by the
		// backing array.
		for j := len(kept); j < len(s.todos); j++ {
			s.todos[j] = models.Todo{}
		}
		s.todos = kept
		return nil
	})
	if err != nil {
		return models.Todo{}, err
	}
	return removed, nil
}

func (s *Store) Len(_ context.Context) (int, error) {
	var n int
	err := s.critical(func() error {
		n = len(s.todos)
		return nil
	})
	return n, err
}

func (s *Store) Close() error {
	return nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// clone copies t including the timestamps it points to.
func clone(t models.Todo) models.Todo {
	if t.CreatedAt != nil {
		c := *t.CreatedAt
		t.CreatedAt = &c
	}
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		t.UpdatedAt = &u
	}
	return t
}
