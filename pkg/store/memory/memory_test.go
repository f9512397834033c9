package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/surrealdb/todoapi/pkg/models"
	"github.com/surrealdb/todoapi/pkg/store"
	"github.com/surrealdb/todoapi/pkg/store/memory"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// tickingClock returns a clock that advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func mustLen(t *testing.T, s store.Store) int {
	t.Helper()
	n, err := s.Len(context.Background())
	require.NoError(t, err)
	return n
}

func TestCreateAssignsServerFields(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	ts := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := s.Create(ctx, models.Todo{
		ID:        "caller-chosen",
		Title:     "Buy milk",
		Content:   "2 litres",
		Completed: true,
		CreatedAt: &ts,
		UpdatedAt: &ts,
	})
	require.NoError(t, err)

	require.NotEmpty(t, created.ID)
	require.NotEqual(t, "caller-chosen", created.ID)
	require.Equal(t, "Buy milk", created.Title)
	require.Equal(t, "2 litres", created.Content)
	require.False(t, created.Completed)
	require.NotNil(t, created.CreatedAt)
	require.NotNil(t, created.UpdatedAt)
	require.True(t, created.CreatedAt.Equal(*created.UpdatedAt))
	require.NotEqual(t, ts, *created.CreatedAt)
	require.Equal(t, 1, mustLen(t, s))
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	created, err := s.Create(ctx, models.Todo{Title: "a", Content: "b"})
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestCreateDuplicateTitleConflicts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for _, title := range []string{"Buy milk", "", "with `ticks`", "ünïcödé"} {
		_, err := s.Create(ctx, models.Todo{Title: title, Content: "first"})
		require.NoError(t, err)

		before := mustLen(t, s)
		_, err = s.Create(ctx, models.Todo{Title: title, Content: "second"})
		require.ErrorIs(t, err, store.ErrConflict)
		require.Equal(t, fmt.Sprintf("Todo with title: `%s` already exists", title), store.Message(err))
		require.Equal(t, before, mustLen(t, s))
	}
}

func TestCreateTitleMatchIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.Create(ctx, models.Todo{Title: "Buy milk"})
	require.NoError(t, err)
	_, err = s.Create(ctx, models.Todo{Title: "buy milk"})
	require.NoError(t, err)
	_, err = s.Create(ctx, models.Todo{Title: "Buy milk "})
	require.NoError(t, err)
	require.Equal(t, 3, mustLen(t, s))
}

func TestGetMissing(t *testing.T) {
	s := memory.New()
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, "Todo with ID: `nope` not found", store.Message(err))
}

func TestReturnedTodosDoNotAliasStoredState(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	created, err := s.Create(ctx, models.Todo{Title: "a"})
	require.NoError(t, err)
	original := *created.CreatedAt

	*created.CreatedAt = original.Add(-time.Hour)
	created.Title = "mutated"

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "a", got.Title)
	require.True(t, original.Equal(*got.CreatedAt))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := memory.New(memory.WithClock(tickingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))

	created, err := s.Create(ctx, models.Todo{Title: "Buy milk", Content: "2 litres"})
	require.NoError(t, err)

	t.Run("empty title keeps previous", func(t *testing.T) {
		updated, err := s.Update(ctx, created.ID, models.UpdateTodoSchema{Title: strPtr("")})
		require.NoError(t, err)
		require.Equal(t, "Buy milk", updated.Title)
		require.Equal(t, "2 litres", updated.Content)
	})

	t.Run("omitted completed resets to false", func(t *testing.T) {
		updated, err := s.Update(ctx, created.ID, models.UpdateTodoSchema{Completed: boolPtr(true)})
		require.NoError(t, err)
		require.True(t, updated.Completed)

		updated, err = s.Update(ctx, created.ID, models.UpdateTodoSchema{Content: strPtr("1 litre")})
		require.NoError(t, err)
		require.False(t, updated.Completed)
		require.Equal(t, "1 litre", updated.Content)
	})

	t.Run("timestamps", func(t *testing.T) {
		before, err := s.Get(ctx, created.ID)
		require.NoError(t, err)

		updated, err := s.Update(ctx, created.ID, models.UpdateTodoSchema{Title: strPtr("Buy bread")})
		require.NoError(t, err)
		require.Equal(t, *created.CreatedAt, *updated.CreatedAt)
		require.True(t, updated.UpdatedAt.After(*before.UpdatedAt))
		require.False(t, updated.CreatedAt.After(*updated.UpdatedAt))

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, updated, got)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := s.Update(ctx, "nope", models.UpdateTodoSchema{Title: strPtr("x")})
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUpdateDoesNotRecheckTitleUniqueness(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.Create(ctx, models.Todo{Title: "first"})
	require.NoError(t, err)
	second, err := s.Create(ctx, models.Todo{Title: "second"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, second.ID, models.UpdateTodoSchema{Title: strPtr("first")})
	require.NoError(t, err)
	require.Equal(t, "first", updated.Title)

	all, err := s.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, all[0].Title, all[1].Title)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a, err := s.Create(ctx, models.Todo{Title: "a"})
	require.NoError(t, err)
	b, err := s.Create(ctx, models.Todo{Title: "b"})
	require.NoError(t, err)
	c, err := s.Create(ctx, models.Todo{Title: "c"})
	require.NoError(t, err)

	_, err = s.Delete(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, 3, mustLen(t, s))

	removed, err := s.Delete(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, b, removed)
	require.Equal(t, 2, mustLen(t, s))

	_, err = s.Get(ctx, b.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, c.ID}, []string{all[0].ID, all[1].ID})

	// The title is free again once its todo is gone.
	_, err = s.Create(ctx, models.Todo{Title: "b"})
	require.NoError(t, err)
}

func TestDeleteRemovesEveryMatch(t *testing.T) {
	ctx := context.Background()
	dup := models.Todo{ID: "same", Title: "x"}
	s := memory.New(memory.WithTodos(dup, models.Todo{ID: "other", Title: "y"}, dup))

	_, err := s.Delete(ctx, "same")
	require.NoError(t, err)
	require.Equal(t, 1, mustLen(t, s))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	titles := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	for _, title := range titles {
		_, err := s.Create(ctx, models.Todo{Title: title})
		require.NoError(t, err)
	}

	cases := []struct {
		name          string
		offset, limit int
		want          []string
	}{
		{"second page of five", 5, 5, []string{"F", "G", "H", "I", "J"}},
		{"first page", 0, 10, titles[:10]},
		{"tail is clipped", 10, 5, []string{"K", "L"}},
		{"offset past end", 12, 5, []string{}},
		{"far past end", 1 << 40, 5, []string{}},
		{"zero limit", 0, 0, []string{}},
		{"negative offset clamps to start", -3, 2, []string{"A", "B"}},
		{"everything", 0, 1000, titles},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.List(ctx, tc.offset, tc.limit)
			require.NoError(t, err)
			require.NotNil(t, got)
			gotTitles := make([]string, 0, len(got))
			for _, todo := range got {
				gotTitles = append(gotTitles, todo.Title)
			}
			require.Equal(t, tc.want, gotTitles)
		})
	}
}

func TestConcurrentCreatesWithDistinctTitles(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	const n = 200
	ids := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := s.Create(ctx, models.Todo{Title: fmt.Sprintf("todo-%d", i)})
			ids[i], errs[i] = created.ID, err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		seen[ids[i]] = struct{}{}
	}
	require.Len(t, seen, n)
	require.Equal(t, n, mustLen(t, s))
}

func TestConcurrentCreatesWithSameTitle(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	const n = 100
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, models.Todo{Title: "contended"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, store.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, n-1, conflicts)
	require.Equal(t, 1, mustLen(t, s))
}

func TestConcurrentMixedOperations(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = func() error {
				created, err := s.Create(ctx, models.Todo{Title: fmt.Sprintf("t%d", i)})
				if err != nil {
					return err
				}
				if _, err := s.Update(ctx, created.ID, models.UpdateTodoSchema{Completed: boolPtr(true)}); err != nil {
					return err
				}
				if _, err := s.List(ctx, 0, 10); err != nil {
					return err
				}
				if i%2 == 0 {
					_, err = s.Delete(ctx, created.ID)
				}
				return err
			}()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 25, mustLen(t, s))
}

func TestPanicPoisonsStore(t *testing.T) {
	ctx := context.Background()
	calls := 0
	s := memory.New(memory.WithIDGenerator(func() string {
		calls++
		if calls == 2 {
			panic("id source exploded")
		}
		return fmt.Sprintf("id-%d", calls)
	}))

	first, err := s.Create(ctx, models.Todo{Title: "first"})
	require.NoError(t, err)

	_, err = s.Create(ctx, models.Todo{Title: "second"})
	require.ErrorIs(t, err, store.ErrPoisoned)
	require.Contains(t, err.Error(), "id source exploded")

	// The lock was released; later calls fail fast rather than block.
	_, err = s.Get(ctx, first.ID)
	require.ErrorIs(t, err, store.ErrPoisoned)
	_, err = s.List(ctx, 0, 10)
	require.ErrorIs(t, err, store.ErrPoisoned)
	_, err = s.Len(ctx)
	require.ErrorIs(t, err, store.ErrPoisoned)
}
