package todoapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"
	"github.com/surrealdb/todoapi/pkg/models"
	"github.com/surrealdb/todoapi/pkg/store"
)

const healthMessage = "Build Simple CRUD API with Go and gorilla/mux"

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.GenericResponse{
		Status:  models.StatusSuccess,
		Message: healthMessage,
	})
}

// handleListTodos returns one page of todos in insertion order.
//
//	GET /api/todos?page=2&limit=5
//
// page is 1-based and defaults to 1, limit defaults to Config.DefaultLimit.
// A page below 1, a negative limit or a non-integer value is a 400.
func (a *App) handleListTodos(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		respondError(w, http.StatusBadRequest, "Invalid page: must be an integer greater than or equal to 1")
		return
	}
	limit, err := queryInt(r, "limit", a.config.DefaultLimit)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "Invalid limit: must be a non-negative integer")
		return
	}

	todos, err := a.store.List(r.Context(), pageOffset(page, limit), limit)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TodoListResponse{
		Status:  models.StatusSuccess,
		Results: todos,
		Count:   len(todos),
	})
}

// createTodoRequest holds the create body fields the server keeps. The
// schema still checks the others, which the store assigns itself.
type createTodoRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (a *App) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if reqErr := decodeBody(w, r, a.createSchema, &req); reqErr != nil {
		respondError(w, reqErr.status, reqErr.message)
		return
	}

	created, err := a.store.Create(r.Context(), models.Todo{Title: req.Title, Content: req.Content})
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TodoResponse{Status: models.StatusSuccess, Todo: created})
}

func (a *App) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	todo, err := a.store.Get(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TodoResponse{Status: models.StatusSuccess, Todo: todo})
}

// handleUpdateTodo applies a partial patch. Empty title or content keep the
// stored value; an omitted completed resets it to false.
func (a *App) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch models.UpdateTodoSchema
	if reqErr := decodeBody(w, r, a.updateSchema, &patch); reqErr != nil {
		respondError(w, reqErr.status, reqErr.message)
		return
	}

	updated, err := a.store.Update(r.Context(), id, patch)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TodoResponse{Status: models.StatusSuccess, Todo: updated})
}

func (a *App) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := a.store.Delete(r.Context(), id); err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Route not found: "+r.URL.Path)
}

func (a *App) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
}

// statusFor maps a store error to the status code answered to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrReadOnly):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("store operation failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, store.Message(err))
}

// queryInt reads an integer query parameter, falling back to defaultValue
// when it is absent or empty.
func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

// pageOffset computes (page-1)*limit, saturating instead of overflowing.
func pageOffset(page, limit int) int {
	if limit == 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.GenericResponse{Status: models.StatusFail, Message: message})
}
