// Package models defines the entities exchanged between the todo store, the
// HTTP handlers and the API client.
//
// [Todo] is the only stored entity. [UpdateTodoSchema] describes a partial
// patch, [Notification] a change event published after a successful write,
// and the *Response types are the JSON envelopes returned by the API.
//
// All JSON field names are lowerCamelCase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Todo is a titled task item.
//
// ID, CreatedAt and UpdatedAt are assigned by the store when the todo is
// created; values supplied by callers are ignored.
type Todo struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Completed bool       `json:"completed"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// UpdateTodoSchema is a partial patch. A nil field was not submitted.
type UpdateTodoSchema struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// NewTodoID returns a random UUIDv4 rendered as text.
func NewTodoID() string {
	return uuid.NewString()
}

// Apply builds the replacement for current from the patch p at time now.
//
// Title and content keep their previous value when the patch omits them or
// submits an empty string. Completed is reset to false when omitted.
// CreatedAt and ID are carried over unchanged.
func (p UpdateTodoSchema) Apply(current Todo, now time.Time) Todo {
	title := current.Title
	if p.Title != nil && *p.Title != "" {
		title = *p.Title
	}

	content := current.Content
	if p.Content != nil && *p.Content != "" {
		content = *p.Content
	}

	completed := false
	if p.Completed != nil {
		completed = *p.Completed
	}

	return Todo{
		ID:        current.ID,
		Title:     title,
		Content:   content,
		Completed: completed,
		CreatedAt: current.CreatedAt,
		UpdatedAt: &now,
	}
}
