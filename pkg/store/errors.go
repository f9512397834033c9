package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	// ErrPoisoned is returned once a critical section has panicked; the
	// collection may be inconsistent and is no longer served.
	ErrPoisoned = errors.New("store state is corrupted")
	ErrReadOnly = errors.New("operation denied: application is in read-only mode")
)

// DuplicateTitle builds the ErrConflict returned by Create.
func DuplicateTitle(title string) error {
	return fmt.Errorf("%w: Todo with title: `%s` already exists", ErrConflict, title)
}

// MissingID builds the ErrNotFound returned by Get, Update and Delete.
func MissingID(id string) error {
	return fmt.Errorf("%w: Todo with ID: `%s` not found", ErrNotFound, id)
}

// Message strips the sentinel prefix from err, leaving the part meant for
// API clients.
func Message(err error) string {
	for _, sentinel := range []error{ErrConflict, ErrNotFound} {
		if errors.Is(err, sentinel) {
			return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
		}
	}
	return err.Error()
}
