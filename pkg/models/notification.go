package models

// Action names the kind of write a Notification reports.
type Action string

const (
	CreateAction Action = "Create"
	UpdateAction Action = "Update"
	DeleteAction Action = "Delete"
)

// Notification is published on the live feed after a write succeeds.
// For DeleteAction, Todo holds the record as it was before removal.
type Notification struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
	Todo   Todo   `json:"todo"`
}
