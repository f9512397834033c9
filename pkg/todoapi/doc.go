// Package todoapi is the HTTP service in front of the todo collection.
//
// # Overview
//
// [Main] parses the command line into a [Command] and a [Config], builds an
// [App] and dispatches. The App owns a single in-memory store created at
// start-up and shared by every request for the life of the process. Writes
// go through two wrappers from [github.com/surrealdb/todoapi/pkg/store]:
//
//	memory.Store  <-  NotifyingStore (publishes to feed.Hub)  <-  ReadOnlyStore
//
// so a rejected read-only write never produces a notification, and
// notifications are published after the store lock has been released.
//
// # Endpoints
//
// All routes are mounted under Config.PathPrefix (default /api):
//
//	GET    /healthchecker   - fixed liveness message
//	GET    /todos           - list, ?page= (1-based) &limit=
//	POST   /todos           - create
//	GET    /todos/events    - WebSocket stream of change notifications
//	GET    /todos/{id}      - fetch one
//	PATCH  /todos/{id}      - partial update
//	DELETE /todos/{id}      - delete, 204 with no body
//
// Failures answer with {"status":"fail","message":...}. Store errors map to
// statuses in one place, see statusFor.
//
// # Configuration
//
// Settings are layered, later layers winning: built-in defaults, a TOML file
// (-config, or todoapi.toml in the working directory), TODOAPI_* environment
// variables, then command-line flags. The config command prints the
// effective result as TOML.
//
//	todoapi -port 9000 -log-pretty run
//	TODOAPI_READ_ONLY=true todoapi run
//	todoapi -config prod.toml config
package todoapi
