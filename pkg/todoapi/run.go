package todoapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Handler builds the routed HTTP handler, middleware included.
//
// Routes are mounted under Config.PathPrefix:
//
//	GET    /healthchecker
//	GET    /todos
//	POST   /todos
//	GET    /todos/events
//	GET    /todos/{id}
//	PATCH  /todos/{id}
//	DELETE /todos/{id}
func (a *App) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(a.handleNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(a.handleMethodNotAllowed)

	api := router
	if a.config.PathPrefix != "" {
		api = router.PathPrefix(a.config.PathPrefix).Subrouter()
		api.NotFoundHandler = router.NotFoundHandler
		api.MethodNotAllowedHandler = router.MethodNotAllowedHandler
	}

	api.HandleFunc("/healthchecker", a.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/todos", a.handleListTodos).Methods(http.MethodGet)
	api.HandleFunc("/todos", a.handleCreateTodo).Methods(http.MethodPost)
	// Registered ahead of /todos/{id} so it is not taken for an id.
	api.HandleFunc("/todos/events", a.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/todos/{id}", a.handleGetTodo).Methods(http.MethodGet)
	api.HandleFunc("/todos/{id}", a.handleUpdateTodo).Methods(http.MethodPatch)
	api.HandleFunc("/todos/{id}", a.handleDeleteTodo).Methods(http.MethodDelete)

	return withLogging(a.log.Logger, withRecovery(router))
}

// Run serves the API until ctx is cancelled, then disconnects live
// subscribers and shuts down gracefully within Config.ShutdownTimeout.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	listener, err := net.Listen("tcp", net.JoinHostPort("", a.config.ServerPort))
	if err != nil {
		return err
	}

	logger := a.log.Logger
	logger.Info().
		Stringer("addr", listener.Addr()).
		Str("prefix", a.config.PathPrefix).
		Bool("read_only", a.IsReadOnly()).
		Msg("starting todo API server")
	if cmd.Listening != nil {
		cmd.Listening(listener.Addr())
	}

	server := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
		// Hijacked WebSocket connections are not tracked by Shutdown; closing
		// the hub ends their write loops.
		a.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout.Duration)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
