package todoapi

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/surrealdb/todoapi/pkg/feed"
	"github.com/surrealdb/todoapi/pkg/logger"
	"github.com/surrealdb/todoapi/pkg/store"
	"github.com/surrealdb/todoapi/pkg/store/memory"
)

// App holds the application state.
type App struct {
	store    store.Store
	hub      *feed.Hub
	config   *Config
	log      *logger.LogData
	ownsLog  bool
	readOnly atomic.Bool // Runtime read-only state (can be toggled)

	createSchema *jsonschema.Schema
	updateSchema *jsonschema.Schema
}

type Option func(*App)

// WithLogger makes the App log through l instead of building a logger from
// the config. The caller keeps ownership of l.
func WithLogger(l *logger.LogData) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithStore replaces the default in-memory store. The read-only and
// notification wrappers are still applied on top of it.
func WithStore(s store.Store) Option {
	return func(a *App) {
		a.store = s
	}
}

// New creates a new application instance.
func New(config *Config, opts ...Option) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	app := &App{config: config}
	for _, opt := range opts {
		opt(app)
	}

	if app.log == nil {
		level, _ := config.Level()
		build := logger.New().Level(level).Pretty(config.LogPretty)
		if config.LogFile != "" {
			build = build.FromPath(config.LogFile)
		}
		logData, err := build.Make()
		if err != nil {
			return nil, fmt.Errorf("failed to open log: %w", err)
		}
		app.log = logData
		app.ownsLog = true
	}

	var err error
	if app.createSchema, app.updateSchema, err = compileSchemas(); err != nil {
		app.closeLog()
		return nil, fmt.Errorf("failed to compile request schemas: %w", err)
	}

	base := app.store
	if base == nil {
		base = memory.New()
	}
	app.hub = feed.NewHub(config.FeedBuffer, app.log.Logger.With().Str("component", "feed").Logger())
	app.readOnly.Store(config.ReadOnly)
	// Read-only rejections happen before the notifying layer, so they never
	// reach subscribers.
	app.store = store.NewReadOnlyStore(store.NewNotifyingStore(base, app.hub), app.IsReadOnly)

	return app, nil
}

// Close disconnects live subscribers and releases the store and log.
func (a *App) Close() error {
	a.hub.Close()
	return errors.Join(a.store.Close(), a.closeLog())
}

func (a *App) closeLog() error {
	if !a.ownsLog {
		return nil
	}
	return a.log.Close()
}

// Store returns the wrapped store the handlers use.
func (a *App) Store() store.Store {
	return a.store
}

// Hub returns the change feed.
func (a *App) Hub() *feed.Hub {
	return a.hub
}

// SetReadOnly toggles read-only mode at runtime. While enabled every
// create, update and delete fails with 503 and reads keep working.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.log.Logger.Info().Bool("read_only", readOnly).Msg("application read-only mode changed")
}

func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}
