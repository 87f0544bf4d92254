// Package app provides the application context and dependency management
// for the orgscan CLI. It centralizes configuration, logging and lazy
// construction of the organization folder the commands operate on.
package app

import (
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/orgscan"
	"github.com/agentstation/orgscan/pkg/errors"
	"github.com/agentstation/orgscan/pkg/folders"
	"github.com/agentstation/orgscan/pkg/scm"
	"github.com/agentstation/orgscan/pkg/scm/single"
)

// App represents the orgscan application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Folder instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	folder *orgscan.Folder
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Folder returns the organization folder built from the configuration,
// creating and loading it lazily. This is thread-safe and ensures only
// one instance is created.
func (a *App) Folder() (*orgscan.Folder, error) {
	a.mu.RLock()
	if a.folder != nil {
		folder := a.folder
		a.mu.RUnlock()
		return folder, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.folder != nil {
		return a.folder, nil
	}

	folder, err := a.buildFolder()
	if err != nil {
		return nil, err
	}
	if err := folder.Load(); err != nil {
		return nil, err
	}

	a.folder = folder
	return folder, nil
}

// buildFolder constructs the folder from the app configuration.
func (a *App) buildFolder() (*orgscan.Folder, error) {
	if a.config.Folder == "" {
		return nil, &errors.ValidationError{Field: "folder", Message: "a folder name is required"}
	}

	navigators := make([]scm.Navigator, 0, len(a.config.Navigators))
	for _, nc := range a.config.Navigators {
		if nc.ID == "" || nc.Project == "" {
			return nil, &errors.ValidationError{Field: "navigators", Message: "every navigator needs an id and a project"}
		}
		sources := make([]scm.Source, 0, len(nc.Sources))
		for _, id := range nc.Sources {
			sources = append(sources, single.NewSource(id))
		}
		navigators = append(navigators, single.New(nc.ID, nc.Project, sources...))
	}

	dir := filepath.Join(a.config.Root, a.config.Folder)
	return orgscan.New(a.config.Folder, dir,
		orgscan.WithContainer(folders.NewMemory()),
		orgscan.WithNavigators(navigators...),
		orgscan.WithFactories(folders.NewFactory()),
		orgscan.WithOrphanPolicy(a.config.OrphanPolicy()),
		orgscan.WithChildTrigger(a.config.Trigger()),
	)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithFolder sets a custom folder instance (useful for testing).
func WithFolder(folder *orgscan.Folder) Option {
	return func(a *App) error {
		a.folder = folder
		return nil
	}
}
