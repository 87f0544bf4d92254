// Package scm defines the contracts between an organization folder and the
// pluggable providers that populate it. Navigators enumerate candidate
// projects and their sources from an external system, project factories
// decide whether a set of sources constitutes a buildable child project,
// and observers carry discovered projects back into the folder.
//
// The package contains interfaces and small value types only; the
// orchestration that drives them lives in pkg/scan and pkg/events.
//
// Example usage:
//
//	// Visit every project a navigator knows about.
//	err := navigator.VisitSources(ctx, observer, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Fetch the metadata actions a navigator contributes.
//	actions, err := navigator.FetchActions(ctx, owner, nil, listener)
package scm

import (
	"context"
)

// Owner is the folder-like entity that owns a set of navigators and the
// children they discover.
type Owner interface {
	// FullName returns the fully qualified name of the owner.
	FullName() string

	// Navigators returns the configured navigators in priority order.
	Navigators() []Navigator

	// Sources returns every source attached to any child of the owner.
	Sources() []Source
}

// Navigator enumerates candidate projects and their sources from an
// external system. Implementations are identified by a stable ID that
// survives reconfiguration of the owning folder.
type Navigator interface {
	// ID returns the stable identity of this navigator. Persisted state is
	// keyed by this value, never by object identity.
	ID() string

	// FetchActions retrieves the metadata actions this navigator
	// contributes to its owner. The event is nil during a full scan.
	// Failures are non-fatal to a scan; callers fall back to previously
	// cached actions.
	FetchActions(ctx context.Context, owner Owner, event Event, listener Listener) (ActionList, error)

	// VisitSources runs the navigator's discovery pass, reporting every
	// discovered project through the observer. The event, when non-nil,
	// restricts discovery to the event's context. A failure here is fatal
	// to the calling scan.
	VisitSources(ctx context.Context, observer SourceObserver, event Event) error
}

// SourceObserver receives the projects discovered by a navigator.
type SourceObserver interface {
	// Context returns the owner on whose behalf discovery is running.
	Context() Owner

	// Listener returns the listener for the current run's log.
	Listener() Listener

	// Observe starts the observation of a single discovered project.
	Observe(projectName string) ProjectObserver
}

// ProjectObserver accumulates the sources contributed for one discovered
// project name and finalizes them into a created or updated child.
type ProjectObserver interface {
	// AddSource contributes one source for the project under observation.
	AddSource(source Source)

	// Complete finalizes the observation. It must be called exactly once;
	// subsequent calls report an error without side effects.
	Complete(ctx context.Context) error
}

// ProjectFactory decides whether a discovered project is buildable and
// knows how to create or update the corresponding child. Factories are
// consulted in priority order and the first one that recognizes the
// sources wins.
type ProjectFactory interface {
	// Recognizes reports whether the accumulated sources constitute a
	// project this factory can build.
	Recognizes(ctx context.Context, owner Owner, projectName string, sources []Source, attributes map[string]any, event Event, listener Listener) (bool, error)

	// NewProject creates a new child for the given directory identifier.
	NewProject(ctx context.Context, owner Owner, dirID string, sources []Source, attributes map[string]any, listener Listener) (Project, error)

	// UpdateProject refreshes an existing child after its sources have
	// been replaced.
	UpdateProject(ctx context.Context, project Project, attributes map[string]any, listener Listener) error
}
