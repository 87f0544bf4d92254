// Package single provides a navigator that always reports one fixed
// project with a fixed set of sources. It is the declarative counterpart
// to discovery-based navigators: the project list is configuration, not
// the result of querying an external system.
package single

import (
	"context"
	"sync"

	"github.com/agentstation/orgscan/pkg/scm"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ scm.Navigator = (*Navigator)(nil)
	_ scm.Source    = (*Source)(nil)
)

// Navigator reports exactly one project with a preconfigured source list.
type Navigator struct {
	id          string
	projectName string
	sources     []scm.Source
}

// New creates a navigator that reports projectName with the given
// sources. The id must be stable across reconfiguration; cached metadata
// is keyed by it.
func New(id, projectName string, sources ...scm.Source) *Navigator {
	return &Navigator{id: id, projectName: projectName, sources: sources}
}

// ID returns the navigator's stable identity.
func (n *Navigator) ID() string { return n.id }

// ProjectName returns the fixed project name this navigator reports.
func (n *Navigator) ProjectName() string { return n.projectName }

// FetchActions returns no metadata; a fixed navigator has no external
// system to describe.
func (n *Navigator) FetchActions(ctx context.Context, owner scm.Owner, event scm.Event, listener scm.Listener) (scm.ActionList, error) {
	return scm.ActionList{}, nil
}

// VisitSources reports the fixed project. The event is ignored; the
// project list never depends on what triggered the pass.
func (n *Navigator) VisitSources(ctx context.Context, observer scm.SourceObserver, event scm.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	project := observer.Observe(n.projectName)
	for _, source := range n.sources {
		project.AddSource(source)
	}
	return project.Complete(ctx)
}

// Source is a static repository handle identified by a URL-like string.
type Source struct {
	mu    sync.Mutex
	id    string
	owner scm.Owner
}

// NewSource creates a source with the given identity.
func NewSource(id string) *Source {
	return &Source{id: id}
}

// ID returns the identity of the source.
func (s *Source) ID() string { return s.id }

// Owner returns the owner the source is attached to, or nil.
func (s *Source) Owner() scm.Owner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// SetOwner attaches the source to an owner.
func (s *Source) SetOwner(owner scm.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner
}
