package folders

import (
	"context"
	"sync"

	"github.com/agentstation/orgscan/pkg/bulk"
	"github.com/agentstation/orgscan/pkg/scm"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ scm.Project        = (*Project)(nil)
	_ scm.ProjectFactory = (*Factory)(nil)
)

// Project is an in-memory child project. It records how many times it
// was saved and how many builds were scheduled, which the CLI reports
// and the test suites assert on.
type Project struct {
	mu          sync.Mutex
	name        string
	displayName string
	projectName string
	sources     []scm.Source
	orphans     scm.OrphanPolicy
	trigger     scm.Trigger
	guard       bulk.Guard

	saves  int
	builds int
}

// NewProject creates a project with the given directory identifier.
func NewProject(name string) *Project {
	return &Project{name: name}
}

// Name returns the directory identifier.
func (p *Project) Name() string { return p.name }

// DisplayName returns the display name, or the directory identifier
// when none was set.
func (p *Project) DisplayName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.displayName == "" {
		return p.name
	}
	return p.displayName
}

// SetDisplayName sets the display name shown to people.
func (p *Project) SetDisplayName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.displayName = name
}

// ProjectName returns the recorded upstream project name.
func (p *Project) ProjectName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.projectName
}

// SetProjectName records the upstream project name this child was
// created from.
func (p *Project) SetProjectName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.projectName = name
}

// Sources returns the project's sources.
func (p *Project) Sources() []scm.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]scm.Source, len(p.sources))
	copy(out, p.sources)
	return out
}

// SetSources replaces the project's sources.
func (p *Project) SetSources(sources []scm.Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = sources
}

// OrphanPolicy returns the configured orphan policy.
func (p *Project) OrphanPolicy() scm.OrphanPolicy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orphans
}

// SetOrphanPolicy sets the policy for children whose origin vanished.
func (p *Project) SetOrphanPolicy(policy scm.OrphanPolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orphans = policy
}

// Trigger returns the configured periodic trigger.
func (p *Project) Trigger() scm.Trigger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trigger
}

// SetTrigger sets the periodic re-scan trigger.
func (p *Project) SetTrigger(trigger scm.Trigger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trigger = trigger
}

// ScheduleBuild requests an initial scan of the project.
func (p *Project) ScheduleBuild() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds++
}

// Builds returns how many builds were scheduled.
func (p *Project) Builds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.builds
}

// BatchGuard returns the guard coordinating batched saves.
func (p *Project) BatchGuard() *bulk.Guard { return &p.guard }

// Save persists the project unless a batch is open on it.
func (p *Project) Save() error {
	if p.guard.Suppress() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	return nil
}

// Saves returns how many times Save actually persisted.
func (p *Project) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Factory recognizes any project that contributed at least one source
// and materializes it as an in-memory Project.
type Factory struct{}

// NewFactory creates a Factory.
func NewFactory() *Factory { return &Factory{} }

// Recognizes reports whether the factory can build a child for the
// accumulated sources.
func (f *Factory) Recognizes(ctx context.Context, owner scm.Owner, projectName string, sources []scm.Source, attributes map[string]any, event scm.Event, listener scm.Listener) (bool, error) {
	return len(sources) > 0, nil
}

// NewProject creates a child with the given directory identifier.
func (f *Factory) NewProject(ctx context.Context, owner scm.Owner, dirID string, sources []scm.Source, attributes map[string]any, listener scm.Listener) (scm.Project, error) {
	return NewProject(dirID), nil
}

// UpdateProject refreshes an existing child. Sources are applied by the
// caller before this runs, so there is nothing left to do for the
// in-memory implementation.
func (f *Factory) UpdateProject(ctx context.Context, project scm.Project, attributes map[string]any, listener scm.Listener) error {
	return nil
}
