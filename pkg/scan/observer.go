package scan

import (
	"context"

	"github.com/agentstation/orgscan/pkg/bulk"
	"github.com/agentstation/orgscan/pkg/errors"
	"github.com/agentstation/orgscan/pkg/logging"
	"github.com/agentstation/orgscan/pkg/naming"
	"github.com/agentstation/orgscan/pkg/scm"
)

// sourceObserver routes every (projectName, sources) tuple a navigator
// emits into a fresh reconciliation accumulator. One instance is scoped
// to a single scan or event pass.
type sourceObserver struct {
	owner    Owner
	listener scm.Listener
	children scm.ChildObserver
	event    scm.Event
}

// NewSourceObserver returns the observer a navigator's discovery pass
// reports into. The event is nil during a full scan; event-triggered
// passes carry the triggering event so factories can consult it.
func NewSourceObserver(owner Owner, listener scm.Listener, children scm.ChildObserver, event scm.Event) scm.SourceObserver {
	return &sourceObserver{
		owner:    owner,
		listener: listener,
		children: children,
		event:    event,
	}
}

// Context returns the owner discovery is running for.
func (o *sourceObserver) Context() scm.Owner {
	return o.owner
}

// Listener returns the run's log.
func (o *sourceObserver) Listener() scm.Listener {
	return o.listener
}

// Observe starts the observation of one discovered project name. The
// name is normalized up front so equivalent Unicode spellings reported
// by different navigators land on the same child.
func (o *sourceObserver) Observe(projectName string) scm.ProjectObserver {
	return &projectObserver{parent: o, projectName: naming.Normalize(projectName)}
}

// projectObserver accumulates the sources contributed for one discovered
// project name, then finalizes by selecting a factory and creating or
// updating the child. The accumulator is invalidated once its sources
// have been consumed so a second Complete can never double-create.
type projectObserver struct {
	parent      *sourceObserver
	projectName string
	sources     []scm.Source
	consumed    bool
}

// AddSource contributes one source and attaches it to the owner.
func (p *projectObserver) AddSource(source scm.Source) {
	p.sources = append(p.sources, source)
	source.SetOwner(p.parent.owner)
}

// takeSources consumes the accumulated sources. Complete is rejected
// after this point.
func (p *projectObserver) takeSources() []scm.Source {
	sources := p.sources
	p.sources = nil
	p.consumed = true
	return sources
}

// Complete finalizes the observation: skip when no factory recognizes
// the sources, update an existing child, or create a new one unless
// another project in this pass already claimed the directory identifier.
// Failures are logged against this project name only and do not abort
// the reconciliation of other names in the same pass.
func (p *projectObserver) Complete(ctx context.Context) error {
	if p.consumed {
		return errors.ErrCompleted
	}
	err := p.complete(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, errors.ErrInterrupted) {
		return err
	}
	p.parent.listener.Error(err, "Failed to create or update a subproject %s", p.projectName)
	logging.FromContext(ctx).Error().
		Err(err).
		Str("project", p.projectName).
		Msg("Reconciliation failed")
	return nil
}

func (p *projectObserver) complete(ctx context.Context) error {
	owner := p.parent.owner
	listener := p.parent.listener
	attributes := map[string]any{}

	var factory scm.ProjectFactory
	for _, candidate := range owner.Factories() {
		ok, err := candidate.Recognizes(ctx, owner, p.projectName, p.sources, attributes, p.parent.event, listener)
		if err != nil {
			return err
		}
		if ok {
			factory = candidate
			break
		}
	}
	if factory == nil {
		return nil
	}

	dirID := naming.Encode(p.projectName)
	if existing := p.parent.children.ShouldUpdate(dirID); existing != nil {
		return p.update(ctx, factory, existing, attributes)
	}
	if !p.parent.children.MayCreate(dirID) {
		listener.Printf("Ignoring duplicate child %s named %s", p.projectName, dirID)
		logging.FromContext(ctx).Debug().
			Str("project", p.projectName).
			Str("dir_id", dirID).
			Msg("Duplicate child suppressed")
		return nil
	}
	return p.create(ctx, factory, dirID, attributes)
}

// update refreshes an existing child inside a batch. The batch commits
// even when the factory update fails, so mutations applied before the
// failure are flushed exactly once and the error still reaches the
// per-project handler.
func (p *projectObserver) update(ctx context.Context, factory scm.ProjectFactory, existing scm.Project, attributes map[string]any) error {
	owner := p.parent.owner
	listener := p.parent.listener

	batch := bulk.Open(existing)
	defer batch.Abort()
	existing.SetSources(p.takeSources())
	existing.SetOrphanPolicy(owner.OrphanPolicy())
	updateErr := factory.UpdateProject(ctx, existing, attributes, listener)
	if updateErr == nil && existing.ProjectName() != p.projectName {
		existing.SetProjectName(p.projectName)
	}
	commitErr := batch.Commit()
	if updateErr != nil {
		return updateErr
	}
	if commitErr != nil {
		return commitErr
	}
	if notifier, ok := p.parent.children.(UpdateNotifier); ok {
		notifier.Updated(existing)
	}
	existing.ScheduleBuild()
	return nil
}

// create builds a new child via the factory inside a naming trace scope,
// decorates it inside a batch, registers it and schedules a build.
func (p *projectObserver) create(ctx context.Context, factory scm.ProjectFactory, dirID string, attributes map[string]any) error {
	owner := p.parent.owner
	listener := p.parent.listener

	tctx := naming.WithTrace(ctx, naming.Trace{DirID: dirID, ProjectName: p.projectName})
	project, err := factory.NewProject(tctx, owner, dirID, p.sources, attributes, listener)
	if err != nil {
		return err
	}

	batch := bulk.Open(project)
	defer batch.Abort()
	if p.projectName != dirID {
		project.SetDisplayName(p.projectName)
	}
	project.SetProjectName(p.projectName)
	project.SetOrphanPolicy(owner.OrphanPolicy())
	project.SetSources(p.takeSources())
	project.SetTrigger(owner.ChildTrigger())
	if err := batch.Commit(); err != nil {
		return err
	}

	p.parent.children.Created(project)
	project.ScheduleBuild()
	return nil
}
