package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/orgscan/pkg/bulk"
	"github.com/agentstation/orgscan/pkg/errors"
	"github.com/agentstation/orgscan/pkg/scm"
)

type fakeSource struct {
	id    string
	owner scm.Owner
}

func (s *fakeSource) ID() string { return s.id }
func (s *fakeSource) Owner() scm.Owner { return s.owner }
func (s *fakeSource) SetOwner(owner scm.Owner) { s.owner = owner }

type fakeProject struct {
	name        string
	displayName string
	projectName string
	sources     []scm.Source
	trigger     scm.Trigger
	guard       bulk.Guard
	builds      int
	saves       int
}

func (p *fakeProject) Name() string { return p.name }
func (p *fakeProject) DisplayName() string { return p.displayName }
func (p *fakeProject) SetDisplayName(name string) { p.displayName = name }
func (p *fakeProject) ProjectName() string { return p.projectName }
func (p *fakeProject) SetProjectName(name string) { p.projectName = name }
func (p *fakeProject) Sources() []scm.Source { return p.sources }
func (p *fakeProject) SetSources(sources []scm.Source) { p.sources = sources }
func (p *fakeProject) SetOrphanPolicy(scm.OrphanPolicy) {}
func (p *fakeProject) SetTrigger(trigger scm.Trigger) { p.trigger = trigger }
func (p *fakeProject) ScheduleBuild() { p.builds++ }
func (p *fakeProject) BatchGuard() *bulk.Guard { return &p.guard }

func (p *fakeProject) Save() error {
	if p.guard.Suppress() {
		return nil
	}
	p.saves++
	return nil
}

type fakeFactory struct {
	recognize    bool
	recognizeErr error
	updateErr    error
	updatePanic  bool
	created      []string
	updated      []string
}

func (f *fakeFactory) Recognizes(ctx context.Context, owner scm.Owner, projectName string, sources []scm.Source, attributes map[string]any, event scm.Event, listener scm.Listener) (bool, error) {
	if f.recognizeErr != nil {
		return false, f.recognizeErr
	}
	return f.recognize, nil
}

func (f *fakeFactory) NewProject(ctx context.Context, owner scm.Owner, dirID string, sources []scm.Source, attributes map[string]any, listener scm.Listener) (scm.Project, error) {
	f.created = append(f.created, dirID)
	return &fakeProject{name: dirID}, nil
}

func (f *fakeFactory) UpdateProject(ctx context.Context, project scm.Project, attributes map[string]any, listener scm.Listener) error {
	if f.updatePanic {
		panic("update blew up")
	}
	f.updated = append(f.updated, project.Name())
	return f.updateErr
}

type fakeChildren struct {
	existing map[string]scm.Project
	created  []scm.Project
	updated  []scm.Project
}

func (c *fakeChildren) ShouldUpdate(dirID string) scm.Project { return c.existing[dirID] }
func (c *fakeChildren) MayCreate(string) bool { return true }
func (c *fakeChildren) Created(project scm.Project) { c.created = append(c.created, project) }
func (c *fakeChildren) Updated(project scm.Project) { c.updated = append(c.updated, project) }

type fakeState struct {
	guard   bulk.Guard
	actions map[string]scm.ActionList
	saves   int
}

func (s *fakeState) Actions(navigator scm.Navigator) scm.ActionList {
	return s.actions[navigator.ID()]
}

func (s *fakeState) AllActions() map[scm.Navigator]scm.ActionList { return nil }

func (s *fakeState) SetActions(navigator scm.Navigator, actions scm.ActionList) {
	s.actions[navigator.ID()] = actions
}

func (s *fakeState) SetAll(map[scm.Navigator]scm.ActionList) {}
func (s *fakeState) Reset() {}
func (s *fakeState) BatchGuard() *bulk.Guard { return &s.guard }

func (s *fakeState) Save() error {
	if s.guard.Suppress() {
		return nil
	}
	s.saves++
	return nil
}

type fakeOwner struct {
	factories []scm.ProjectFactory
	state     *fakeState
}

func (o *fakeOwner) FullName() string { return "acme" }
func (o *fakeOwner) Navigators() []scm.Navigator { return nil }
func (o *fakeOwner) Sources() []scm.Source { return nil }
func (o *fakeOwner) Factories() []scm.ProjectFactory { return o.factories }
func (o *fakeOwner) OrphanPolicy() scm.OrphanPolicy { return scm.OrphanPolicy{} }
func (o *fakeOwner) ChildTrigger() scm.Trigger { return scm.DefaultTrigger() }
func (o *fakeOwner) State() scm.StateStore { return o.state }
func (o *fakeOwner) SetDigests(string, string) {}
func (o *fakeOwner) RemoveActions(string) bool { return false }
func (o *fakeOwner) Save() error { return nil }

func observe(owner Owner, children scm.ChildObserver, projectName string, sources ...scm.Source) scm.ProjectObserver {
	so := NewSourceObserver(owner, scm.NopListener(), children, nil)
	po := so.Observe(projectName)
	for _, source := range sources {
		po.AddSource(source)
	}
	return po
}

func TestCompleteCreatesChild(t *testing.T) {
	factory := &fakeFactory{recognize: true}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	children := &fakeChildren{}

	po := observe(owner, children, "acme/widget", &fakeSource{id: "src"})
	require.NoError(t, po.Complete(context.Background()))

	require.Len(t, children.created, 1)
	child := children.created[0].(*fakeProject)
	assert.Equal(t, "acme%2Fwidget", child.name)
	assert.Equal(t, "acme/widget", child.displayName)
	assert.Equal(t, "acme/widget", child.projectName)
	assert.Equal(t, scm.DefaultTrigger(), child.trigger)
	assert.Equal(t, 1, child.builds)
	assert.Equal(t, 1, child.saves, "one physical write per batch")
}

func TestCompleteSecondCallRejected(t *testing.T) {
	factory := &fakeFactory{recognize: true}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	children := &fakeChildren{}

	po := observe(owner, children, "widget", &fakeSource{id: "src"})
	require.NoError(t, po.Complete(context.Background()))

	err := po.Complete(context.Background())
	assert.ErrorIs(t, err, errors.ErrCompleted)
	assert.Len(t, children.created, 1, "no side effects on the second call")
}

func TestCompleteSkipsUnrecognized(t *testing.T) {
	factory := &fakeFactory{recognize: false}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	children := &fakeChildren{}

	po := observe(owner, children, "widget", &fakeSource{id: "src"})
	require.NoError(t, po.Complete(context.Background()))
	assert.Empty(t, children.created)
	assert.Empty(t, factory.created)
}

func TestCompleteIsolatesFactoryErrors(t *testing.T) {
	factory := &fakeFactory{recognizeErr: errors.New("boom")}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	children := &fakeChildren{}

	po := observe(owner, children, "widget", &fakeSource{id: "src"})
	// The failure is confined to this project name.
	assert.NoError(t, po.Complete(context.Background()))
}

func TestCompletePropagatesCancellation(t *testing.T) {
	factory := &fakeFactory{recognizeErr: context.Canceled}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	children := &fakeChildren{}

	po := observe(owner, children, "widget", &fakeSource{id: "src"})
	assert.ErrorIs(t, po.Complete(context.Background()), context.Canceled)
}

func TestCompleteUpdatesExisting(t *testing.T) {
	factory := &fakeFactory{recognize: true}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	existing := &fakeProject{name: "widget", projectName: "widget"}
	children := &fakeChildren{existing: map[string]scm.Project{"widget": existing}}

	po := observe(owner, children, "widget", &fakeSource{id: "src"})
	require.NoError(t, po.Complete(context.Background()))

	assert.Empty(t, children.created)
	assert.Equal(t, []string{"widget"}, factory.updated)
	require.Len(t, children.updated, 1)
	assert.Same(t, existing, children.updated[0])
	assert.Equal(t, 1, existing.builds)
	require.Len(t, existing.sources, 1)
	assert.Equal(t, "src", existing.sources[0].ID())
}

func TestCompleteUpdateErrorStillCommitsBatch(t *testing.T) {
	factory := &fakeFactory{recognize: true, updateErr: errors.New("update failed")}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	existing := &fakeProject{name: "widget"}
	children := &fakeChildren{existing: map[string]scm.Project{"widget": existing}}

	po := observe(owner, children, "widget", &fakeSource{id: "src"})
	// The per-name handler swallows the failure.
	require.NoError(t, po.Complete(context.Background()))

	assert.Equal(t, 1, existing.saves, "mutations applied before the failure are flushed")
	assert.Empty(t, existing.projectName, "provenance is not rewritten after a failed update")
	assert.Equal(t, 0, existing.builds)
	assert.Empty(t, children.updated)
}

func TestSourcesAttachedToOwner(t *testing.T) {
	factory := &fakeFactory{recognize: true}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	children := &fakeChildren{}
	source := &fakeSource{id: "src"}

	po := observe(owner, children, "widget", source)
	require.NoError(t, po.Complete(context.Background()))

	assert.Equal(t, scm.Owner(owner), source.owner)
}

func TestCompleteNormalizesProjectName(t *testing.T) {
	factory := &fakeFactory{recognize: true}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	children := &fakeChildren{}

	// Combining spelling of "café"; the child lands under the NFC form.
	po := observe(owner, children, "café", &fakeSource{id: "src"})
	require.NoError(t, po.Complete(context.Background()))

	require.Len(t, children.created, 1)
	child := children.created[0].(*fakeProject)
	assert.Equal(t, "caf%C3%A9", child.name)
	assert.Equal(t, "café", child.projectName)
}

func TestCompleteUpdatePanicReleasesBatch(t *testing.T) {
	factory := &fakeFactory{recognize: true, updatePanic: true}
	owner := &fakeOwner{factories: []scm.ProjectFactory{factory}}
	existing := &fakeProject{name: "widget"}
	children := &fakeChildren{existing: map[string]scm.Project{"widget": existing}}

	po := observe(owner, children, "widget", &fakeSource{id: "src"})
	func() {
		defer func() { require.NotNil(t, recover()) }()
		_ = po.Complete(context.Background())
	}()

	assert.Equal(t, 0, existing.saves, "aborted batch writes nothing")
	require.NoError(t, existing.Save())
	assert.Equal(t, 1, existing.saves, "saves are not suppressed after the unwind")
}
