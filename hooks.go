package orgscan

import (
	"sync"

	"github.com/agentstation/orgscan/pkg/scan"
	"github.com/agentstation/orgscan/pkg/scm"
)

// Hook function types for reconciliation events
type (
	// ChildCreatedHook is called when a scan or event pass creates a
	// child project
	ChildCreatedHook func(project scm.Project)

	// ChildUpdatedHook is called when a scan or event pass updates an
	// existing child project in place
	ChildUpdatedHook func(project scm.Project)
)

// hooks manages callbacks for reconciliation outcomes
type hooks struct {
	mu        sync.RWMutex
	onCreated []ChildCreatedHook
	onUpdated []ChildUpdatedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnChildCreated registers a callback for when children are created
func (f *Folder) OnChildCreated(fn ChildCreatedHook) {
	f.hooks.mu.Lock()
	defer f.hooks.mu.Unlock()
	f.hooks.onCreated = append(f.hooks.onCreated, fn)
}

// OnChildUpdated registers a callback for when children are updated
func (f *Folder) OnChildUpdated(fn ChildUpdatedHook) {
	f.hooks.mu.Lock()
	defer f.hooks.mu.Unlock()
	f.hooks.onUpdated = append(f.hooks.onUpdated, fn)
}

// observe wraps a container observer so reconciliation outcomes fire the
// registered hooks.
func (h *hooks) observe(inner scm.ChildObserver) scm.ChildObserver {
	return &hookObserver{hooks: h, inner: inner}
}

// hookObserver forwards to the container's observer and fires hooks on
// creation and update.
type hookObserver struct {
	hooks *hooks
	inner scm.ChildObserver
}

var _ scan.UpdateNotifier = (*hookObserver)(nil)

func (o *hookObserver) ShouldUpdate(dirID string) scm.Project {
	return o.inner.ShouldUpdate(dirID)
}

func (o *hookObserver) MayCreate(dirID string) bool {
	return o.inner.MayCreate(dirID)
}

func (o *hookObserver) Created(project scm.Project) {
	o.inner.Created(project)
	o.hooks.mu.RLock()
	defer o.hooks.mu.RUnlock()
	for _, fn := range o.hooks.onCreated {
		fn(project)
	}
}

func (o *hookObserver) Updated(project scm.Project) {
	if notifier, ok := o.inner.(scan.UpdateNotifier); ok {
		notifier.Updated(project)
	}
	o.hooks.mu.RLock()
	defer o.hooks.mu.RUnlock()
	for _, fn := range o.hooks.onUpdated {
		fn(project)
	}
}
