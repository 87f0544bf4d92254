// Package folders provides in-memory implementations of the container
// contracts: a Container that stores children in process memory, a basic
// Project, a catch-all ProjectFactory and a Directory for the event
// dispatcher. The CLI and the test suites build on these; embedding
// applications provide their own durable container instead.
package folders

import (
	"sync"

	"github.com/agentstation/orgscan/pkg/events"
	"github.com/agentstation/orgscan/pkg/scm"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ scm.Container    = (*Memory)(nil)
	_ events.Directory = (*Directory)(nil)
)

// Memory is a Container storing children in process memory, in creation
// order.
type Memory struct {
	mu    sync.Mutex
	items map[string]scm.Project
	order []string
}

// NewMemory creates an empty in-memory container.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]scm.Project)}
}

// Items returns all children in creation order.
func (m *Memory) Items() []scm.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]scm.Project, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.items[name])
	}
	return out
}

// Item returns the child with the given directory identifier, or nil.
func (m *Memory) Item(dirID string) scm.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[dirID]
}

// Len returns the number of children.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) add(project scm.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[project.Name()]; !exists {
		m.order = append(m.order, project.Name())
	}
	m.items[project.Name()] = project
}

// NewObserver returns a fresh observer scoped to one scan or event pass.
// The observer tracks every directory identifier seen in the pass so a
// second project resolving to the same identifier is refused.
func (m *Memory) NewObserver() scm.ChildObserver {
	return &memoryObserver{
		container: m,
		observed:  make(map[string]bool),
	}
}

type memoryObserver struct {
	mu        sync.Mutex
	container *Memory
	observed  map[string]bool
}

// ShouldUpdate returns the existing child for the identifier unless
// another project in this pass already observed it, which makes the
// second contribution a name collision rather than an update.
func (o *memoryObserver) ShouldUpdate(dirID string) scm.Project {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.observed[dirID] {
		return nil
	}
	project := o.container.Item(dirID)
	if project != nil {
		o.observed[dirID] = true
	}
	return project
}

// MayCreate claims the identifier for the caller when it is still free.
func (o *memoryObserver) MayCreate(dirID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.observed[dirID] {
		return false
	}
	if o.container.Item(dirID) != nil {
		return false
	}
	o.observed[dirID] = true
	return true
}

// Created registers the newly created child with the container.
func (o *memoryObserver) Created(project scm.Project) {
	o.container.add(project)
}

// Directory is an explicit, mutable list of folders for the event
// dispatcher to match events against.
type Directory struct {
	mu      sync.Mutex
	folders []events.Folder
}

// NewDirectory creates a Directory over the given folders.
func NewDirectory(folders ...events.Folder) *Directory {
	return &Directory{folders: folders}
}

// Add appends a folder to the directory.
func (d *Directory) Add(folder events.Folder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.folders = append(d.folders, folder)
}

// Folders returns the current folder list.
func (d *Directory) Folders() []events.Folder {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.Folder, len(d.folders))
	copy(out, d.folders)
	return out
}
