// Package orgscan manages a dynamically derived collection of child
// projects, one per repository discovered by scanning one or more
// external source providers. A Folder owns an ordered set of navigators
// that enumerate candidate projects, an ordered chain of project
// factories that decide which discoveries are buildable, and a persisted
// metadata cache of the actions each navigator last contributed.
//
// Full scans are driven through Scan; asynchronous change events are
// replayed incrementally through pkg/events without a full rescan.
//
// Example usage:
//
//	folder, err := orgscan.New("acme", dir,
//	    orgscan.WithContainer(container),
//	    orgscan.WithNavigators(github),
//	    orgscan.WithFactories(factory),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := folder.Scan(ctx, listener)
package orgscan

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/orgscan/pkg/bulk"
	"github.com/agentstation/orgscan/pkg/errors"
	"github.com/agentstation/orgscan/pkg/logging"
	"github.com/agentstation/orgscan/pkg/naming"
	"github.com/agentstation/orgscan/pkg/scan"
	"github.com/agentstation/orgscan/pkg/scm"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ scm.Owner  = (*Folder)(nil)
	_ scan.Owner = (*Folder)(nil)
)

// Folder is an organization folder: the owner of navigators, factories,
// persisted state and the container that physically stores children.
type Folder struct {
	mu sync.Mutex

	name       string
	dir        string
	navigators []scm.Navigator
	factories  []scm.ProjectFactory
	orphans    scm.OrphanPolicy
	trigger    scm.Trigger
	container  scm.Container
	state      *State
	hooks      *hooks

	// actions holds legacy metadata attached directly to the folder by
	// older versions, before attribution moved into State.
	actions scm.ActionList

	navDigest string
	facDigest string

	guard bulk.Guard
}

// New creates a Folder rooted at dir. The container is required; all
// other collaborators default to empty.
func New(name, dir string, opts ...Option) (*Folder, error) {
	f := &Folder{
		name:    name,
		dir:     dir,
		trigger: scm.DefaultTrigger(),
		hooks:   newHooks(),
	}
	f.state = newState(f)
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if f.container == nil {
		return nil, &errors.ValidationError{Field: "container", Message: "a container is required"}
	}
	if f.name == "" {
		return nil, &errors.ValidationError{Field: "name", Message: "a folder name is required"}
	}
	return f, nil
}

// FullName returns the fully qualified name of the folder.
func (f *Folder) FullName() string {
	return f.name
}

// Dir returns the directory holding the folder's persisted files.
func (f *Folder) Dir() string {
	return f.dir
}

// Navigators returns the configured navigators in priority order.
func (f *Folder) Navigators() []scm.Navigator {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scm.Navigator, len(f.navigators))
	copy(out, f.navigators)
	return out
}

// Factories returns the ordered factory priority chain.
func (f *Folder) Factories() []scm.ProjectFactory {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scm.ProjectFactory, len(f.factories))
	copy(out, f.factories)
	return out
}

// OrphanPolicy returns the folder's current orphan handling policy.
func (f *Folder) OrphanPolicy() scm.OrphanPolicy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orphans
}

// ChildTrigger returns the periodic rescan trigger attached to newly
// created children.
func (f *Folder) ChildTrigger() scm.Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trigger
}

// Container returns the container physically storing children.
func (f *Folder) Container() scm.Container {
	return f.container
}

// State returns the persisted metadata cache.
func (f *Folder) State() scm.StateStore {
	return f.state
}

// SingleOrigin returns true if the folder has exactly one navigator.
// Everything except rare legacy configurations is expected to be single
// origin.
func (f *Folder) SingleOrigin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.navigators) == 1
}

// Sources returns every source attached to any child of the folder.
func (f *Folder) Sources() []scm.Source {
	var out []scm.Source
	for _, item := range f.container.Items() {
		out = append(out, item.Sources()...)
	}
	return out
}

// Item returns the child with the given name, tolerating callers that
// pass the decoded or double-encoded form of a directory identifier.
func (f *Folder) Item(name string) scm.Project {
	if name == "" {
		return nil
	}
	if item := f.container.Item(name); item != nil {
		return item
	}
	if strings.Contains(name, "%") {
		if item := f.container.Item(naming.Decode(name)); item != nil {
			return item
		}
	}
	return f.container.Item(naming.Encode(name))
}

// ItemByProjectName returns the child for the given upstream project
// name, or nil if no such child exists.
func (f *Folder) ItemByProjectName(projectName string) scm.Project {
	return f.container.Item(naming.Encode(projectName))
}

// Actions returns the folder's visible metadata: any legacy actions still
// attached directly to the folder followed by the navigator-contributed
// actions from persisted state.
func (f *Folder) Actions() scm.ActionList {
	f.mu.Lock()
	legacy := f.actions.Clone()
	f.mu.Unlock()
	return append(legacy, f.StateActions()...)
}

// StateActions returns the navigator-contributed actions from persisted
// state, flattened across navigators.
func (f *Folder) StateActions() scm.ActionList {
	var out scm.ActionList
	for _, actions := range f.state.AllActions() {
		out = append(out, actions...)
	}
	return out
}

// RemoveActions strips legacy actions of the given type attached
// directly to the folder and reports whether anything was removed.
func (f *Folder) RemoveActions(actionType string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.actions[:0]
	removed := false
	for _, a := range f.actions {
		if a.Type == actionType {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	f.actions = kept
	return removed
}

// SetDigests records the configuration digests captured at scan start.
func (f *Folder) SetDigests(navDigest, facDigest string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navDigest = navDigest
	f.facDigest = facDigest
}

// ConfigSaved recomputes the navigator and factory digests after a
// configuration save and reports whether a rescan is needed. Saving the
// form with no semantic change never triggers a rescan.
func (f *Folder) ConfigSaved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	navDigest := scm.Digest(f.navigators)
	facDigest := scm.Digest(f.factories)
	rescan := navDigest != f.navDigest || facDigest != f.facDigest
	f.navDigest = navDigest
	f.facDigest = facDigest
	return rescan
}

// Load restores the folder's persisted state from disk. Unreadable state
// is recovered by resetting to empty; the next scan re-fetches
// everything. When a previous scan log exists the configuration digests
// are captured so that the first save after a genuine configuration
// change still triggers a scan.
func (f *Folder) Load() error {
	if err := f.state.Load(); err != nil {
		logging.Warn().Err(err).Str("folder", f.name).
			Msg("Could not read persisted state, will be recovered on next scan")
		f.state.Reset()
	}
	if _, err := os.Stat(f.ScanLogFile()); err == nil {
		f.mu.Lock()
		f.navDigest = scm.Digest(f.navigators)
		f.facDigest = scm.Digest(f.factories)
		f.mu.Unlock()
	}
	f.migrateChildNames()
	return nil
}

// migrateChildNames records the upstream project name on children that
// predate provenance recording. The name is recovered from the child's
// legacy directory identifier; children whose identifier no longer
// matches the current scheme are reported but left in place, a scan
// recreates them under the right identifier.
func (f *Folder) migrateChildNames() {
	for _, child := range f.container.Items() {
		if child.ProjectName() != "" {
			continue
		}
		name := naming.FromLegacy(child.Name())
		child.SetProjectName(name)
		if err := child.Save(); err != nil {
			logging.Warn().Err(err).Str("child", child.Name()).
				Msg("Could not record recovered project name")
		}
		if want := naming.ChildID(child, name); want != child.Name() {
			logging.Info().
				Str("child", child.Name()).
				Str("expected", want).
				Msg("Child directory uses a legacy identifier")
		}
	}
}

// BatchGuard returns the guard protecting the folder's own saves.
func (f *Folder) BatchGuard() *bulk.Guard {
	return &f.guard
}

// Save persists the folder's own configuration. Saves issued while a
// batch is open are deferred until the batch commits.
func (f *Folder) Save() error {
	if f.guard.Suppress() {
		return nil
	}
	f.mu.Lock()
	cfg := folderConfig{
		Name:    f.name,
		Orphans: f.orphans,
		Trigger: f.trigger,
		Actions: f.actions.Clone(),
	}
	for _, n := range f.navigators {
		cfg.Navigators = append(cfg.Navigators, n.ID())
	}
	f.mu.Unlock()
	return writeYAML(f.ConfigFile(), cfg)
}

// ConfigFile returns the path of the folder's configuration file.
func (f *Folder) ConfigFile() string {
	return filepath.Join(f.dir, "folder.yaml")
}

// ScanLogFile returns the path of the folder's scan run log.
func (f *Folder) ScanLogFile() string {
	return filepath.Join(f.dir, "scan.log")
}

// EventsLogFile returns the path of the folder's event run log.
func (f *Folder) EventsLogFile() string {
	return filepath.Join(f.dir, "events.log")
}

// EventsListener opens a listener appending to the folder's event log.
// The caller owns the returned closer.
func (f *Folder) EventsListener() (scm.Listener, io.Closer, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, nil, errors.NewPersistError("write", f.dir, err)
	}
	file, err := os.OpenFile(f.EventsLogFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.NewPersistError("write", f.EventsLogFile(), err)
	}
	return scm.NewListener(file), file, nil
}

// NewEventsObserver returns a fresh child observer for one event pass,
// wired to the folder's hooks.
func (f *Folder) NewEventsObserver() scm.ChildObserver {
	return f.hooks.observe(f.container.NewObserver())
}

// ScanResult summarizes one completed scan run.
type ScanResult struct {
	// Result is "SUCCESS", "INTERRUPTED" or "FAILURE".
	Result string

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Scan performs one full scan of all navigators, reconciling the
// discovered projects against existing children. The scheduler invoking
// Scan must ensure at most one scan is active per folder.
func (f *Folder) Scan(ctx context.Context, listener scm.Listener) (*ScanResult, error) {
	ctx = logging.WithFolder(ctx, f.name)
	observer := f.hooks.observe(f.container.NewObserver())
	engine := scan.New(f)

	start := time.Now()
	err := engine.ComputeChildren(ctx, observer, listener)
	elapsed := time.Since(start)

	result := &ScanResult{Result: "SUCCESS", Elapsed: elapsed}
	switch {
	case errors.IsInterrupted(err) || errors.Is(err, context.Canceled):
		result.Result = "INTERRUPTED"
	case err != nil:
		result.Result = "FAILURE"
	}
	logging.FromContext(ctx).Info().
		Str("result", result.Result).
		Dur("elapsed", elapsed).
		Msg("Organization scan completed")
	return result, err
}

// folderConfig is the on-disk shape of the folder's own configuration.
// Navigator and factory configuration is owned by the embedding
// application; only their identities are recorded here.
type folderConfig struct {
	Name       string           `yaml:"name"`
	Navigators []string         `yaml:"navigators,omitempty"`
	Orphans    scm.OrphanPolicy `yaml:"orphans"`
	Trigger    scm.Trigger      `yaml:"trigger"`
	Actions    scm.ActionList   `yaml:"actions,omitempty"`
}

func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewPersistError("write", path, err)
	}
	b, err := marshalYAML(v)
	if err != nil {
		return errors.NewPersistError("write", path, err)
	}
	tmp := fmt.Sprintf("%s.tmp", path)
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.NewPersistError("write", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.NewPersistError("write", path, err)
	}
	return nil
}
