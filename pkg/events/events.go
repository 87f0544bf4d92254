// Package events reacts to asynchronous change notifications without a
// full rescan. Three independently triggered handlers replay the same
// reconciliation logic as a full scan against the folders the event
// matches: head events run a discovery pass restricted to the matching
// navigator, navigator events refresh cached metadata only, and source
// events re-run discovery for the event's context.
//
// Each handler kind is internally serialized so two events of the same
// kind never race on a folder's persisted state. Event delivery is never
// blocked by a logging fault; narrative logging is best effort.
package events

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/orgscan/pkg/bulk"
	"github.com/agentstation/orgscan/pkg/logging"
	"github.com/agentstation/orgscan/pkg/scan"
	"github.com/agentstation/orgscan/pkg/scm"
)

// Folder is one organization folder as seen by the event path.
type Folder interface {
	scan.Owner

	// EventsListener opens a listener appending to the folder's own event
	// log. The caller owns the returned closer.
	EventsListener() (scm.Listener, io.Closer, error)

	// NewEventsObserver returns a fresh child observer for one event
	// pass.
	NewEventsObserver() scm.ChildObserver
}

// Directory lists all folders events should be matched against. The
// dispatcher does not own or cache this collection; it is re-consulted
// on every event.
type Directory interface {
	Folders() []Folder
}

// Dispatcher routes change events to the folders they match.
type Dispatcher struct {
	directory Directory
	global    *EventLog
	titler    cases.Caser

	headMu sync.Mutex
	navMu  sync.Mutex
	srcMu  sync.Mutex
}

// Option is a function that configures a Dispatcher
type Option func(*Dispatcher)

// WithGlobalLog configures the best-effort global event log used when no
// folder-scoped log applies.
func WithGlobalLog(log *EventLog) Option {
	return func(d *Dispatcher) {
		d.global = log
	}
}

// New creates a Dispatcher over the folder directory.
func New(directory Directory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		directory: directory,
		titler:    cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// globalListener opens the global event log, falling back to a no-op
// listener when the log cannot be opened. Logging must never block event
// delivery.
func (d *Dispatcher) globalListener() (scm.Listener, func()) {
	if d.global == nil {
		return scm.NopListener(), func() {}
	}
	listener, closer, err := d.global.Open()
	if err != nil {
		logging.Warn().Err(err).Msg("Could not open global event log")
		return scm.NopListener(), func() {}
	}
	return listener, func() {
		if err := closer.Close(); err != nil {
			logging.Warn().Err(err).Msg("Could not close global event log")
		}
	}
}

// describe renders the narrative name of an event, e.g. "Head CREATED".
func (d *Dispatcher) describe(event scm.Event) string {
	return d.titler.String(event.Kind().String()) + " " + event.Type().String()
}

// OnHeadEvent handles a change to a head within an already known
// repository. Folders whose attached sources already cover the event are
// left alone; for the rest, discovery is re-run restricted to the single
// matching navigator.
func (d *Dispatcher) OnHeadEvent(ctx context.Context, event scm.Event) {
	d.headMu.Lock()
	defer d.headMu.Unlock()

	global, done := d.globalListener()
	defer done()
	global.Printf("Received %s event from %s with timestamp %s",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339))

	matchCount := 0
	if event.Type() == scm.EventCreated || event.Type() == scm.EventUpdated {
		for _, folder := range d.directory.Folders() {
			// A head becoming eligible against the criteria only concerns
			// folders with a matching navigator.
			var navigator scm.Navigator
			for _, n := range folder.Navigators() {
				if event.MatchesNavigator(n) {
					matchCount++
					global.Printf("Found match against %s", folder.FullName())
					navigator = n
					break
				}
			}
			if navigator == nil {
				continue
			}
			// If an attached source already matches, a sub-project exists
			// that will see this event on its own.
			covered := false
			for _, source := range folder.Sources() {
				if event.MatchesSource(source) {
					global.Printf("Folder %s already has a corresponding sub-project", folder.FullName())
					covered = true
					break
				}
			}
			if covered {
				continue
			}
			global.Printf("Folder %s does not have a corresponding sub-project", folder.FullName())
			d.visit(ctx, folder, []scm.Navigator{navigator}, event)
		}
	}
	global.Printf("Finished processing %s event from %s with timestamp %s. Matched %d.",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339), matchCount)
}

// OnNavigatorEvent handles updated metadata for the external
// organization a navigator watches. Only the metadata cache is touched;
// children are left alone.
func (d *Dispatcher) OnNavigatorEvent(ctx context.Context, event scm.Event) {
	d.navMu.Lock()
	defer d.navMu.Unlock()

	global, done := d.globalListener()
	defer done()
	global.Printf("Received %s event from %s with timestamp %s",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339))

	matchCount := 0
	if event.Type() == scm.EventUpdated {
		for _, folder := range d.directory.Folders() {
			var matches []scm.Navigator
			for _, n := range folder.Navigators() {
				if event.MatchesNavigator(n) {
					matches = append(matches, n)
				}
			}
			if len(matches) == 0 {
				continue
			}
			matchCount++
			d.updateActions(ctx, folder, matches, event)
		}
	}
	global.Printf("Finished processing %s event from %s with timestamp %s. Matched %d.",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339), matchCount)
}

// OnSourceEvent handles the appearance of a new repository: discovery is
// re-run for every matching navigator, restricted to the event's
// context.
func (d *Dispatcher) OnSourceEvent(ctx context.Context, event scm.Event) {
	d.srcMu.Lock()
	defer d.srcMu.Unlock()

	global, done := d.globalListener()
	defer done()
	global.Printf("Received %s event from %s with timestamp %s",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339))

	matchCount := 0
	if event.Type() == scm.EventCreated {
		for _, folder := range d.directory.Folders() {
			var matches []scm.Navigator
			for _, n := range folder.Navigators() {
				if event.MatchesNavigator(n) {
					global.Printf("Found match against %s", folder.FullName())
					matches = append(matches, n)
				}
			}
			if len(matches) == 0 {
				continue
			}
			matchCount++
			d.visit(ctx, folder, matches, event)
		}
	}
	global.Printf("Finished processing %s event from %s with timestamp %s. Matched %d.",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339), matchCount)
}

// visit re-runs discovery for the given navigators against an
// event-scoped child observer, logging to the folder's own event log.
func (d *Dispatcher) visit(ctx context.Context, folder Folder, navigators []scm.Navigator, event scm.Event) {
	listener, done := d.folderListener(folder)
	defer done()

	observer := folder.NewEventsObserver()
	start := time.Now()
	listener.Printf("Received %s event from %s with timestamp %s",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339))
	for _, navigator := range navigators {
		so := scan.NewSourceObserver(folder, listener, observer, event)
		if err := navigator.VisitSources(ctx, so, event); err != nil {
			listener.Error(err, "Could not fetch sources from navigator %s", navigator.ID())
			logging.FromContext(ctx).Warn().
				Err(err).
				Str("folder", folder.FullName()).
				Str("navigator", navigator.ID()).
				Msg("Event discovery failed")
		}
	}
	listener.Printf("%s event from %s with timestamp %s processed in %s",
		d.describe(event), event.Origin(), event.Timestamp().Format(time.RFC3339),
		time.Since(start).Round(time.Millisecond))
}

// updateActions re-fetches metadata for the matching navigators and
// applies changed entries in one transactional batch, re-saving the
// folder when legacy folder-attached actions were stripped.
func (d *Dispatcher) updateActions(ctx context.Context, folder Folder, navigators []scm.Navigator, event scm.Event) {
	listener, done := d.folderListener(folder)
	defer done()

	state := folder.State()
	changed := make(map[scm.Navigator]scm.ActionList)
	for _, navigator := range navigators {
		actions, err := navigator.FetchActions(ctx, folder, event, listener)
		if err != nil {
			listener.Error(err, "Could not fetch metadata from %s", navigator.ID())
			continue
		}
		cached := state.Actions(navigator)
		if cached == nil || !cached.Equal(actions) {
			changed[navigator] = actions
		}
	}
	if len(changed) == 0 {
		return
	}

	saveFolder := false
	for _, actions := range changed {
		for _, a := range actions {
			saveFolder = folder.RemoveActions(a.Type) || saveFolder
		}
	}

	batch := bulk.Open(state)
	defer batch.Abort()
	for navigator, actions := range changed {
		state.SetActions(navigator, actions)
	}
	if err := batch.Commit(); err != nil {
		listener.Error(err, "Could not persist updated metadata")
		return
	}
	if saveFolder {
		if err := folder.Save(); err != nil {
			listener.Error(err, "Could not persist updated metadata")
		}
	}
}

// folderListener opens the folder's own event log, falling back to the
// structured process log when it cannot be opened.
func (d *Dispatcher) folderListener(folder Folder) (scm.Listener, func()) {
	listener, closer, err := folder.EventsListener()
	if err != nil {
		logging.Warn().Err(err).Str("folder", folder.FullName()).
			Msg("Could not open folder event log")
		return scm.NopListener(), func() {}
	}
	return listener, func() {
		if err := closer.Close(); err != nil {
			logging.Warn().Err(err).Str("folder", folder.FullName()).
				Msg("Could not close folder event log")
		}
	}
}
