// Package scan drives the full organization scan: it refreshes navigator
// metadata into the persisted state cache and runs every navigator's
// discovery pass through a child observer that prevents duplicate
// children. The same reconciliation observer is reused by the event path
// in pkg/events, restricted there to a single triggering navigator.
package scan

import (
	"context"
	"time"

	"github.com/agentstation/orgscan/pkg/bulk"
	"github.com/agentstation/orgscan/pkg/errors"
	"github.com/agentstation/orgscan/pkg/logging"
	"github.com/agentstation/orgscan/pkg/scm"
)

// Owner is the folder-like entity a scan runs against. It is injected at
// construction; the engine never performs ambient discovery of
// navigators or factories itself.
type Owner interface {
	scm.Owner

	// Factories returns the ordered factory priority chain.
	Factories() []scm.ProjectFactory

	// OrphanPolicy returns the owner's current orphan handling policy.
	OrphanPolicy() scm.OrphanPolicy

	// ChildTrigger returns the periodic rescan trigger attached to newly
	// created children.
	ChildTrigger() scm.Trigger

	// State returns the owner's persisted metadata cache.
	State() scm.StateStore

	// SetDigests records the navigator and factory configuration digests
	// captured at scan start, used to suppress rescans after a no-op
	// configuration save.
	SetDigests(navDigest, facDigest string)

	// RemoveActions strips legacy actions of the given type that were
	// historically attached directly to the owner. It reports whether
	// anything was removed, in which case the owner's own configuration
	// needs re-saving.
	RemoveActions(actionType string) bool

	// Save persists the owner's own configuration.
	Save() error
}

// UpdateNotifier is an optional capability of a scm.ChildObserver: when
// implemented, the engine reports every child it updated in place.
type UpdateNotifier interface {
	Updated(project scm.Project)
}

// Engine runs full scans for one owner.
type Engine struct {
	owner Owner
}

// New creates an Engine for the owner.
func New(owner Owner) *Engine {
	return &Engine{owner: owner}
}

// ComputeChildren performs one full scan. Metadata fetch failures are
// non-fatal and fall back to the previously cached actions; a discovery
// failure aborts the remainder of the scan while keeping children already
// registered by earlier navigators. Elapsed time is always recorded in
// the run log. Cancellation is observed between navigators.
func (e *Engine) ComputeChildren(ctx context.Context, observer scm.ChildObserver, listener scm.Listener) error {
	owner := e.owner

	// Capture current digests so re-saving the configuration right after
	// the scan does not trigger another scan.
	owner.SetDigests(scm.Digest(owner.Navigators()), scm.Digest(owner.Factories()))

	log := logging.FromContext(ctx)
	start := time.Now()
	listener.Printf("Starting organization scan...")
	defer func() {
		listener.Printf("Finished organization scan. Scan took %s", time.Since(start).Round(time.Millisecond))
	}()

	if err := e.updateActions(ctx, listener); err != nil {
		return err
	}

	for _, navigator := range owner.Navigators() {
		if ctx.Err() != nil {
			return errors.ErrInterrupted
		}
		listener.Printf("Consulting %s", navigator.ID())
		log.Debug().Str("navigator", navigator.ID()).Msg("Consulting navigator")
		so := NewSourceObserver(owner, listener, observer, nil)
		if err := navigator.VisitSources(ctx, so, nil); err != nil {
			listener.Error(err, "Could not fetch sources from navigator %s", navigator.ID())
			return errors.NewDiscoveryError(navigator.ID(), err)
		}
	}
	return nil
}

// updateActions refreshes every navigator's metadata actions and writes
// them to the state cache in one transactional batch when anything
// changed.
func (e *Engine) updateActions(ctx context.Context, listener scm.Listener) error {
	owner := e.owner
	state := owner.State()
	log := logging.FromContext(ctx)

	listener.Printf("Updating actions...")
	fetched := make(map[scm.Navigator]scm.ActionList)
	for _, navigator := range owner.Navigators() {
		actions, err := navigator.FetchActions(ctx, owner, nil, listener)
		if err != nil {
			listener.Error(err, "Could not refresh actions for navigator %s", navigator.ID())
			log.Warn().Err(err).Str("navigator", navigator.ID()).Msg("Metadata fetch failed, keeping cached actions")
			// preserve previous actions on a transient fetch error
			// (e.g. API rate limit)
			actions = state.Actions(navigator)
			if actions == nil {
				actions = scm.ActionList{}
			}
		}
		fetched[navigator] = actions
	}

	if actionsEqual(fetched, state.AllActions()) {
		return nil
	}

	// Strip legacy copies of the contributed actions that older versions
	// attached directly to the owner.
	saveOwner := false
	for _, actions := range fetched {
		for _, a := range actions {
			saveOwner = owner.RemoveActions(a.Type) || saveOwner
		}
	}

	batch := bulk.Open(state)
	defer batch.Abort()
	state.SetAll(fetched)
	if err := batch.Commit(); err != nil {
		listener.Error(err, "Could not persist folder level actions")
		return err
	}
	if saveOwner {
		if err := owner.Save(); err != nil {
			listener.Error(err, "Could not persist folder level configuration changes")
			return err
		}
	}
	return nil
}

// actionsEqual compares two navigator action maps by content.
func actionsEqual(a, b map[scm.Navigator]scm.ActionList) bool {
	if len(a) != len(b) {
		return false
	}
	for navigator, actions := range a {
		other, ok := b[navigator]
		if !ok || !actions.Equal(other) {
			return false
		}
	}
	return true
}
