package scm

import (
	"github.com/agentstation/orgscan/pkg/bulk"
)

// StateStore is the persisted metadata cache owned by a folder: the last
// fetched action list for each navigator, keyed by navigator identity so
// entries survive reconfiguration. All mutation happens inside a
// bulk.Batch so a crash leaves either the old or the fully new state on
// disk.
type StateStore interface {
	bulk.Holder

	// Actions returns an immutable snapshot of the cached actions for the
	// navigator, or nil when the navigator is not currently a member of
	// the owner's navigator set.
	Actions(navigator Navigator) ActionList

	// AllActions returns a snapshot across all current navigators.
	// Missing entries default to empty lists.
	AllActions() map[Navigator]ActionList

	// SetActions replaces the cached actions for one navigator.
	SetActions(navigator Navigator, actions ActionList)

	// SetAll replaces the whole cache. Entries for navigator identities
	// absent from the supplied map are pruned.
	SetAll(actions map[Navigator]ActionList)

	// Reset clears all entries.
	Reset()
}
