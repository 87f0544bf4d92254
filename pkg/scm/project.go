package scm

import (
	"time"

	"github.com/agentstation/orgscan/pkg/bulk"
)

// Project is the reconciled unit of work created per discovered
// repository. Projects are created by the reconciliation pass and mutated
// on every subsequent scan or event that touches the same name; they are
// never destroyed by this engine.
type Project interface {
	bulk.Holder

	// Name returns the directory identifier of the project within its
	// container.
	Name() string

	// DisplayName returns the human-facing name shown for the project.
	DisplayName() string

	// SetDisplayName sets the human-facing name.
	SetDisplayName(name string)

	// ProjectName returns the recorded upstream project name, or the
	// empty string if none has been recorded. This provenance value
	// survives renames of the encoding scheme itself.
	ProjectName() string

	// SetProjectName records the upstream project name.
	SetProjectName(name string)

	// Sources returns the sources attached to the project, in order.
	Sources() []Source

	// SetSources replaces the attached sources.
	SetSources(sources []Source)

	// SetOrphanPolicy applies the owner's current orphan handling policy.
	SetOrphanPolicy(policy OrphanPolicy)

	// SetTrigger attaches a periodic rescan trigger.
	SetTrigger(trigger Trigger)

	// ScheduleBuild requests an immediate build of the project.
	ScheduleBuild()
}

// Source is a concrete repository handle contributed by a navigator for a
// given project name. A source is attached to exactly one owner.
type Source interface {
	// ID returns the identity of the source.
	ID() string

	// Owner returns the owner the source is attached to, or nil.
	Owner() Owner

	// SetOwner attaches the source to an owner.
	SetOwner(owner Owner)
}

// OrphanPolicy controls what happens to children whose upstream
// repository disappears. The engine only copies the owner's policy onto
// each child; enforcement is the container's concern.
type OrphanPolicy struct {
	// Prune enables removal of orphaned children.
	Prune bool `yaml:"prune"`

	// KeepDays retains orphaned children for this many days before
	// pruning. Zero means prune immediately.
	KeepDays int `yaml:"keep_days"`

	// KeepMax retains at most this many orphaned children. Zero means no
	// limit.
	KeepMax int `yaml:"keep_max"`
}

// Trigger is a periodic rescan trigger attached to a child project.
type Trigger struct {
	// Interval between automatic rescans.
	Interval time.Duration `yaml:"interval"`
}

// DefaultTrigger returns the trigger attached to newly created children.
func DefaultTrigger() Trigger {
	return Trigger{Interval: 24 * time.Hour}
}

// ChildObserver is the boundary through which a reconciliation pass
// inspects and registers children without owning the container itself.
// Implementations enforce the at-most-one-child-per-identifier invariant
// for the duration of one pass.
type ChildObserver interface {
	// ShouldUpdate returns the existing child for the directory
	// identifier if it exists and ought to be updated, or nil.
	ShouldUpdate(dirID string) Project

	// MayCreate reports whether a child may be created under the
	// directory identifier. It returns false when another project
	// observed in the same pass has already claimed the identifier.
	MayCreate(dirID string) bool

	// Created registers a newly created child with the container.
	Created(project Project)
}

// Container physically stores the children of an owner. It is an external
// collaborator; the engine only consumes this interface.
type Container interface {
	// Items returns all children.
	Items() []Project

	// Item returns the child with the given directory identifier, or nil.
	Item(dirID string) Project

	// NewObserver returns a fresh observer scoped to one scan or event
	// pass.
	NewObserver() ChildObserver
}
