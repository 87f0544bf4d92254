package orgscan

import (
	"github.com/agentstation/orgscan/pkg/scm"
)

// Option is a function that configures a Folder
type Option func(*Folder) error

// WithContainer configures the container that physically stores the
// folder's children. A container is required.
func WithContainer(container scm.Container) Option {
	return func(f *Folder) error {
		f.container = container
		return nil
	}
}

// WithNavigators configures the ordered navigator list.
func WithNavigators(navigators ...scm.Navigator) Option {
	return func(f *Folder) error {
		f.navigators = append(f.navigators, navigators...)
		return nil
	}
}

// WithFactories configures the ordered project factory chain. Factories
// are consulted in the given order and the first recognizing factory
// wins.
func WithFactories(factories ...scm.ProjectFactory) Option {
	return func(f *Folder) error {
		f.factories = append(f.factories, factories...)
		return nil
	}
}

// WithOrphanPolicy configures how orphaned children are handled.
func WithOrphanPolicy(policy scm.OrphanPolicy) Option {
	return func(f *Folder) error {
		f.orphans = policy
		return nil
	}
}

// WithChildTrigger configures the periodic rescan trigger attached to
// newly created children. The default is one rescan per day.
func WithChildTrigger(trigger scm.Trigger) Option {
	return func(f *Folder) error {
		f.trigger = trigger
		return nil
	}
}

// WithLegacyActions seeds metadata attached directly to the folder by
// older versions. Scans strip these as the attributed replacements are
// fetched.
func WithLegacyActions(actions scm.ActionList) Option {
	return func(f *Folder) error {
		f.actions = actions.Clone()
		return nil
	}
}
