package orgscan

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/orgscan/pkg/bulk"
	"github.com/agentstation/orgscan/pkg/errors"
	"github.com/agentstation/orgscan/pkg/scm"
)

// Compile-time interface check to ensure proper implementation.
var _ scm.StateStore = (*State)(nil)

// State is the folder's persisted metadata cache: the actions each
// navigator last contributed, keyed by navigator identity so entries
// survive reconfiguration. It is stored in a dedicated file separate
// from the folder's main configuration and only ever written through a
// bulk.Batch.
type State struct {
	owner   *Folder
	guard   bulk.Guard
	actions map[string]scm.ActionList
}

func newState(owner *Folder) *State {
	return &State{
		owner:   owner,
		actions: make(map[string]scm.ActionList),
	}
}

// File returns the path of the state file.
func (s *State) File() string {
	return filepath.Join(s.owner.dir, "state.yaml")
}

// Load reads the persisted state from disk. A missing file is an empty
// cache. Unreadable content is returned as an error for the caller to
// recover from by resetting; it is never fatal.
func (s *State) Load() error {
	b, err := os.ReadFile(s.File())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewPersistError("read", s.File(), err)
	}
	var file stateFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return errors.WrapParse("yaml", s.File(), err)
	}
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.actions = file.Actions
	if s.actions == nil {
		s.actions = make(map[string]scm.ActionList)
	}
	return nil
}

// Reset clears all entries. It is used when persisted state cannot be
// read; the next scan simply re-fetches everything.
func (s *State) Reset() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.actions = make(map[string]scm.ActionList)
}

// Actions returns an immutable snapshot of the cached actions for the
// navigator, or nil when the navigator is not currently one of the
// owner's navigators. The stale reference guard keeps actions for
// removed navigators from leaking back into view.
func (s *State) Actions(navigator scm.Navigator) scm.ActionList {
	if !s.member(navigator) {
		return nil
	}
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.actions[navigator.ID()].Clone()
}

// AllActions returns a snapshot across all current navigators, missing
// entries defaulting to empty lists.
func (s *State) AllActions() map[scm.Navigator]scm.ActionList {
	navigators := s.owner.Navigators()
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	out := make(map[scm.Navigator]scm.ActionList, len(navigators))
	for _, navigator := range navigators {
		out[navigator] = s.actions[navigator.ID()].Clone()
	}
	return out
}

// SetActions replaces the cached actions for one navigator. The physical
// write happens when the enclosing batch commits.
func (s *State) SetActions(navigator scm.Navigator, actions scm.ActionList) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.actions[navigator.ID()] = actions.Clone()
}

// SetAll replaces the whole cache, pruning entries for navigator
// identities absent from the supplied map.
func (s *State) SetAll(actions map[scm.Navigator]scm.ActionList) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	next := make(map[string]scm.ActionList, len(actions))
	for navigator, list := range actions {
		next[navigator.ID()] = list.Clone()
	}
	s.actions = next
}

// BatchGuard returns the guard protecting the state's saves.
func (s *State) BatchGuard() *bulk.Guard {
	return &s.guard
}

// Save writes the state file. Saves issued while a batch is open are
// deferred until the batch commits, producing a single physical write
// per batch.
func (s *State) Save() error {
	if s.guard.Suppress() {
		return nil
	}
	s.owner.mu.Lock()
	file := stateFile{Actions: make(map[string]scm.ActionList, len(s.actions))}
	for id, list := range s.actions {
		file.Actions[id] = list.Clone()
	}
	s.owner.mu.Unlock()
	return writeYAML(s.File(), file)
}

// member reports whether the navigator is currently one of the owner's
// navigators.
func (s *State) member(navigator scm.Navigator) bool {
	for _, n := range s.owner.Navigators() {
		if n == navigator {
			return true
		}
	}
	return false
}

// stateFile is the on-disk shape of the state.
type stateFile struct {
	Actions map[string]scm.ActionList `yaml:"actions"`
}

func marshalYAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
