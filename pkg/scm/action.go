package scm

import "maps"

// Action is one piece of metadata contributed by a navigator, such as a
// display name, description or avatar discovered from the external
// system.
type Action struct {
	// Type identifies the kind of metadata.
	Type string `yaml:"type"`

	// Data holds the metadata payload.
	Data map[string]string `yaml:"data,omitempty"`
}

// Equal reports whether two actions carry identical content.
func (a Action) Equal(o Action) bool {
	return a.Type == o.Type && maps.Equal(a.Data, o.Data)
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	return Action{Type: a.Type, Data: maps.Clone(a.Data)}
}

// ActionList is the ordered metadata contributed by one navigator.
type ActionList []Action

// Equal reports whether two lists carry identical content in the same
// order.
func (l ActionList) Equal(o ActionList) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !l[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the list. A nil list clones to an empty,
// non-nil list so callers can treat missing entries as empty.
func (l ActionList) Clone() ActionList {
	out := make(ActionList, 0, len(l))
	for _, a := range l {
		out = append(out, a.Clone())
	}
	return out
}
