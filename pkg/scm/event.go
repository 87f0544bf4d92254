package scm

import (
	"slices"
	"time"
)

// EventKind identifies which part of the external system an event
// describes.
type EventKind string

const (
	// KindHead signals a change to a branch or similar head within an
	// already known repository.
	KindHead EventKind = "head"

	// KindNavigator signals a change to the external organization a
	// navigator watches, such as updated metadata.
	KindNavigator EventKind = "navigator"

	// KindSource signals the appearance of a new repository.
	KindSource EventKind = "source"
)

// Kinds returns all defined event kinds.
func Kinds() []EventKind {
	return []EventKind{KindHead, KindNavigator, KindSource}
}

// IsValid returns true if the kind is one of the defined constants.
func (k EventKind) IsValid() bool {
	return slices.Contains(Kinds(), k)
}

// String returns the string representation of the kind.
func (k EventKind) String() string {
	return string(k)
}

// EventType distinguishes creation from update events.
type EventType string

const (
	// EventCreated signals that the subject came into existence.
	EventCreated EventType = "CREATED"

	// EventUpdated signals that the subject changed.
	EventUpdated EventType = "UPDATED"
)

// String returns the string representation of the type.
func (t EventType) String() string {
	return string(t)
}

// Event is an asynchronous change notification delivered by the external
// event bus. The match predicates let handlers decide whether the event
// concerns a particular navigator or source without re-querying the
// external system.
type Event interface {
	// Kind returns which part of the external system the event describes.
	Kind() EventKind

	// Type returns whether the subject was created or updated.
	Type() EventType

	// Origin describes where the event came from, for logging.
	Origin() string

	// Timestamp returns when the event was emitted upstream.
	Timestamp() time.Time

	// MatchesNavigator reports whether the event concerns the navigator.
	MatchesNavigator(navigator Navigator) bool

	// MatchesSource reports whether the event concerns the source.
	MatchesSource(source Source) bool
}

// ChangeEvent is a generic Event matched by explicit navigator and
// source identities. Providers with richer matching semantics implement
// Event directly.
type ChangeEvent struct {
	EventKind    EventKind
	EventType    EventType
	EventOrigin  string
	Emitted      time.Time
	NavigatorIDs []string
	SourceIDs    []string
}

var _ Event = (*ChangeEvent)(nil)

// Kind returns which part of the external system the event describes.
func (e *ChangeEvent) Kind() EventKind { return e.EventKind }

// Type returns whether the subject was created or updated.
func (e *ChangeEvent) Type() EventType { return e.EventType }

// Origin describes where the event came from.
func (e *ChangeEvent) Origin() string { return e.EventOrigin }

// Timestamp returns when the event was emitted upstream.
func (e *ChangeEvent) Timestamp() time.Time { return e.Emitted }

// MatchesNavigator reports whether the navigator's ID is named by the
// event.
func (e *ChangeEvent) MatchesNavigator(navigator Navigator) bool {
	return navigator != nil && slices.Contains(e.NavigatorIDs, navigator.ID())
}

// MatchesSource reports whether the source's ID is named by the event.
func (e *ChangeEvent) MatchesSource(source Source) bool {
	return source != nil && slices.Contains(e.SourceIDs, source.ID())
}
