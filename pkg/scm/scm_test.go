package scm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActionEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Action
		expected bool
	}{
		{
			name:     "identical",
			a:        Action{Type: "avatar", Data: map[string]string{"url": "x"}},
			b:        Action{Type: "avatar", Data: map[string]string{"url": "x"}},
			expected: true,
		},
		{
			name:     "different type",
			a:        Action{Type: "avatar"},
			b:        Action{Type: "description"},
			expected: false,
		},
		{
			name:     "different data",
			a:        Action{Type: "avatar", Data: map[string]string{"url": "x"}},
			b:        Action{Type: "avatar", Data: map[string]string{"url": "y"}},
			expected: false,
		},
		{
			name:     "nil data equals empty data",
			a:        Action{Type: "avatar"},
			b:        Action{Type: "avatar", Data: map[string]string{}},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Equal(tt.b))
		})
	}
}

func TestActionListEqual(t *testing.T) {
	list := ActionList{{Type: "avatar"}, {Type: "description"}}

	assert.True(t, list.Equal(ActionList{{Type: "avatar"}, {Type: "description"}}))
	assert.False(t, list.Equal(ActionList{{Type: "description"}, {Type: "avatar"}}), "order matters")
	assert.False(t, list.Equal(list[:1]))
	assert.True(t, ActionList{}.Equal(nil))
}

func TestActionListClone(t *testing.T) {
	original := ActionList{{Type: "avatar", Data: map[string]string{"url": "x"}}}
	clone := original.Clone()
	clone[0].Data["url"] = "changed"
	assert.Equal(t, "x", original[0].Data["url"])

	t.Run("nil clones to empty non-nil", func(t *testing.T) {
		var nilList ActionList
		clone := nilList.Clone()
		assert.NotNil(t, clone)
		assert.Empty(t, clone)
	})
}

func TestDigest(t *testing.T) {
	type config struct {
		Names []string `yaml:"names"`
	}

	a := Digest(config{Names: []string{"x", "y"}})
	b := Digest(config{Names: []string{"x", "y"}})
	c := Digest(config{Names: []string{"x"}})

	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestListenerOutput(t *testing.T) {
	var buf bytes.Buffer
	listener := NewListener(&buf).(*streamListener)
	listener.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}

	listener.Printf("Consulting %s", "github")
	listener.Error(errors.New("boom"), "Failed to reconcile %s", "widget")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "[2026-03-01T12:00:00Z] Consulting github", lines[0])
	assert.Equal(t, "[2026-03-01T12:00:00Z] ERROR: Failed to reconcile widget: boom", lines[1])
}

func TestEventKinds(t *testing.T) {
	for _, kind := range Kinds() {
		assert.True(t, kind.IsValid(), kind.String())
	}
	assert.False(t, EventKind("bogus").IsValid())
}

type idNavigator string

func (n idNavigator) ID() string { return string(n) }
func (n idNavigator) FetchActions(context.Context, Owner, Event, Listener) (ActionList, error) {
	return nil, nil
}
func (n idNavigator) VisitSources(context.Context, SourceObserver, Event) error { return nil }

func TestChangeEventMatching(t *testing.T) {
	event := &ChangeEvent{
		EventKind:    KindNavigator,
		EventType:    EventUpdated,
		NavigatorIDs: []string{"github"},
	}

	assert.True(t, event.MatchesNavigator(idNavigator("github")))
	assert.False(t, event.MatchesNavigator(idNavigator("gitlab")))
	assert.False(t, event.MatchesNavigator(nil))
	assert.False(t, event.MatchesSource(nil))
}
