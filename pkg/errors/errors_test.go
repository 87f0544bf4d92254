package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchError(t *testing.T) {
	cause := New("rate limited")
	err := NewFetchError("github", cause)

	assert.Contains(t, err.Error(), "github")
	assert.ErrorIs(t, err, ErrNavigatorUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsFetchError(err))
	assert.False(t, IsFetchError(cause))
}

func TestDiscoveryError(t *testing.T) {
	cause := New("api down")
	err := NewDiscoveryError("github", cause)

	assert.Contains(t, err.Error(), "github")
	assert.ErrorIs(t, err, cause)
}

func TestReconcileError(t *testing.T) {
	cause := New("factory refused")
	err := NewReconcileError("widget", cause)

	assert.Contains(t, err.Error(), "widget")
	assert.ErrorIs(t, err, cause)
}

func TestPersistError(t *testing.T) {
	cause := New("disk full")
	err := NewPersistError("write", "/tmp/state.yaml", cause)

	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "/tmp/state.yaml")
	assert.ErrorIs(t, err, cause)

	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "write", pe.Operation)
}

func TestWrapParse(t *testing.T) {
	cause := New("bad indent")
	err := WrapParse("yaml", "state.yaml", cause)

	assert.Contains(t, err.Error(), "state.yaml")
	assert.ErrorIs(t, err, cause)

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "container", Message: "a container is required"}

	assert.Contains(t, err.Error(), "container")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSentinelHelpers(t *testing.T) {
	assert.True(t, IsInterrupted(ErrInterrupted))
	assert.False(t, IsInterrupted(ErrNotFound))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsDuplicateChild(ErrDuplicateChild))
}
