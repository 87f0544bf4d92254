package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// entity counts physical writes, consulting its guard like any real
// implementation.
type entity struct {
	guard Guard
	saves int
}

func (e *entity) Save() error {
	if e.guard.Suppress() {
		return nil
	}
	e.saves++
	return nil
}

func (e *entity) BatchGuard() *Guard { return &e.guard }

func TestSaveOutsideBatchWritesImmediately(t *testing.T) {
	e := &entity{}
	assert.NoError(t, e.Save())
	assert.Equal(t, 1, e.saves)
}

func TestBatchDefersSavesUntilCommit(t *testing.T) {
	e := &entity{}
	b := Open(e)
	assert.True(t, e.guard.Held())

	assert.NoError(t, e.Save())
	assert.NoError(t, e.Save())
	assert.Equal(t, 0, e.saves)

	assert.NoError(t, b.Commit())
	assert.Equal(t, 1, e.saves)
	assert.False(t, e.guard.Held())
}

func TestAbortSkipsWrite(t *testing.T) {
	e := &entity{}
	b := Open(e)
	assert.NoError(t, e.Save())
	b.Abort()

	assert.Equal(t, 0, e.saves)
	assert.False(t, e.guard.Held())

	// A save after the batch is gone writes normally again.
	assert.NoError(t, e.Save())
	assert.Equal(t, 1, e.saves)
}

func TestAbortAfterCommitIsNoOp(t *testing.T) {
	e := &entity{}
	b := Open(e)
	defer b.Abort()
	assert.NoError(t, e.Save())
	assert.NoError(t, b.Commit())
	b.Abort()

	assert.Equal(t, 1, e.saves)
	assert.False(t, e.guard.Held())
}

func TestDoubleCommitWritesOnce(t *testing.T) {
	e := &entity{}
	b := Open(e)
	assert.NoError(t, b.Commit())
	assert.NoError(t, b.Commit())
	assert.Equal(t, 1, e.saves)
}

func TestNestedBatches(t *testing.T) {
	e := &entity{}
	outer := Open(e)
	inner := Open(e)

	assert.NoError(t, e.Save())
	assert.NoError(t, inner.Commit())
	// The outer batch is still open, so the inner commit's write was
	// suppressed too.
	assert.Equal(t, 0, e.saves)

	assert.NoError(t, outer.Commit())
	assert.Equal(t, 1, e.saves)
}
