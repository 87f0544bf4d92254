package folders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/orgscan/pkg/bulk"
)

func TestMemoryContainer(t *testing.T) {
	container := NewMemory()
	assert.Nil(t, container.Item("widget"))
	assert.Empty(t, container.Items())

	observer := container.NewObserver()
	require.True(t, observer.MayCreate("widget"))
	observer.Created(NewProject("widget"))

	require.NotNil(t, container.Item("widget"))
	assert.Equal(t, 1, container.Len())
}

func TestMemoryItemsKeepCreationOrder(t *testing.T) {
	container := NewMemory()
	observer := container.NewObserver()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.True(t, observer.MayCreate(name))
		observer.Created(NewProject(name))
	}

	items := container.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "zeta", items[0].Name())
	assert.Equal(t, "alpha", items[1].Name())
	assert.Equal(t, "mid", items[2].Name())
}

func TestObserverRefusesDuplicateIdentifier(t *testing.T) {
	container := NewMemory()
	observer := container.NewObserver()

	require.True(t, observer.MayCreate("widget"))
	observer.Created(NewProject("widget"))

	// A second project resolving to the same identifier in the same pass.
	assert.Nil(t, observer.ShouldUpdate("widget"))
	assert.False(t, observer.MayCreate("widget"))
}

func TestObserverUpdateThenDuplicate(t *testing.T) {
	container := NewMemory()
	first := container.NewObserver()
	require.True(t, first.MayCreate("widget"))
	first.Created(NewProject("widget"))

	// Next pass: the existing child may be updated once.
	observer := container.NewObserver()
	existing := observer.ShouldUpdate("widget")
	require.NotNil(t, existing)

	// The same pass refuses a second contribution for the identifier.
	assert.Nil(t, observer.ShouldUpdate("widget"))
	assert.False(t, observer.MayCreate("widget"))
}

func TestObserverScopedToOnePass(t *testing.T) {
	container := NewMemory()
	observer := container.NewObserver()
	require.True(t, observer.MayCreate("widget"))
	observer.Created(NewProject("widget"))

	// A fresh pass sees the child as updatable again.
	next := container.NewObserver()
	assert.NotNil(t, next.ShouldUpdate("widget"))
}

func TestProjectSaveInsideBatchIsDeferred(t *testing.T) {
	project := NewProject("widget")

	require.NoError(t, project.Save())
	assert.Equal(t, 1, project.Saves())

	batch := bulk.Open(project)
	require.NoError(t, project.Save())
	assert.Equal(t, 1, project.Saves())
	require.NoError(t, batch.Commit())
	assert.Equal(t, 2, project.Saves())
}
