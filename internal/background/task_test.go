package background

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTaskStoreRoundTrip(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	result := &TaskResult{
		ProcessID: "import_1",
		Status:    TaskStatusAccepted,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Store(ctx, result))

	got, err := store.Get(ctx, "import_1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusAccepted, got.Status)

	result.Status = TaskStatusSuccess
	require.NoError(t, store.Update(ctx, result))

	got, err = store.Get(ctx, "import_1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusSuccess, got.Status)
}

func TestInMemoryTaskStoreUnknownProcess(t *testing.T) {
	store := NewInMemoryTaskStore()

	_, err := store.Get(context.Background(), "import_missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = store.Update(context.Background(), &TaskResult{ProcessID: "import_missing"})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestInMemoryTaskStoreCleanup(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	completed := time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.Store(ctx, &TaskResult{
		ProcessID:   "import_old",
		Status:      TaskStatusSuccess,
		CreatedAt:   completed,
		CompletedAt: &completed,
	}))
	require.NoError(t, store.Store(ctx, &TaskResult{
		ProcessID: "import_live",
		Status:    TaskStatusProcessing,
		CreatedAt: time.Now(),
	}))

	require.NoError(t, store.Cleanup(ctx, time.Hour))

	_, err := store.Get(ctx, "import_old")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = store.Get(ctx, "import_live")
	assert.NoError(t, err, "recent tasks survive cleanup")
}
