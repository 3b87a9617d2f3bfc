package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

func TestRepository_LogRun(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	err := repo.LogRun(ctx, "run-1", entities.ActionMatchRun, map[string]any{
		"kind":    "legislator",
		"created": 3,
	})
	require.NoError(t, err)
	require.NoError(t, repo.LogRun(ctx, "run-2", entities.ActionMergeRun, nil))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, entities.ActionMergeRun, runs[0].Action)
	assert.Nil(t, runs[0].Details)

	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, "legislator", runs[1].Details["kind"])
	assert.EqualValues(t, 3, runs[1].Details["created"])
	assert.False(t, runs[1].CreatedAt.IsZero())
}

func TestRepository_ListRuns_Limit(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.LogRun(ctx, "run", entities.ActionImport, nil))
	}

	runs, err := repo.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
