package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/search-indexer/internal/domain"
	"github.com/utafrali/search-indexer/internal/engine/memory"
)

func TestMemory_BulkAndCount(t *testing.T) {
	eng := memory.New()
	ctx := context.Background()

	require.NoError(t, eng.CreateIndex(ctx, "products_v4", "{}"))

	result, err := eng.Bulk(ctx, "products_v4", []domain.SearchDocument{
		{ProductID: 1},
		{ProductID: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Empty(t, result.Failed)

	count, err := eng.CountDocuments(ctx, "products_v4")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, eng.BulkCalls())
}

func TestMemory_BulkMissingIndex(t *testing.T) {
	eng := memory.New()

	_, err := eng.Bulk(context.Background(), "nope", []domain.SearchDocument{{ProductID: 1}})
	assert.Error(t, err)
}

func TestMemory_BulkRejectsConfiguredIDs(t *testing.T) {
	eng := memory.New()
	eng.RejectIDs = map[string]bool{"2": true}
	ctx := context.Background()

	require.NoError(t, eng.CreateIndex(ctx, "products_v4", "{}"))

	result, err := eng.Bulk(ctx, "products_v4", []domain.SearchDocument{
		{ProductID: 1},
		{ProductID: 2},
		{ProductID: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "2", result.Failed[0].ID)
}

func TestMemory_AliasSwapAndCountThroughAlias(t *testing.T) {
	eng := memory.New()
	ctx := context.Background()

	require.NoError(t, eng.CreateIndex(ctx, "products_v3", "{}"))
	require.NoError(t, eng.CreateIndex(ctx, "products_v4", "{}"))
	_, err := eng.Bulk(ctx, "products_v4", []domain.SearchDocument{{ProductID: 1}})
	require.NoError(t, err)

	require.NoError(t, eng.SwapAlias(ctx, "products_current", "products_v3"))
	require.NoError(t, eng.SwapAlias(ctx, "products_current", "products_v4"))

	index, ok := eng.Alias("products_current")
	require.True(t, ok)
	assert.Equal(t, "products_v4", index)

	count, err := eng.CountDocuments(ctx, "products_current")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemory_SwapAliasUnknownIndex(t *testing.T) {
	eng := memory.New()
	assert.Error(t, eng.SwapAlias(context.Background(), "products_current", "missing"))
}

func TestMemory_CreateIndexResetsDocuments(t *testing.T) {
	eng := memory.New()
	ctx := context.Background()

	require.NoError(t, eng.CreateIndex(ctx, "products_v4", "{}"))
	_, err := eng.Bulk(ctx, "products_v4", []domain.SearchDocument{{ProductID: 1}})
	require.NoError(t, err)

	require.NoError(t, eng.CreateIndex(ctx, "products_v4", "{}"))
	count, err := eng.CountDocuments(ctx, "products_v4")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
