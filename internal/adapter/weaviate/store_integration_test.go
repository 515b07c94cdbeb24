package weaviate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wstore "docsmith/apps/backend/internal/adapter/weaviate"
	"docsmith/apps/backend/internal/ingest"
	"docsmith/apps/backend/internal/testutils"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := wstore.NewStore(s.Weaviate, "DocChunkIntegration")
	ctx := context.Background()

	require.NoError(t, store.Reset(ctx))

	records := []ingest.Record{
		{Content: "chunkSize of 1000 and chunkOverlap of 200", URL: "/config", ChunkIndex: 0, Vector: []float32{1, 0, 0}},
		{Content: "Install with npm.", URL: "/getting-started", ChunkIndex: 0, Vector: []float32{0, 1, 0}},
	}
	require.NoError(t, store.UpsertBatch(ctx, records))

	results, err := store.Search(ctx, []float32{0.99, 0.01, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/config", results[0].URL)
	assert.Contains(t, results[0].Content, "1000")
	assert.Greater(t, results[0].Score, results[1].Score)

	// Re-upserting the same records must not duplicate them.
	require.NoError(t, store.UpsertBatch(ctx, records))
	results, err = store.Search(ctx, []float32{0.99, 0.01, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Reset drops everything.
	require.NoError(t, store.Reset(ctx))
	results, err = store.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
