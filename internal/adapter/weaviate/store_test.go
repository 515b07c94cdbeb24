package weaviate_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wv "github.com/weaviate/weaviate-go-client/v5/weaviate"

	wstore "docsmith/apps/backend/internal/adapter/weaviate"
	"docsmith/apps/backend/internal/ingest"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) (*wstore.Store, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		handler(w, r)
	}))

	cfg := wv.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := wv.NewClient(cfg)
	require.NoError(t, err)
	return wstore.NewStore(client, "DocChunk"), ts
}

func TestStore_Search(t *testing.T) {
	store, ts := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"Get": {
					"DocChunk": [
						{
							"content": "chunkSize of 1000 and chunkOverlap of 200",
							"url": "/config",
							"chunkIndex": 0,
							"_additional": {"certainty": 0.93}
						},
						{
							"content": "introduction text",
							"url": "/",
							"chunkIndex": 2,
							"_additional": {"certainty": 0.71}
						}
					]
				}
			}
		}`))
	})
	defer ts.Close()

	results, err := store.Search(context.Background(), []float32{0.1, 0.2}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "/config", results[0].URL)
	assert.Contains(t, results[0].Content, "1000")
	assert.InDelta(t, 0.93, float64(results[0].Score), 0.001)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestStore_Search_GraphQLError(t *testing.T) {
	store, ts := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors": [{"message": "class not found"}]}`))
	})
	defer ts.Close()

	_, err := store.Search(context.Background(), []float32{0.1}, 5)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "graphql error")
}

func TestStore_UpsertBatch(t *testing.T) {
	var captured []map[string]interface{}

	store, ts := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Objects []map[string]interface{} `json:"objects"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		captured = payload.Objects

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"result": {"status": "SUCCESS"}}, {"result": {"status": "SUCCESS"}}]`))
	})
	defer ts.Close()

	records := []ingest.Record{
		{Content: "first chunk", URL: "/config", ChunkIndex: 0, Vector: []float32{0.1, 0.2}},
		{Content: "second chunk", URL: "/config", ChunkIndex: 1, Vector: []float32{0.3, 0.4}},
	}

	err := store.UpsertBatch(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, captured, 2)

	assert.Equal(t, "DocChunk", captured[0]["class"])
	props := captured[0]["properties"].(map[string]interface{})
	assert.Equal(t, "first chunk", props["content"])
	assert.Equal(t, "/config", props["url"])

	firstID := captured[0]["id"]
	assert.NotEmpty(t, firstID)
	assert.NotEqual(t, firstID, captured[1]["id"])

	// Re-upserting identical records must produce identical IDs.
	err = store.UpsertBatch(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, firstID, captured[0]["id"])
}

func TestStore_UpsertBatch_ObjectError(t *testing.T) {
	store, ts := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"result": {"status": "FAILED", "errors": {"error": [{"message": "vector length mismatch"}]}}}]`))
	})
	defer ts.Close()

	err := store.UpsertBatch(context.Background(), []ingest.Record{
		{Content: "bad", URL: "/x", Vector: []float32{0.1}},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vector length mismatch")
}

func TestStore_UpsertBatch_Empty(t *testing.T) {
	store, ts := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty batch")
	})
	defer ts.Close()

	assert.NoError(t, store.UpsertBatch(context.Background(), nil))
}

func TestStore_Reset(t *testing.T) {
	var deleted, created bool

	store, ts := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/v1/schema/DocChunk":
			if deleted {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"class": "DocChunk"}`))
		case r.Method == "DELETE" && r.URL.Path == "/v1/schema/DocChunk":
			deleted = true
			w.WriteHeader(http.StatusOK)
		case r.Method == "POST" && r.URL.Path == "/v1/schema":
			created = true
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	defer ts.Close()

	err := store.Reset(context.Background())
	require.NoError(t, err)
	assert.True(t, deleted, "existing class should be deleted")
	assert.True(t, created, "class should be recreated after delete")
}
