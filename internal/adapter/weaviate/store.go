package weaviate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"docsmith/apps/backend/internal/ingest"
	"docsmith/apps/backend/internal/retrieval"
	"docsmith/apps/backend/internal/vector"
)

// Store holds indexed chunk records in a single Weaviate class.
type Store struct {
	client *weaviate.Client
	class  string
}

func NewStore(client *weaviate.Client, class string) *Store {
	return &Store{client: client, class: class}
}

// Reset drops every stored record by deleting and recreating the class.
// It must complete before any upsert of the same ingestion run; the gap
// between reset and repopulation is not transactional.
func (s *Store) Reset(ctx context.Context) error {
	adapter := vector.NewWeaviateClientAdapter(s.client)
	return vector.ResetSchema(ctx, adapter, s.class)
}

// UpsertBatch writes records in one batch call. Record IDs are derived from
// the (url, content, position) fingerprint, so reingesting identical input
// overwrites rather than duplicates.
func (s *Store) UpsertBatch(ctx context.Context, records []ingest.Record) error {
	if len(records) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(records))
	for i, rec := range records {
		objects[i] = &models.Object{
			Class: s.class,
			ID:    recordID(rec),
			Properties: map[string]interface{}{
				"content":    rec.Content,
				"url":        rec.URL,
				"chunkIndex": rec.ChunkIndex,
			},
			Vector: models.C11yVector(rec.Vector),
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}

	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch upsert rejected object: %s", r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Search returns up to limit records nearest to the query vector, most
// similar first, in the store's native rank order.
func (s *Store) Search(ctx context.Context, queryVector []float32, limit int) ([]retrieval.Result, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "url"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.Result
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	chunks, ok := data[s.class].([]interface{})
	if !ok {
		return results, nil
	}

	for _, c := range chunks {
		props, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		var result retrieval.Result
		if content, ok := props["content"].(string); ok {
			result.Content = content
		}
		if url, ok := props["url"].(string); ok {
			result.URL = url
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			switch v := additional["certainty"].(type) {
			case float64:
				result.Score = float32(v)
			case string:
				var f float64
				fmt.Sscanf(v, "%f", &f)
				result.Score = float32(f)
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// recordID is a deterministic content fingerprint, stable across runs.
func recordID(rec ingest.Record) strfmt.UUID {
	seed := rec.URL + "\x00" + strconv.Itoa(rec.ChunkIndex) + "\x00" + rec.Content
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String())
}
