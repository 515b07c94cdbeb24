package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
	DeleteClass(ctx context.Context, className string) error
}

// Properties returns the schema for an indexed chunk record: the chunk text,
// the canonical page URL it came from and its position within the page.
func Properties() []*models.Property {
	return []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "url",
			DataType: []string{"string"}, // canonical page path, exact match
		},
		{
			Name:     "chunkIndex",
			DataType: []string{"int"},
		},
	}
}

// EnsureSchema creates the chunk class if missing. Vectors are supplied by
// the embedding service, never by Weaviate, and compared with cosine
// distance to match the embedding space.
func EnsureSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	properties := Properties()

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "A chunk of an indexed documentation page",
			Vectorizer:  "none",
			VectorIndexConfig: map[string]interface{}{
				"distance": "cosine",
			},
			Properties: properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// ResetSchema drops the class and recreates it empty. This is the full
// collection reset that precedes a reingestion run.
func ResetSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}
	if exists {
		if err := client.DeleteClass(ctx, className); err != nil {
			return err
		}
	}
	return EnsureSchema(ctx, client, className)
}
