package vector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/weaviate/weaviate/entities/models"

	"docsmith/apps/backend/internal/vector"
)

type MockSchemaClient struct{ mock.Mock }

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	args := m.Called(ctx, className)
	return args.Bool(0), args.Error(1)
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	return m.Called(ctx, class).Error(0)
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	args := m.Called(ctx, className)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Class), args.Error(1)
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return m.Called(ctx, className, property).Error(0)
}

func (m *MockSchemaClient) DeleteClass(ctx context.Context, className string) error {
	return m.Called(ctx, className).Error(0)
}

func TestEnsureSchema_CreatesClassWhenMissing(t *testing.T) {
	client := new(MockSchemaClient)
	client.On("ClassExists", mock.Anything, "DocChunk").Return(false, nil)
	client.On("CreateClass", mock.Anything, mock.MatchedBy(func(c *models.Class) bool {
		if c.Class != "DocChunk" || c.Vectorizer != "none" {
			return false
		}
		cfg, ok := c.VectorIndexConfig.(map[string]interface{})
		return ok && cfg["distance"] == "cosine"
	})).Return(nil)

	err := vector.EnsureSchema(context.Background(), client, "DocChunk")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestEnsureSchema_AddsMissingProperties(t *testing.T) {
	client := new(MockSchemaClient)
	client.On("ClassExists", mock.Anything, "DocChunk").Return(true, nil)
	client.On("GetClass", mock.Anything, "DocChunk").Return(&models.Class{
		Class: "DocChunk",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
		},
	}, nil)
	client.On("AddProperty", mock.Anything, "DocChunk", mock.MatchedBy(func(p *models.Property) bool {
		return p.Name == "url"
	})).Return(nil)
	client.On("AddProperty", mock.Anything, "DocChunk", mock.MatchedBy(func(p *models.Property) bool {
		return p.Name == "chunkIndex"
	})).Return(nil)

	err := vector.EnsureSchema(context.Background(), client, "DocChunk")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestResetSchema_DropsAndRecreates(t *testing.T) {
	client := new(MockSchemaClient)
	// First check is the reset, second is EnsureSchema after the drop.
	client.On("ClassExists", mock.Anything, "DocChunk").Return(true, nil).Once()
	client.On("DeleteClass", mock.Anything, "DocChunk").Return(nil).Once()
	client.On("ClassExists", mock.Anything, "DocChunk").Return(false, nil).Once()
	client.On("CreateClass", mock.Anything, mock.Anything).Return(nil).Once()

	err := vector.ResetSchema(context.Background(), client, "DocChunk")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestResetSchema_NoDeleteWhenMissing(t *testing.T) {
	client := new(MockSchemaClient)
	client.On("ClassExists", mock.Anything, "DocChunk").Return(false, nil).Twice()
	client.On("CreateClass", mock.Anything, mock.Anything).Return(nil).Once()

	err := vector.ResetSchema(context.Background(), client, "DocChunk")
	assert.NoError(t, err)
	client.AssertNotCalled(t, "DeleteClass", mock.Anything, mock.Anything)
}
