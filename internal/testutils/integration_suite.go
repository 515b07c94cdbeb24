package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"docsmith/apps/backend/internal/config"
)

// IntegrationSuite starts a throwaway Weaviate and hands out a client
// pointed at it. Tests needing the generation service stub it separately;
// there is no container for Gemini.
type IntegrationSuite struct {
	T            *testing.T
	Weaviate     *weaviate.Client
	WeaviateHost string

	weaviateContainer testcontainers.Container
}

func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	return &IntegrationSuite{T: t}
}

func (s *IntegrationSuite) Setup() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "semitechnologies/weaviate:latest",
		ExposedPorts: []string{"8080/tcp", "50051/tcp"},
		Env: map[string]string{
			"AUTHENTICATION_ANONYMOUS_ACCESS_ENABLED": "true",
			"DEFAULT_VECTORIZER_MODULE":               "none",
			"PERSISTENCE_DATA_PATH":                   "/var/lib/weaviate",
		},
		WaitingFor: wait.ForHTTP("/v1/meta").WithPort("8080/tcp").WithStartupTimeout(60 * time.Second),
	}
	weaviateC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T, err)
	s.weaviateContainer = weaviateC

	host, err := weaviateC.Host(ctx)
	require.NoError(s.T, err)
	port, err := weaviateC.MappedPort(ctx, "8080")
	require.NoError(s.T, err)

	s.WeaviateHost = fmt.Sprintf("%s:%s", host, port.Port())
	s.Weaviate, err = weaviate.NewClient(weaviate.Config{
		Host:   s.WeaviateHost,
		Scheme: "http",
	})
	require.NoError(s.T, err)
}

func (s *IntegrationSuite) Teardown() {
	if s.weaviateContainer != nil {
		s.weaviateContainer.Terminate(context.Background())
	}
}

// GetAppConfig returns a config wired to the running container, with the
// external model endpoints left for the caller to stub.
func (s *IntegrationSuite) GetAppConfig() *config.Config {
	return &config.Config{
		WeaviateHost:       s.WeaviateHost,
		WeaviateScheme:     "http",
		WeaviateClass:      "DocChunkTest",
		GeminiAPIKey:       "test-key",
		EmbeddingModel:     "gemini-embedding-001",
		ChatModel:          "gemini-2.0-flash",
		RewriteModel:       "gemini-2.0-flash",
		ChunkSize:          1000,
		ChunkOverlap:       200,
		RetrievalK:         5,
		CallTimeoutSeconds: 30,
		ServerPort:         8081,
	}
}
