package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BUCKET_NAME", "docs-bucket")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENSEARCH_URL", "http://localhost:9200")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.ChunkSize)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingsModel)
	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingsURL)
	assert.Equal(t, 4, cfg.EmbedConcurrency)
	assert.Equal(t, "ap-south-1", cfg.AWSRegion)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	cases := []struct {
		name string
		skip string
	}{
		{"bucket", "BUCKET_NAME"},
		{"api key", "OPENAI_API_KEY"},
		{"search url", "OPENSEARCH_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.skip, "")

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigChunkSize(t *testing.T) {
	setRequired(t)
	t.Setenv("CHUNK_SIZE", "800")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.ChunkSize)
}

func TestLoadConfigRejectsNonPositiveChunkSize(t *testing.T) {
	setRequired(t)
	t.Setenv("CHUNK_SIZE", "-10")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHUNK_SIZE")
}
