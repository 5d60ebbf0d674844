package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost)
	assert.Equal(t, "https://api.openai.com/v1", cfg.SummaryHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.SummaryModel)
	assert.Equal(t, DefaultEmbeddingDimensions, cfg.EmbeddingDimensions)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://localhost:11434"),
		WithEmbeddingModel("embeddinggemma"),
		WithSummaryModel("qwen2.5:3b"),
		WithEmbeddingDimensions(768),
		WithToken("secret"),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.SummaryHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.SummaryModel)
	assert.Equal(t, 768, cfg.EmbeddingDimensions)
	assert.Equal(t, "secret", cfg.Token)
}

func TestNewConfig_SeparateHosts(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://embed.local:9100"),
		WithSummaryHost("http://chat.local:9200/v1"),
	)

	cfg.Normalize()
	assert.Equal(t, "http://embed.local:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://chat.local:9200/v1", cfg.SummaryHost)
}

func TestConfig_Normalize_TrailingSlash(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty embedding host", func(c *Config) { c.EmbeddingHost = "" }},
		{"empty summary host", func(c *Config) { c.SummaryHost = "" }},
		{"empty embedding model", func(c *Config) { c.EmbeddingModel = "" }},
		{"empty summary model", func(c *Config) { c.SummaryModel = "" }},
		{"zero dimensions", func(c *Config) { c.EmbeddingDimensions = 0 }},
		{"negative dimensions", func(c *Config) { c.EmbeddingDimensions = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_Normalizes(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434"))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}
