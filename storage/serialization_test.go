package storage

import (
	"testing"
	"time"

	"github.com/poiesic/sitedex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalPageChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	chunk := &core.PageChunk{
		Url:     "https://ai.pydantic.dev/agents/",
		Index:   3,
		Title:   "Agents",
		Summary: "How agents work.",
		Content: "Agents are the primary interface for interacting with LLMs.",
		Metadata: core.ChunkMetadata{
			Source:    "pydantic_ai_docs",
			Size:      59,
			CrawledAt: now,
			URLPath:   "/agents/",
		},
		Vector:     []float32{0.25, -1.5, 0, 3.125},
		InsertedAt: now,
		UpdatedAt:  now.Add(time.Minute),
	}

	data := MarshalPageChunk(chunk)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalPageChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestUnmarshalPageChunk_Truncated(t *testing.T) {
	chunk := &core.PageChunk{Url: "https://example.com/", Content: "text"}
	data := MarshalPageChunk(chunk)

	_, err := UnmarshalPageChunk(data[:len(data)/2])
	assert.Error(t, err)
}
