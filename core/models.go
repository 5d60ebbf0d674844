package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkMetadata carries provenance information for a stored chunk.
type ChunkMetadata struct {
	Source    string    // Tag identifying the ingestion job, e.g. "pydantic_ai_docs"
	Size      int       // Length of the chunk content in bytes
	CrawledAt time.Time // When the chunk was enriched
	URLPath   string    // Path component of the page URL
}

// PageChunk is the atomic unit of storage and retrieval: one bounded slice of
// a page's text, enriched with a derived title/summary and an embedding
// vector. The natural key is (Url, Index); re-ingesting a page overwrites at
// that key rather than growing the store. A chunk is never mutated after the
// pipeline hands it to storage.
type PageChunk struct {
	Url        string
	Index      int // Position within the source page, assigned in text order starting at 0
	Title      string
	Summary    string
	Content    string
	Metadata   ChunkMetadata
	Vector     []float32 // Embedding for semantic search; all-zero when embedding failed
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ChunkMatch represents a chunk matched by vector similarity search.
type ChunkMatch struct {
	Chunk *PageChunk
	Score float32
}
