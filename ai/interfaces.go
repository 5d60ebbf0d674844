package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// PageSummary is the result of summarizing one chunk of page content.
type PageSummary struct {
	// Title is the document title for a leading chunk, or a descriptive
	// title derived for a middle chunk.
	Title string

	// Summary is a concise summary of the chunk's main points.
	Summary string
}

// Summarizer derives a short title and summary from a chunk of page text.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize derives a title and summary for the given text excerpt.
	// The url identifies the page the excerpt came from and gives the model
	// context for title derivation.
	// Returns an error on transport failure or malformed model output.
	Summarize(ctx context.Context, excerpt, url string) (*PageSummary, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Summarizer instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Summarizer returns the title/summary derivation service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
