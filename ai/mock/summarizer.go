package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/sitedex/ai"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default derivation from the excerpt text.
	SummarizeFunc func(ctx context.Context, excerpt, url string) (*ai.PageSummary, error)

	callCount atomic.Int64
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockSummarizer().
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize derives a simple deterministic title and summary from the excerpt.
// Default behavior: the title is the first few words of the excerpt, the
// summary is the first sentence.
func (m *MockSummarizer) Summarize(ctx context.Context, excerpt, url string) (*ai.PageSummary, error) {
	m.callCount.Add(1)

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, excerpt, url)
	}

	words := strings.Fields(excerpt)
	titleWords := words
	if len(titleWords) > 5 {
		titleWords = titleWords[:5]
	}

	summary := excerpt
	if i := strings.Index(excerpt, "."); i > 0 {
		summary = excerpt[:i+1]
	}

	return &ai.PageSummary{
		Title:   strings.Join(titleWords, " "),
		Summary: strings.TrimSpace(summary),
	}, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.callCount.Store(0)
	m.SummarizeFunc = nil
}
