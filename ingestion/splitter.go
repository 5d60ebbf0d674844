package ingestion

import "strings"

const (
	// DefaultChunkSize is the target chunk size in characters.
	DefaultChunkSize = 5000

	codeFenceDelimiter = "```"
	paragraphBreak     = "\n\n"
	sentenceBreak      = ". "

	// A break point is only accepted past this fraction of the window,
	// so boundary-aware splitting never produces a near-empty chunk.
	breakThreshold = 0.3
)

// SplitText splits text into chunks of at most targetSize characters,
// preferring to break at code fence, paragraph, and sentence boundaries,
// in that order. Chunks are trimmed of surrounding whitespace; chunks that
// trim to empty are dropped. Concatenation order follows the input.
func SplitText(text string, targetSize int) []string {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}

	var chunks []string
	threshold := int(float64(targetSize) * breakThreshold)
	cursor := 0

	for cursor < len(text) {
		end := cursor + targetSize

		// Rest of the text fits in one chunk
		if end >= len(text) {
			if rest := strings.TrimSpace(text[cursor:]); rest != "" {
				chunks = append(chunks, rest)
			}
			break
		}

		window := text[cursor:end]

		if i := strings.LastIndex(window, codeFenceDelimiter); i > threshold {
			end = cursor + i + len(codeFenceDelimiter)
		} else if i := strings.LastIndex(window, paragraphBreak); i > threshold {
			end = cursor + i
		} else if i := strings.LastIndex(window, sentenceBreak); i > threshold {
			// Keep the period with the sentence it terminates
			end = cursor + i + 1
		}

		if chunk := strings.TrimSpace(text[cursor:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// The +1 floor guarantees progress on pathological input
		cursor = max(cursor+1, end)
	}

	return chunks
}
