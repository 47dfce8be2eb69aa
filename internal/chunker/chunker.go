package chunker

import "pdf-ingest-service/models"

// Split cuts text into consecutive, non-overlapping chunks of exactly size
// characters; the final chunk holds the remainder. Splitting is by character
// (rune) count with no look-ahead for word or sentence boundaries. Empty text
// yields zero chunks. size must be positive.
func Split(text string, size int) []models.TextChunk {
	if size < 1 || text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]models.TextChunk, 0, (len(runes)+size-1)/size)

	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.TextChunk{
			SequenceIndex: len(chunks),
			Text:          string(runes[i:end]),
		})
	}

	return chunks
}
