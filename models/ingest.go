package models

// IngestRequest is the inbound request body for an ingestion run.
// DocID doubles as the target search index name.
type IngestRequest struct {
	DocID string `json:"doc_id"`
	S3Key string `json:"s3_key"`
}

// TextChunk is one fixed-size slice of the extracted document text.
// SequenceIndex is the 0-based position in the chunk sequence and is
// the sole source of chunk identity.
type TextChunk struct {
	SequenceIndex int
	Text          string
}

// EmbeddingResult pairs a chunk with its embedding vector.
type EmbeddingResult struct {
	Chunk  TextChunk
	Vector []float32
}

// IngestSummary is returned to the caller on success.
type IngestSummary struct {
	ChunkCount int `json:"chunk_count"`
}
