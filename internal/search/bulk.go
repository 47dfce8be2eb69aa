package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pdf-ingest-service/models"
)

// bulkIndexAction is the action line preceding each document in a bulk body.
type bulkIndexAction struct {
	Index bulkIndexMeta `json:"index"`
}

type bulkIndexMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// bulkDocument is the document line: chunk text plus its embedding.
type bulkDocument struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// BuildBulkBody assembles the newline-delimited bulk payload for docID. Each
// result emits an action line then a document line, in input order, with a
// trailing newline after the last document. Document ids are
// "{doc_id}-{sequence_index}", so re-ingesting a document overwrites its
// chunks in place instead of duplicating them. Empty results yield an empty
// payload.
func BuildBulkBody(docID string, results []models.EmbeddingResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, r := range results {
		action := bulkIndexAction{
			Index: bulkIndexMeta{
				Index: docID,
				ID:    fmt.Sprintf("%s-%d", docID, r.Chunk.SequenceIndex),
			},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(bulkDocument{Text: r.Chunk.Text, Embedding: r.Vector}); err != nil {
			return nil, fmt.Errorf("failed to encode bulk document: %w", err)
		}
	}

	return buf.Bytes(), nil
}
