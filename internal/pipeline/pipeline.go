package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"pdf-ingest-service/internal/chunker"
	"pdf-ingest-service/internal/logger"
	"pdf-ingest-service/internal/search"
	"pdf-ingest-service/models"
)

// ValidationError indicates a bad or missing request field. It is the only
// pipeline failure surfaced as a client error.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ObjectFetcher retrieves an object's bytes from storage.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// TextExtractor converts raw document bytes to best-effort plain text.
type TextExtractor interface {
	ExtractText(content []byte) (string, error)
}

// Embedder returns the embedding vector for a chunk of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BulkIndexer submits a newline-delimited bulk body to the search engine.
type BulkIndexer interface {
	Bulk(ctx context.Context, body []byte) error
}

// Pipeline runs one ingestion request end to end: fetch, extract, chunk,
// embed, build bulk payload, submit. All state is request-scoped; nothing is
// shared across invocations.
type Pipeline struct {
	fetcher   ObjectFetcher
	extractor TextExtractor
	embedder  Embedder
	indexer   BulkIndexer

	chunkSize   int
	concurrency int
}

func New(fetcher ObjectFetcher, extractor TextExtractor, embedder Embedder, indexer BulkIndexer, chunkSize, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		fetcher:     fetcher,
		extractor:   extractor,
		embedder:    embedder,
		indexer:     indexer,
		chunkSize:   chunkSize,
		concurrency: concurrency,
	}
}

// Ingest executes the pipeline for one request. Stages run in strict
// sequence; within the embedding stage, per-chunk calls fan out with bounded
// concurrency and results are reassembled into chunk order. Any embedding
// failure aborts the run before anything is written, so a document is never
// partially indexed by a single run.
func (p *Pipeline) Ingest(ctx context.Context, req models.IngestRequest) (models.IngestSummary, error) {
	tracer := otel.Tracer("ingest-pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.ingest")
	defer span.End()

	runID := uuid.NewString()
	span.SetAttributes(
		attribute.String("ingest.doc_id", req.DocID),
		attribute.String("ingest.s3_key", req.S3Key),
		attribute.String("ingest.run_id", runID),
	)

	summary, err := p.ingest(ctx, req, runID)
	if err != nil {
		span.SetAttributes(attribute.Bool("ingest.failed", true))
		return summary, err
	}
	span.SetAttributes(attribute.Int("ingest.chunk_count", summary.ChunkCount))
	return summary, nil
}

func (p *Pipeline) ingest(ctx context.Context, req models.IngestRequest, runID string) (models.IngestSummary, error) {
	// Validating: no external call is made for a bad request.
	if req.DocID == "" || req.S3Key == "" {
		return models.IngestSummary{}, &ValidationError{Msg: "Missing doc_id or s3_key"}
	}

	// Fetching
	logger.Debug("fetching object", "run_id", runID, "s3_key", req.S3Key)
	content, err := p.fetcher.Fetch(ctx, req.S3Key)
	if err != nil {
		return models.IngestSummary{}, err
	}

	// Extracting: a document with no text is a valid, empty ingestion.
	text, err := p.extractor.ExtractText(content)
	if err != nil {
		return models.IngestSummary{}, err
	}

	// Chunking
	chunks := chunker.Split(text, p.chunkSize)
	logger.Info("document chunked", "run_id", runID, "doc_id", req.DocID, "chars", len(text), "chunks", len(chunks))

	if len(chunks) == 0 {
		return models.IngestSummary{ChunkCount: 0}, nil
	}

	// Embedding: bounded fan-out, all-or-nothing. Results slot into their
	// chunk's index so completion order never affects output order.
	results := make([]models.EmbeddingResult, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, chunk := range chunks {
		g.Go(func() error {
			vector, err := p.embedder.Embed(gctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", chunk.SequenceIndex, err)
			}
			results[chunk.SequenceIndex] = models.EmbeddingResult{Chunk: chunk, Vector: vector}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.IngestSummary{}, err
	}

	// Building
	body, err := search.BuildBulkBody(req.DocID, results)
	if err != nil {
		return models.IngestSummary{}, err
	}

	// Submitting
	if err := p.indexer.Bulk(ctx, body); err != nil {
		return models.IngestSummary{}, err
	}

	logger.Info("ingest complete", "run_id", runID, "doc_id", req.DocID, "chunks", len(chunks))
	return models.IngestSummary{ChunkCount: len(chunks)}, nil
}
