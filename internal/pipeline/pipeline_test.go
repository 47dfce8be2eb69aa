package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ingest-service/internal/ai"
	"pdf-ingest-service/models"
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(content []byte) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	mu      sync.Mutex
	inputs  []string
	failOn  string
	failErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(text, f.failOn) {
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, &ai.EmbeddingServiceError{Message: "boom"}
	}
	// Vector derived from the text so tests can tell chunks apart
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type fakeIndexer struct {
	mu     sync.Mutex
	bodies [][]byte
	err    error
}

func (f *fakeIndexer) Bulk(ctx context.Context, body []byte) error {
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	return f.err
}

func newTestPipeline(fetcher *fakeFetcher, extractor *fakeExtractor, embedder *fakeEmbedder, indexer *fakeIndexer, chunkSize int) *Pipeline {
	return New(fetcher, extractor, embedder, indexer, chunkSize, 3)
}

func TestIngestValidation(t *testing.T) {
	fetcher := &fakeFetcher{}
	pipe := newTestPipeline(fetcher, &fakeExtractor{}, &fakeEmbedder{}, &fakeIndexer{}, 1500)

	for _, req := range []models.IngestRequest{
		{},
		{DocID: "doc42"},
		{S3Key: "a.pdf"},
	} {
		_, err := pipe.Ingest(context.Background(), req)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	}

	assert.Zero(t, fetcher.calls, "validation failure must make no external calls")
}

func TestIngestEmptyDocumentSucceeds(t *testing.T) {
	embedder := &fakeEmbedder{}
	indexer := &fakeIndexer{}
	pipe := newTestPipeline(&fakeFetcher{data: []byte("pdf")}, &fakeExtractor{text: ""}, embedder, indexer, 1500)

	summary, err := pipe.Ingest(context.Background(), models.IngestRequest{DocID: "doc42", S3Key: "a.pdf"})
	require.NoError(t, err)

	assert.Zero(t, summary.ChunkCount)
	assert.Zero(t, embedder.callCount(), "no embedding calls for an empty document")
	assert.Empty(t, indexer.bodies, "no bulk submission for an empty document")
}

func TestIngestStorageFailureAborts(t *testing.T) {
	indexer := &fakeIndexer{}
	pipe := newTestPipeline(&fakeFetcher{err: fmt.Errorf("access denied")}, &fakeExtractor{}, &fakeEmbedder{}, indexer, 1500)

	_, err := pipe.Ingest(context.Background(), models.IngestRequest{DocID: "doc42", S3Key: "a.pdf"})
	require.Error(t, err)
	assert.Empty(t, indexer.bodies)
}

func TestIngestAllOrNothingEmbedding(t *testing.T) {
	// Third chunk's embedding fails; nothing may be written
	text := strings.Repeat("a", 10) + strings.Repeat("b", 10) + strings.Repeat("c", 10)
	embedder := &fakeEmbedder{failOn: "c"}
	indexer := &fakeIndexer{}
	pipe := newTestPipeline(&fakeFetcher{data: []byte("pdf")}, &fakeExtractor{text: text}, embedder, indexer, 10)

	_, err := pipe.Ingest(context.Background(), models.IngestRequest{DocID: "doc42", S3Key: "a.pdf"})

	var serviceErr *ai.EmbeddingServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Empty(t, indexer.bodies, "no documents may be written when any chunk fails")
}

func TestIngestEndToEnd(t *testing.T) {
	text := strings.Repeat("x", 3200)
	embedder := &fakeEmbedder{}
	indexer := &fakeIndexer{}
	pipe := newTestPipeline(&fakeFetcher{data: []byte("pdf")}, &fakeExtractor{text: text}, embedder, indexer, 1500)

	summary, err := pipe.Ingest(context.Background(), models.IngestRequest{DocID: "doc42", S3Key: "a.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ChunkCount)
	assert.Equal(t, 3, embedder.callCount())

	require.Len(t, indexer.bodies, 1)
	body := string(indexer.bodies[0])
	for i, id := range []string{"doc42-0", "doc42-1", "doc42-2"} {
		pos := strings.Index(body, fmt.Sprintf("%q", id))
		require.GreaterOrEqual(t, pos, 0, "bulk body must contain %s", id)
		if i > 0 {
			prev := strings.Index(body, fmt.Sprintf("%q", fmt.Sprintf("doc42-%d", i-1)))
			assert.Less(t, prev, pos, "ids must appear in chunk order")
		}
	}
}

func TestIngestOrderPreservedUnderConcurrency(t *testing.T) {
	// Many small chunks embedded with concurrency 3; the bulk body must
	// still list ids 0..n-1 in order.
	text := strings.Repeat("0123456789", 20)
	indexer := &fakeIndexer{}
	pipe := newTestPipeline(&fakeFetcher{data: []byte("pdf")}, &fakeExtractor{text: text}, &fakeEmbedder{}, indexer, 10)

	summary, err := pipe.Ingest(context.Background(), models.IngestRequest{DocID: "d", S3Key: "a.pdf"})
	require.NoError(t, err)
	require.Equal(t, 20, summary.ChunkCount)

	require.Len(t, indexer.bodies, 1)
	body := string(indexer.bodies[0])
	last := -1
	for i := 0; i < 20; i++ {
		pos := strings.Index(body, fmt.Sprintf(`"_id":"d-%d"`, i))
		require.GreaterOrEqual(t, pos, 0)
		assert.Greater(t, pos, last)
		last = pos
	}
}

func TestIngestIndexingFailureSurfaces(t *testing.T) {
	indexer := &fakeIndexer{err: fmt.Errorf("bulk rejected")}
	pipe := newTestPipeline(&fakeFetcher{data: []byte("pdf")}, &fakeExtractor{text: "hello"}, &fakeEmbedder{}, indexer, 1500)

	_, err := pipe.Ingest(context.Background(), models.IngestRequest{DocID: "doc42", S3Key: "a.pdf"})
	require.ErrorContains(t, err, "bulk rejected")
}
