package workers

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/reviewinsight/internal/ingest"
	"github.com/nikhilbhutani/reviewinsight/internal/queue"
	"github.com/nikhilbhutani/reviewinsight/internal/search"
	"github.com/nikhilbhutani/reviewinsight/internal/storage"
)

type blobs map[string]string

func (b blobs) Upload(context.Context, string, []byte, string) error { return nil }

func (b blobs) Download(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := b[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (b blobs) SignedURL(context.Context, string, time.Duration) (string, error) { return "", nil }

type countingIndex struct {
	docs int
}

func (c *countingIndex) EnsureIndex(context.Context, search.Schema) error { return nil }

func (c *countingIndex) Upsert(_ context.Context, docs []search.Document) ([]search.IndexingResult, error) {
	c.docs += len(docs)
	out := make([]search.IndexingResult, len(docs))
	for i := range out {
		out[i].Succeeded = true
	}
	return out, nil
}

func (c *countingIndex) Search(context.Context, search.Request) (*search.Result, error) {
	return &search.Result{}, nil
}

type zeroEmbedder struct{}

func (zeroEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (zeroEmbedder) EmbedSingle(context.Context, string) ([]float32, error) { return nil, nil }

func TestIngestWorker(t *testing.T) {
	idx := &countingIndex{}
	store := blobs{"a.csv": "review_id,review_text\nr1,좋아요\nr2,별로예요\n"}
	w := NewIngestWorker(store, ingest.NewIngester(idx, zeroEmbedder{}, 64))

	task, err := queue.NewIngestCSVTask(queue.IngestCSVPayload{BlobName: "a.csv"})
	require.NoError(t, err)
	require.NoError(t, w.ProcessTask(context.Background(), task))
	assert.Equal(t, 2, idx.docs)
}

func TestIngestWorkerMissingBlob(t *testing.T) {
	w := NewIngestWorker(blobs{}, ingest.NewIngester(&countingIndex{}, zeroEmbedder{}, 64))

	task, err := queue.NewIngestCSVTask(queue.IngestCSVPayload{BlobName: "gone.csv"})
	require.NoError(t, err)
	assert.ErrorIs(t, w.ProcessTask(context.Background(), task), storage.ErrNotFound)
}

func TestIngestWorkerEmptyPayload(t *testing.T) {
	w := NewIngestWorker(blobs{}, ingest.NewIngester(&countingIndex{}, zeroEmbedder{}, 64))
	err := w.ProcessTask(context.Background(), asynq.NewTask(queue.TypeIngestCSV, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
