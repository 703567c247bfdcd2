package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/reviewinsight/internal/ingest"
	"github.com/nikhilbhutani/reviewinsight/internal/queue"
	"github.com/nikhilbhutani/reviewinsight/internal/storage"
)

type IngestWorker struct {
	store    storage.Store
	ingester *ingest.Ingester
}

func NewIngestWorker(store storage.Store, ingester *ingest.Ingester) *IngestWorker {
	return &IngestWorker{store: store, ingester: ingester}
}

func (w *IngestWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.IngestCSVPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.BlobName == "" {
		return fmt.Errorf("empty blob name: %w", asynq.SkipRetry)
	}

	slog.Info("ingesting csv", "blob", payload.BlobName)

	rc, err := w.store.Download(ctx, payload.BlobName)
	if err != nil {
		return fmt.Errorf("download %s: %w", payload.BlobName, err)
	}
	defer rc.Close()

	n, err := w.ingester.Load(ctx, rc)
	if err != nil {
		return fmt.Errorf("ingest %s after %d docs: %w", payload.BlobName, n, err)
	}

	slog.Info("csv ingested", "blob", payload.BlobName, "documents", n)
	return nil
}
