package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/reviewinsight/internal/queue"
	"github.com/nikhilbhutani/reviewinsight/internal/storage"
)

const maxUploadSize = 32 << 20

// Enqueuer is satisfied by *queue.Client.
type Enqueuer interface {
	EnqueueIngestCSV(payload queue.IngestCSVPayload) (string, error)
}

type IngestHandler struct {
	uploader *storage.Uploader
	queue    Enqueuer
}

func NewIngestHandler(u *storage.Uploader, q Enqueuer) *IngestHandler {
	return &IngestHandler{uploader: u, queue: q}
}

// Upload stores the CSV in the blob store and schedules its ingestion.
func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	signed, err := h.uploader.UploadAndSign(r.Context(), data, "csv", "text/csv")
	if err != nil {
		if errors.Is(err, storage.ErrEmptyData) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("csv upload failed", "error", err)
		writeError(w, http.StatusBadGateway, "upload failed")
		return
	}

	taskID, err := h.queue.EnqueueIngestCSV(queue.IngestCSVPayload{BlobName: signed.Name})
	if err != nil {
		slog.Error("enqueue ingest failed", "blob", signed.Name, "error", err)
		writeError(w, http.StatusServiceUnavailable, "could not schedule ingestion")
		return
	}

	slog.Info("csv ingestion scheduled", "blob", signed.Name, "task_id", taskID, "bytes", len(data))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"blob_name": signed.Name,
		"url":       signed.URL,
		"task_id":   taskID,
	})
}
