package queue

const TypeIngestCSV = "ingest:csv"

// IngestCSVPayload points at an uploaded review CSV in the blob store.
type IngestCSVPayload struct {
	BlobName string `json:"blob_name"`
}
