// Package ingest loads review CSV exports into the search index.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nikhilbhutani/reviewinsight/internal/embedding"
	"github.com/nikhilbhutani/reviewinsight/internal/metrics"
	"github.com/nikhilbhutani/reviewinsight/internal/search"
)

const DefaultBatchSize = 64

const sourceTimeLayout = "2006-01-02 15:04:05"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Ingester embeds review rows in batches and upserts them into an index.
type Ingester struct {
	index     search.Index
	embedder  embedding.Embedder
	batchSize int
}

func NewIngester(index search.Index, embedder embedding.Embedder, batchSize int) *Ingester {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingester{index: index, embedder: embedder, batchSize: batchSize}
}

func (i *Ingester) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return i.Load(ctx, f)
}

// Load reads a CSV with a header row and uploads every row. The first batch
// with a failed document stops the load; earlier batches stay indexed.
func (i *Ingester) Load(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.TrimSpace(name)] = idx
	}
	if _, ok := cols["review_id"]; !ok {
		return 0, fmt.Errorf("csv header has no review_id column")
	}

	total := 0
	batch := make([]row, 0, i.batchSize)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read csv: %w", err)
		}
		line++

		rw := newRow(cols, rec)
		if rw.reviewID == "" {
			return total, fmt.Errorf("csv line %d: empty review_id", line)
		}
		batch = append(batch, rw)
		if len(batch) == i.batchSize {
			if err := i.upload(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := i.upload(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}

	slog.Info("all documents uploaded", "count", total)
	return total, nil
}

func (i *Ingester) upload(ctx context.Context, rows []row) error {
	texts := make([]string, len(rows))
	for idx, r := range rows {
		texts[idx] = r.reviewText
	}
	vecs, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vecs) != len(rows) {
		return fmt.Errorf("embed batch: got %d vectors for %d rows", len(vecs), len(rows))
	}

	docs := make([]search.Document, len(rows))
	for idx, r := range rows {
		docs[idx] = r.document(vecs[idx])
	}

	results, err := i.index.Upsert(ctx, docs)
	if err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	var failed []search.IndexingResult
	for _, res := range results {
		if !res.Succeeded {
			failed = append(failed, res)
		}
	}
	metrics.DocumentsIngested.WithLabelValues("succeeded").Add(float64(len(results) - len(failed)))
	if len(failed) > 0 {
		metrics.DocumentsIngested.WithLabelValues("failed").Add(float64(len(failed)))
		return fmt.Errorf("upload failed for %d docs: first error: %s", len(failed), failed[0].ErrorMessage)
	}

	slog.Info("uploaded batch", "documents", len(docs))
	return nil
}

type row struct {
	reviewID     string
	productName  string
	productGroup string
	gender       string
	ageGroup     string
	rating       string
	reviewText   string
	createdAt    string
}

func newRow(cols map[string]int, rec []string) row {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(rec) {
			return ""
		}
		return rec[idx]
	}
	return row{
		reviewID:     strings.TrimSpace(get("review_id")),
		productName:  get("product_name"),
		productGroup: get("product_group"),
		gender:       get("gender"),
		ageGroup:     get("age_group"),
		rating:       get("rating"),
		reviewText:   get("review_text"),
		createdAt:    get("created_at"),
	}
}

func (r row) document(vec []float32) search.Document {
	return search.Document{
		ReviewID:     r.reviewID,
		ProductName:  r.productName,
		ProductGroup: r.productGroup,
		Gender:       r.gender,
		AgeGroup:     r.ageGroup,
		Rating:       parseRating(r.rating),
		ReviewText:   r.reviewText,
		ReviewVector: vec,
		CreatedAt:    ToISOUTC(r.createdAt),
	}
}

// parseRating returns nil for blank or non-numeric ratings.
func parseRating(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ToISOUTC rewrites "YYYY-MM-DD HH:MM:SS" as "YYYY-MM-DDTHH:MM:SSZ". Any
// other input, including fractional seconds, is returned unchanged.
func ToISOUTC(s string) string {
	if len(s) != len(sourceTimeLayout) {
		return s
	}
	t, err := time.Parse(sourceTimeLayout, s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02T15:04:05") + "Z"
}

func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(r, buf)
	if err == nil && bytes.Equal(buf, utf8BOM) {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}
