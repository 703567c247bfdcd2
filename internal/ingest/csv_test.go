package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/reviewinsight/internal/search"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := f.Embed(ctx, []string{text})
	return v[0], err
}

type fakeIndex struct {
	batches [][]search.Document
	failKey string
	lastReq search.Request
}

func (f *fakeIndex) EnsureIndex(context.Context, search.Schema) error { return nil }

func (f *fakeIndex) Upsert(_ context.Context, docs []search.Document) ([]search.IndexingResult, error) {
	f.batches = append(f.batches, docs)
	results := make([]search.IndexingResult, len(docs))
	for i, d := range docs {
		results[i] = search.IndexingResult{Key: d.ReviewID, Succeeded: d.ReviewID != f.failKey, StatusCode: 200}
		if d.ReviewID == f.failKey {
			results[i].ErrorMessage = "invalid document"
			results[i].StatusCode = 400
		}
	}
	return results, nil
}

func (f *fakeIndex) Search(_ context.Context, req search.Request) (*search.Result, error) {
	f.lastReq = req
	return &search.Result{}, nil
}

const header = "review_id,product_name,product_group,gender,age_group,rating,review_text,created_at\n"

func csvRows(n int) string {
	var b strings.Builder
	b.WriteString(header)
	for i := range n {
		b.WriteString("r")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString(",수분크림,스킨케어,여성,30대,4.5,좋아요,2024-03-01 10:20:30\n")
	}
	return b.String()
}

func TestLoadBatches(t *testing.T) {
	idx := &fakeIndex{}
	emb := &fakeEmbedder{}

	n, err := NewIngester(idx, emb, 2).Load(context.Background(), strings.NewReader(csvRows(5)))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, idx.batches, 3)
	assert.Len(t, idx.batches[0], 2)
	assert.Len(t, idx.batches[2], 1)
	assert.Equal(t, 3, emb.calls)

	doc := idx.batches[0][0]
	assert.Equal(t, "r", doc.ReviewID)
	assert.Equal(t, "스킨케어", doc.ProductGroup)
	assert.Equal(t, "2024-03-01T10:20:30Z", doc.CreatedAt)
	require.NotNil(t, doc.Rating)
	assert.Equal(t, 4.5, *doc.Rating)
	assert.Equal(t, []float32{0}, doc.ReviewVector)
}

func TestLoadStripsBOM(t *testing.T) {
	idx := &fakeIndex{}
	data := "\ufeff" + header + "r1,a,b,c,d,bad,text,yesterday\n"

	n, err := NewIngester(idx, &fakeEmbedder{}, 0).Load(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc := idx.batches[0][0]
	assert.Equal(t, "r1", doc.ReviewID)
	assert.Nil(t, doc.Rating)
	assert.Equal(t, "yesterday", doc.CreatedAt)
}

func TestLoadStopsOnFailedDocument(t *testing.T) {
	idx := &fakeIndex{failKey: "rxx"}

	n, err := NewIngester(idx, &fakeEmbedder{}, 2).Load(context.Background(), strings.NewReader(csvRows(6)))
	require.Error(t, err)
	assert.Equal(t, "upload failed for 1 docs: first error: invalid document", err.Error())
	assert.Equal(t, 2, n)
	assert.Len(t, idx.batches, 2)
}

func TestLoadRejectsMissingKey(t *testing.T) {
	_, err := NewIngester(&fakeIndex{}, &fakeEmbedder{}, 2).Load(context.Background(), strings.NewReader(header+",a,b,c,d,1,t,\n"))
	assert.ErrorContains(t, err, "empty review_id")
}

func TestLoadEmptyInput(t *testing.T) {
	n, err := NewIngester(&fakeIndex{}, &fakeEmbedder{}, 2).Load(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToISOUTC(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-01-02 03:04:05", "2024-01-02T03:04:05Z"},
		{"2024-01-02T03:04:05Z", "2024-01-02T03:04:05Z"},
		{"2024/01/02", "2024/01/02"},
		{"2024-01-05 09:03:00.123", "2024-01-05 09:03:00.123"},
		{"2024-01-05 09:03:00 ", "2024-01-05 09:03:00 "},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToISOUTC(tt.in), tt.in)
	}
}

func TestProbe(t *testing.T) {
	idx := &fakeIndex{}
	_, err := Probe(context.Background(), idx, &fakeEmbedder{}, "수분 공급이 잘 되는 스킨케어 제품 추천해줘")
	require.NoError(t, err)
	assert.Equal(t, ProbeFacets, idx.lastReq.Filter.Facets)
	assert.Len(t, idx.lastReq.Vector, 1)
	assert.Empty(t, idx.lastReq.Filter.Expression())
}
