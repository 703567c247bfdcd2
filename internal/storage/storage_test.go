package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/reviewinsight/internal/apperr"
)

type memStore struct {
	blobs  map[string][]byte
	expiry time.Duration
}

func (m *memStore) Upload(_ context.Context, name string, data []byte, _ string) error {
	m.blobs[name] = data
	return nil
}

func (m *memStore) Download(_ context.Context, name string) (io.ReadCloser, error) {
	return nil, ErrNotFound
}

func (m *memStore) SignedURL(_ context.Context, name string, expiry time.Duration) (string, error) {
	m.expiry = expiry
	return "https://blob.example/" + name + "?sig=x", nil
}

func TestBlobName(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}\.png$`), BlobName("png"))
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}\.csv$`), BlobName(".csv"))
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), BlobName(""))
	assert.NotEqual(t, BlobName("png"), BlobName("png"))
}

func TestUploadAndSign(t *testing.T) {
	store := &memStore{blobs: map[string][]byte{}}
	u := NewUploader(store, 0)

	signed, err := u.UploadAndSign(context.Background(), []byte("img"), "png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://blob.example/"+signed.Name+"?sig=x", signed.URL)
	assert.Contains(t, store.blobs, signed.Name)
	assert.Equal(t, DefaultSignedURLExpiry, store.expiry)
}

func TestUploadRejectsEmptyData(t *testing.T) {
	store := &memStore{blobs: map[string][]byte{}}
	_, err := NewUploader(store, time.Minute).UploadAndSign(context.Background(), nil, "png", "image/png")
	assert.ErrorIs(t, err, ErrEmptyData)
	assert.Empty(t, store.blobs)
}

func TestSupabaseStorage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /storage/v1/object/reviews/a.csv", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "a,b", string(body))
	})
	mux.HandleFunc("GET /storage/v1/object/reviews/a.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a,b"))
	})
	mux.HandleFunc("POST /storage/v1/object/sign/reviews/a.csv", func(w http.ResponseWriter, r *http.Request) {
		var req signRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3600, req.ExpiresIn)
		_, _ = w.Write([]byte(`{"signedURL": "/object/sign/reviews/a.csv?token=t"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "key", "reviews")
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "a.csv", []byte("a,b"), "text/csv"))

	rc, err := s.Download(ctx, "a.csv")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "a,b", string(data))

	signed, err := s.SignedURL(ctx, "a.csv", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/sign/reviews/a.csv?token=t", signed)

	_, err = s.Download(ctx, "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabaseStorageAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid jwt", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewSupabaseStorage(srv.URL, "bad", "reviews").Upload(context.Background(), "a", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}
