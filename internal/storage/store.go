// Package storage keeps uploaded files in a blob container and hands out
// time-limited read URLs for them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultSignedURLExpiry = 60 * time.Minute

var (
	ErrEmptyData = errors.New("no data to upload")
	ErrNotFound  = errors.New("blob not found")
)

// Store is a single blob container or bucket.
type Store interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	Download(ctx context.Context, name string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error)
}

// Uploader names and uploads blobs and signs them for reading.
type Uploader struct {
	store  Store
	expiry time.Duration
}

func NewUploader(store Store, expiry time.Duration) *Uploader {
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}
	return &Uploader{store: store, expiry: expiry}
}

// Upload stores data under a fresh random name and returns that name.
func (u *Uploader) Upload(ctx context.Context, data []byte, suffix, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	name := BlobName(suffix)
	if err := u.store.Upload(ctx, name, data, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return name, nil
}

// Signed is an uploaded blob and its read-only URL.
type Signed struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UploadAndSign uploads data and returns a read-only URL valid for the
// configured expiry.
func (u *Uploader) UploadAndSign(ctx context.Context, data []byte, suffix, contentType string) (*Signed, error) {
	name, err := u.Upload(ctx, data, suffix, contentType)
	if err != nil {
		return nil, err
	}
	signed, err := u.store.SignedURL(ctx, name, u.expiry)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", name, err)
	}
	return &Signed{Name: name, URL: signed}, nil
}

// BlobName is a dashless random UUID with an optional extension.
func BlobName(suffix string) string {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	suffix = strings.TrimPrefix(suffix, ".")
	if suffix == "" {
		return name
	}
	return name + "." + suffix
}
