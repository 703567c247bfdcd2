package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/nikhilbhutani/reviewinsight/internal/apperr"
)

// AzureBlobStore is one Azure Blob Storage container authorized with the
// account shared key, which also signs the SAS URLs.
type AzureBlobStore struct {
	client *container.Client
}

// NewAzureBlobStore connects to container on account. An empty endpoint
// means the public cloud blob endpoint of the account.
func NewAzureBlobStore(account, accountKey, containerName, endpoint string) (*AzureBlobStore, error) {
	cred, err := azblob.NewSharedKeyCredential(account, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", account)
	}
	containerURL := strings.TrimRight(endpoint, "/") + "/" + containerName

	client, err := container.NewClientWithSharedKeyCredential(containerURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create container client: %w", err)
	}
	return &AzureBlobStore{client: client}, nil
}

func (s *AzureBlobStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	opts := &blockblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := s.client.NewBlockBlobClient(name).UploadBuffer(ctx, data, opts); err != nil {
		return mapAzureError(err)
	}
	return nil
}

func (s *AzureBlobStore) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.NewBlobClient(name).DownloadStream(ctx, nil)
	if err != nil {
		return nil, mapAzureError(err)
	}
	return resp.Body, nil
}

func (s *AzureBlobStore) SignedURL(_ context.Context, name string, expiry time.Duration) (string, error) {
	u, err := s.client.NewBlobClient(name).GetSASURL(sas.BlobPermissions{Read: true}, time.Now().UTC().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("generate sas url: %w", err)
	}
	return u, nil
}

func mapAzureError(err error) error {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	if respErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, respErr.ErrorCode)
	}
	return apperr.NewStatusError("azure blob", respErr.StatusCode, respErr.ErrorCode)
}
