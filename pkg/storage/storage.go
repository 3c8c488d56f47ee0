// Package storage provides blob storage for archived source documents with an
// Azure Blob Storage implementation.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the storage container.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns the blob at key. The caller must close Body.
	Download(ctx context.Context, key string) (*BlobContent, error)
	// Find returns blob metadata without its content.
	Find(ctx context.Context, key string) (*BlobMeta, error)
	// List returns one page of blob metadata under prefix, continuing from marker.
	List(ctx context.Context, prefix, marker string, maxResults int32) (*BlobList, error)
	// Delete removes the blob at the given key.
	Delete(ctx context.Context, key string) error
}

// BlobMeta describes a stored blob.
type BlobMeta struct {
	Key           string    `json:"key"`
	ContentType   string    `json:"content_type"`
	ContentLength int64     `json:"content_length"`
	LastModified  time.Time `json:"last_modified"`
}

// BlobContent is a blob stream with its headers.
type BlobContent struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// BlobList is a single page of List results.
type BlobList struct {
	Blobs      []BlobMeta `json:"blobs"`
	NextMarker string     `json:"next_marker,omitempty"`
}

type azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New creates a storage system from the given configuration.
// A connection string authenticates with the account key; otherwise the
// service URL is paired with azidentity's default credential chain
// (environment, workload identity, managed identity, Azure CLI).
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage"),
	}, nil
}

func newClient(cfg *Config) (*azblob.Client, error) {
	if cfg.ConnectionString != "" {
		return azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	}
	if cfg.ServiceURL == "" {
		return nil, fmt.Errorf("connection_string or service_url required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("default azure credential: %w", err)
	}
	return serviceClient(cfg.ServiceURL, cred)
}

func serviceClient(serviceURL string, cred azcore.TokenCredential) (*azblob.Client, error) {
	return azblob.NewClient(serviceURL, cred, nil)
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting storage system")

	lc.OnStartup("storage", func() error {
		_, err := a.client.CreateContainer(lc.Context(), a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.logger.Error("storage container initialization failed", "error", err)
			return err
		}
		a.logger.Info("storage container ready", "container", a.container)
		return nil
	})

	return nil
}

func (a *azure) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}

	if _, err := a.client.UploadStream(ctx, a.container, key, reader, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	return nil
}

func (a *azure) Download(ctx context.Context, key string) (*BlobContent, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		return nil, mapBlobError(err, "download", key)
	}

	return &BlobContent{
		Body:          resp.Body,
		ContentType:   deref(resp.ContentType),
		ContentLength: deref(resp.ContentLength),
	}, nil
}

func (a *azure) Find(ctx context.Context, key string) (*BlobMeta, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	props, err := a.blobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, mapBlobError(err, "find", key)
	}

	return &BlobMeta{
		Key:           key,
		ContentType:   deref(props.ContentType),
		ContentLength: deref(props.ContentLength),
		LastModified:  deref(props.LastModified),
	}, nil
}

func (a *azure) List(ctx context.Context, prefix, marker string, maxResults int32) (*BlobList, error) {
	opts := &azblob.ListBlobsFlatOptions{MaxResults: &maxResults}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	if marker != "" {
		opts.Marker = &marker
	}

	pager := a.client.NewListBlobsFlatPager(a.container, opts)
	if !pager.More() {
		return &BlobList{Blobs: []BlobMeta{}}, nil
	}

	resp, err := pager.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	result := &BlobList{Blobs: make([]BlobMeta, 0, len(resp.Segment.BlobItems))}
	for _, item := range resp.Segment.BlobItems {
		meta := BlobMeta{Key: deref(item.Name)}
		if p := item.Properties; p != nil {
			meta.ContentType = deref(p.ContentType)
			meta.ContentLength = deref(p.ContentLength)
			meta.LastModified = deref(p.LastModified)
		}
		result.Blobs = append(result.Blobs, meta)
	}
	result.NextMarker = deref(resp.NextMarker)

	return result, nil
}

func (a *azure) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if _, err := a.client.DeleteBlob(ctx, a.container, key, nil); err != nil {
		return mapBlobError(err, "delete", key)
	}
	return nil
}

func (a *azure) blobClient(key string) *blob.Client {
	return a.client.
		ServiceClient().
		NewContainerClient(a.container).
		NewBlobClient(key)
}

func mapBlobError(err error, op, key string) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s blob %s: %w", op, key, err)
}

// Key joins path segments into a storage key.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
