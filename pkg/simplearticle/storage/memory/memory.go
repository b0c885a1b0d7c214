package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tendant/simple-articles/pkg/simplearticle"
)

// Backend is an in-memory implementation of the simplearticle.BlobStore interface
type Backend struct {
	mu            sync.RWMutex
	blobs         map[string][]byte
	blobsMimeType map[string]string
}

// New creates a new in-memory storage backend
func New() simplearticle.BlobStore {
	return &Backend{
		blobs:         make(map[string][]byte),
		blobsMimeType: make(map[string]string),
	}
}

// Upload stores content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[objectKey] = data
	// Set default MIME type if not set
	if _, exists := b.blobsMimeType[objectKey]; !exists {
		b.blobsMimeType[objectKey] = "application/octet-stream"
	}
	return nil
}

// UploadWithParams stores content with an explicit MIME type
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simplearticle.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[params.ObjectKey] = data
	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	b.blobsMimeType[params.ObjectKey] = mimeType
	return nil
}

// Download returns the stored content
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.blobs[objectKey]
	if !exists {
		return nil, fmt.Errorf("%w: %s", simplearticle.ErrBlobNotFound, objectKey)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the stored content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.blobs[objectKey]; !exists {
		return fmt.Errorf("%w: %s", simplearticle.ErrBlobNotFound, objectKey)
	}

	delete(b.blobs, objectKey)
	delete(b.blobsMimeType, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for a stored blob
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplearticle.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.blobs[objectKey]
	if !exists {
		return nil, fmt.Errorf("%w: %s", simplearticle.ErrBlobNotFound, objectKey)
	}

	return &simplearticle.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: b.blobsMimeType[objectKey],
	}, nil
}

// GetDownloadURL returns a URL for downloading content
// In-memory implementation doesn't use URLs
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "", errors.New("direct download required for memory backend")
}
