package simplearticle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxImageSizeBytes caps a single image upload at 10 MiB.
const maxImageSizeBytes = 10 << 20

// allowedImageMimeTypes lists the content types accepted for image uploads.
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

func (s *service) AddImage(ctx context.Context, req AddImageRequest) (*ArticleImage, error) {
	if req.Reader == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if req.MimeType == "" {
		return nil, fmt.Errorf("%w: image content type is required", ErrInvalidInput)
	}
	if !allowedImageMimeTypes[req.MimeType] {
		return nil, fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, req.MimeType)
	}
	if req.Size > maxImageSizeBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, maxImageSizeBytes)
	}

	if _, err := s.repository.GetArticle(ctx, req.ArticleID); err != nil {
		return nil, err
	}

	store, err := s.defaultStore()
	if err != nil {
		return nil, err
	}

	key := s.keyGen.GenerateKey(req.ArticleID, req.FileName)
	if err := store.UploadWithParams(ctx, req.Reader, UploadParams{ObjectKey: key, MimeType: req.MimeType}); err != nil {
		return nil, &StorageError{Backend: s.defaultBackend, Key: key, Op: "upload", Err: err}
	}

	now := time.Now().UTC()
	image := &ArticleImage{
		ID:          uuid.New(),
		ArticleID:   req.ArticleID,
		URL:         s.blobURL(key),
		StoragePath: key,
		SortOrder:   req.SortOrder,
		CreatedAt:   now,
	}

	if err := s.repository.CreateImage(ctx, image); err != nil {
		// Metadata failed after the blob landed. Roll the blob back so the
		// store does not accumulate orphans.
		s.deleteBlob(ctx, store, key)
		return nil, &ImageError{ImageID: image.ID, Op: "create", Err: err}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ImageAdded(ctx, image); err != nil {
			s.logger.Warn("event sink failed", "event", "image_added", "error", err)
		}
	}

	return image, nil
}

func (s *service) ListImages(ctx context.Context, articleID uuid.UUID) ([]*ArticleImage, error) {
	if _, err := s.repository.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.repository.ListImages(ctx, articleID)
}

func (s *service) DeleteImage(ctx context.Context, articleID, imageID uuid.UUID) error {
	image, err := s.repository.GetImage(ctx, articleID, imageID)
	if err != nil {
		return err
	}

	if store, err := s.defaultStore(); err == nil {
		s.deleteBlob(ctx, store, image.StoragePath)
		if image.HTMLStoragePath != "" {
			s.deleteBlob(ctx, store, image.HTMLStoragePath)
		}
	} else if image.StoragePath != "" {
		s.logger.Warn("skipping blob cleanup", "image_id", imageID, "error", err)
	}

	if err := s.repository.DeleteImage(ctx, articleID, imageID); err != nil {
		return &ImageError{ImageID: imageID, Op: "delete", Err: err}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ImageDeleted(ctx, articleID, imageID); err != nil {
			s.logger.Warn("event sink failed", "event", "image_deleted", "error", err)
		}
	}

	return nil
}

// HTML source linkage

func (s *service) AttachImageHTML(ctx context.Context, articleID, imageID uuid.UUID, html string) (*ArticleImage, error) {
	image, err := s.repository.GetImage(ctx, articleID, imageID)
	if err != nil {
		return nil, err
	}
	if image.HTMLStoragePath != "" {
		return nil, fmt.Errorf("%w: use the update operation to replace it", ErrHTMLAlreadyExists)
	}
	if image.StoragePath == "" {
		return nil, fmt.Errorf("%w: image has no storage path", ErrInvalidInput)
	}

	htmlPath, err := DeriveHTMLPath(image.StoragePath)
	if err != nil {
		return nil, err
	}

	store, err := s.defaultStore()
	if err != nil {
		return nil, err
	}
	params := UploadParams{ObjectKey: htmlPath, MimeType: "text/html"}
	if err := store.UploadWithParams(ctx, strings.NewReader(html), params); err != nil {
		return nil, &StorageError{Backend: s.defaultBackend, Key: htmlPath, Op: "upload", Err: err}
	}

	image.HTMLStoragePath = htmlPath
	image.HTMLURL = s.blobURL(htmlPath)
	if err := s.repository.UpdateImage(ctx, image); err != nil {
		return nil, &ImageError{ImageID: imageID, Op: "attach_html", Err: err}
	}

	return image, nil
}

func (s *service) GetImageHTML(ctx context.Context, articleID, imageID uuid.UUID) (*ImageHTML, error) {
	image, err := s.repository.GetImage(ctx, articleID, imageID)
	if err != nil {
		return nil, err
	}
	if image.HTMLStoragePath == "" {
		return nil, fmt.Errorf("%w: image %s", ErrHTMLNotFound, imageID)
	}

	store, err := s.defaultStore()
	if err != nil {
		return nil, err
	}

	reader, err := store.Download(ctx, image.HTMLStoragePath)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, fmt.Errorf("%w: blob missing at %s", ErrHTMLNotFound, image.HTMLStoragePath)
		}
		return nil, &StorageError{Backend: s.defaultBackend, Key: image.HTMLStoragePath, Op: "download", Err: err}
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &StorageError{Backend: s.defaultBackend, Key: image.HTMLStoragePath, Op: "download", Err: err}
	}

	return &ImageHTML{
		ImageID:         imageID,
		HTMLURL:         image.HTMLURL,
		HTMLStoragePath: image.HTMLStoragePath,
		Content:         string(data),
	}, nil
}

func (s *service) UpdateImageHTML(ctx context.Context, articleID, imageID uuid.UUID, html string) (*ArticleImage, error) {
	image, err := s.repository.GetImage(ctx, articleID, imageID)
	if err != nil {
		return nil, err
	}
	if image.HTMLStoragePath == "" {
		return nil, fmt.Errorf("%w: no html source attached; attach one first", ErrInvalidInput)
	}

	store, err := s.defaultStore()
	if err != nil {
		return nil, err
	}

	// Overwrite in place; the path and URL stay stable across updates.
	params := UploadParams{ObjectKey: image.HTMLStoragePath, MimeType: "text/html"}
	if err := store.UploadWithParams(ctx, strings.NewReader(html), params); err != nil {
		return nil, &StorageError{Backend: s.defaultBackend, Key: image.HTMLStoragePath, Op: "upload", Err: err}
	}

	return image, nil
}

func (s *service) RemoveImageHTML(ctx context.Context, articleID, imageID uuid.UUID) (*ArticleImage, error) {
	image, err := s.repository.GetImage(ctx, articleID, imageID)
	if err != nil {
		return nil, err
	}
	if image.HTMLStoragePath == "" {
		return nil, fmt.Errorf("%w: image %s", ErrHTMLNotFound, imageID)
	}

	if store, err := s.defaultStore(); err == nil {
		s.deleteBlob(ctx, store, image.HTMLStoragePath)
	} else {
		s.logger.Warn("skipping html blob cleanup", "image_id", imageID, "error", err)
	}

	image.HTMLStoragePath = ""
	image.HTMLURL = ""
	if err := s.repository.UpdateImage(ctx, image); err != nil {
		return nil, &ImageError{ImageID: imageID, Op: "remove_html", Err: err}
	}

	return image, nil
}

func (s *service) blobURL(key string) string {
	return strings.TrimSuffix(s.urlPrefix, "/") + "/" + key
}
