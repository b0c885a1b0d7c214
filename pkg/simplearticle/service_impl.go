package simplearticle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-articles/pkg/simplearticle/imagekey"
)

const (
	// maxTransitionRetries bounds the read-validate-write cycle of a
	// status transition under concurrent writers.
	maxTransitionRetries = 3

	// maxVersionRetries bounds version-number assignment retries when a
	// concurrent edit takes the computed number first.
	maxVersionRetries = 3
)

// defaultURLPrefix is the application route that serves stored blobs.
const defaultURLPrefix = "/api/images"

// service implements the Service interface
type service struct {
	repository     Repository
	blobStores     map[string]BlobStore
	defaultBackend string
	keyGen         imagekey.Generator
	eventSink      EventSink
	logger         *slog.Logger
	urlPrefix      string
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a blob storage backend. The first backend registered
// becomes the default unless WithDefaultBackend overrides it.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultBackend == "" {
			s.defaultBackend = name
		}
	}
}

// WithDefaultBackend selects which registered blob store holds image and
// HTML blobs.
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithKeyGenerator sets the storage key generation strategy for images
func WithKeyGenerator(gen imagekey.Generator) Option {
	return func(s *service) {
		s.keyGen = gen
	}
}

// WithLogger sets the logger used for non-fatal failures (blob cleanup,
// event sink errors)
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithURLPrefix overrides the route prefix used to build display URLs for
// stored blobs.
func WithURLPrefix(prefix string) Option {
	return func(s *service) {
		s.urlPrefix = prefix
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
		keyGen:     imagekey.New(),
		urlPrefix:  defaultURLPrefix,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) getBackend(name string) (BlobStore, error) {
	backend, exists := s.blobStores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, name)
	}
	return backend, nil
}

func (s *service) defaultStore() (BlobStore, error) {
	if s.defaultBackend == "" {
		return nil, fmt.Errorf("%w: no default backend configured", ErrStorageBackendNotFound)
	}
	return s.getBackend(s.defaultBackend)
}

// Article operations

func (s *service) CreateArticle(ctx context.Context, req CreateArticleRequest) (*Article, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	article := &Article{
		ID:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Status:    ArticleStatusDraft,
		Tags:      tags,
		Category:  req.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	initial := &ArticleVersion{
		ID:         uuid.New(),
		ArticleID:  article.ID,
		Title:      req.Title,
		Content:    req.Content,
		VersionNum: 1,
		CreatedAt:  now,
	}

	// Article and version 1 are one logical unit; the repository commits
	// both or neither.
	if err := s.repository.CreateArticle(ctx, article, initial); err != nil {
		return nil, &ArticleError{
			ArticleID: article.ID,
			Op:        "create",
			Err:       err,
		}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ArticleCreated(ctx, article); err != nil {
			s.logger.Warn("event sink failed", "event", "article_created", "error", err)
		}
	}

	return article, nil
}

func (s *service) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	return s.repository.GetArticle(ctx, id)
}

func (s *service) UpdateArticle(ctx context.Context, req UpdateArticleRequest) (*Article, error) {
	article, err := s.repository.GetArticle(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.Tags != nil {
		article.Tags = *req.Tags
	}
	if req.Category != nil {
		article.Category = *req.Category
	}
	article.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateArticle(ctx, article); err != nil {
		return nil, &ArticleError{
			ArticleID: req.ID,
			Op:        "update",
			Err:       err,
		}
	}

	// Presence of title or content in the request triggers a version, even
	// when the supplied value equals the stored one. The snapshot carries
	// the merged state, so every version is self-contained.
	if req.Title != nil || req.Content != nil {
		if _, err := s.appendVersion(ctx, article.ID, article.Title, article.Content); err != nil {
			return nil, err
		}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ArticleUpdated(ctx, article); err != nil {
			s.logger.Warn("event sink failed", "event", "article_updated", "error", err)
		}
	}

	return article, nil
}

func (s *service) appendVersion(ctx context.Context, articleID uuid.UUID, title, content string) (*ArticleVersion, error) {
	var lastErr error
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		version := &ArticleVersion{
			ID:        uuid.New(),
			ArticleID: articleID,
			Title:     title,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		created, err := s.repository.AppendVersion(ctx, version)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, &ArticleError{ArticleID: articleID, Op: "append_version", Err: err}
		}
		lastErr = err
	}
	return nil, &ArticleError{ArticleID: articleID, Op: "append_version", Err: lastErr}
}

func (s *service) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repository.GetArticle(ctx, id); err != nil {
		return err
	}

	images, err := s.repository.ListImages(ctx, id)
	if err != nil {
		return &ArticleError{ArticleID: id, Op: "delete", Err: err}
	}

	// Blob cleanup happens first but never blocks the metadata cascade.
	store, storeErr := s.defaultStore()
	if storeErr != nil && len(images) > 0 {
		s.logger.Warn("skipping blob cleanup", "article_id", id, "error", storeErr)
	}
	if storeErr == nil {
		for _, image := range images {
			s.deleteBlob(ctx, store, image.StoragePath)
			if image.HTMLStoragePath != "" {
				s.deleteBlob(ctx, store, image.HTMLStoragePath)
			}
		}
	}

	if err := s.repository.DeleteArticle(ctx, id); err != nil {
		return &ArticleError{ArticleID: id, Op: "delete", Err: err}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ArticleDeleted(ctx, id); err != nil {
			s.logger.Warn("event sink failed", "event", "article_deleted", "error", err)
		}
	}

	return nil
}

// deleteBlob removes a blob, logging failures instead of surfacing them.
func (s *service) deleteBlob(ctx context.Context, store BlobStore, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil && !errors.Is(err, ErrBlobNotFound) {
		s.logger.Error("blob delete failed", "key", key, "error", err)
	}
}

func (s *service) ListArticles(ctx context.Context, req ListArticlesRequest) (*ArticleList, error) {
	filter := req.Filter
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	articles, total, err := s.repository.ListArticles(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ArticleList{
		Articles: articles,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// Status workflow

func (s *service) GetStatusOptions(ctx context.Context, id uuid.UUID) (*StatusOptions, error) {
	article, err := s.repository.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusOptions{
		CurrentStatus:       article.Status,
		AllowedNextStatuses: AllowedNextStatuses(article.Status),
	}, nil
}

func (s *service) TransitionStatus(ctx context.Context, id uuid.UUID, target ArticleStatus) (*StatusTransition, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		article, err := s.repository.GetArticle(ctx, id)
		if err != nil {
			return nil, err
		}

		if !CanTransition(article.Status, target) {
			return nil, &InvalidTransitionError{
				Current: article.Status,
				Target:  target,
				Allowed: AllowedNextStatuses(article.Status),
			}
		}

		// Compare-and-swap: the write only lands if the status still equals
		// the value validated above. A lost race re-runs the whole cycle.
		err = s.repository.UpdateArticleStatus(ctx, id, article.Status, target)
		if errors.Is(err, ErrStatusConflict) {
			continue
		}
		if err != nil {
			return nil, &ArticleError{ArticleID: id, Op: "transition", Err: err}
		}

		previous := article.Status
		article.Status = target
		article.UpdatedAt = time.Now().UTC()

		if s.eventSink != nil {
			if err := s.eventSink.ArticleStatusChanged(ctx, article, previous, target); err != nil {
				s.logger.Warn("event sink failed", "event", "status_changed", "error", err)
			}
		}

		return &StatusTransition{
			Article:        article,
			PreviousStatus: previous,
			NewStatus:      target,
		}, nil
	}

	return nil, &ArticleError{ArticleID: id, Op: "transition", Err: ErrTransitionConflict}
}

// Publication

func (s *service) PublishArticle(ctx context.Context, req PublishArticleRequest) (*Article, error) {
	if req.XHSNoteID == "" {
		return nil, fmt.Errorf("%w: xhs_note_id is required", ErrInvalidInput)
	}

	article, err := s.repository.GetArticle(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}

	// Publishing is a forced move: it records the platform note id and sets
	// the published state directly, from any current status, without
	// consulting the transition table.
	now := time.Now().UTC()
	article.XHSNoteID = req.XHSNoteID
	article.Status = ArticleStatusPublished
	article.UpdatedAt = now

	if err := s.repository.UpdateArticle(ctx, article); err != nil {
		return nil, &ArticleError{ArticleID: req.ArticleID, Op: "publish", Err: err}
	}

	if req.Views != nil || req.Likes != nil || req.Favorites != nil || req.Comments != nil {
		stats := &ArticleStats{
			ID:         uuid.New(),
			ArticleID:  req.ArticleID,
			Views:      intOrZero(req.Views),
			Likes:      intOrZero(req.Likes),
			Favorites:  intOrZero(req.Favorites),
			Comments:   intOrZero(req.Comments),
			RecordedAt: now,
		}
		if err := s.repository.CreateStats(ctx, stats); err != nil {
			return nil, &ArticleError{ArticleID: req.ArticleID, Op: "publish_stats", Err: err}
		}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ArticlePublished(ctx, article); err != nil {
			s.logger.Warn("event sink failed", "event", "article_published", "error", err)
		}
	}

	return article, nil
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Version ledger

func (s *service) ListVersions(ctx context.Context, articleID uuid.UUID) ([]*ArticleVersion, error) {
	if _, err := s.repository.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.repository.ListVersions(ctx, articleID)
}

// Publication telemetry

func (s *service) ListStats(ctx context.Context, articleID uuid.UUID) ([]*ArticleStats, error) {
	if _, err := s.repository.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.repository.ListStats(ctx, articleID)
}

// OpenBlob streams a blob from the default store, returning the reader and
// the blob's content type.
func (s *service) OpenBlob(ctx context.Context, storagePath string) (io.ReadCloser, string, error) {
	store, err := s.defaultStore()
	if err != nil {
		return nil, "", err
	}

	reader, err := store.Download(ctx, storagePath)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, "", err
		}
		return nil, "", &StorageError{Backend: s.defaultBackend, Key: storagePath, Op: "download", Err: err}
	}

	contentType := "application/octet-stream"
	if meta, err := store.GetObjectMeta(ctx, storagePath); err == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}

	return reader, contentType, nil
}
