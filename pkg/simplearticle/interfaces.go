package simplearticle

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for binary storage backends. Backends
// report a missing object by returning an error wrapping ErrBlobNotFound.
type BlobStore interface {
	// Upload writes a blob under the given key, creating or overwriting it
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads a blob with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download reads the blob stored under the given key
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the blob stored under the given key
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored blob
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// GetDownloadURL returns a URL for downloading the blob, for backends
	// that can hand out direct (e.g. presigned) URLs
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// Repository defines the interface for article, version, image and stats
// persistence. It is the single source of truth for ordering and existence;
// blob storage holds only binary payloads.
type Repository interface {
	// Article operations. CreateArticle persists the article and its
	// initial version as one logical unit. UpdateArticleStatus is a
	// compare-and-swap: it fails with ErrStatusConflict when the stored
	// status no longer equals from. DeleteArticle cascades to versions,
	// images and stats rows. ListArticles orders pages most recently
	// updated first and returns the total count of the filtered set
	// before pagination.
	CreateArticle(ctx context.Context, article *Article, initial *ArticleVersion) error
	GetArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	UpdateArticle(ctx context.Context, article *Article) error
	UpdateArticleStatus(ctx context.Context, id uuid.UUID, from, to ArticleStatus) error
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	ListArticles(ctx context.Context, filter ListArticlesFilter) ([]*Article, int, error)

	// Version ledger operations. AppendVersion assigns version_num as
	// max(existing)+1 for the article; implementations must never hand out
	// the same number twice for one article, surfacing ErrVersionConflict
	// when a concurrent insert wins the race. ListVersions returns versions
	// in descending version_num order.
	AppendVersion(ctx context.Context, version *ArticleVersion) (*ArticleVersion, error)
	ListVersions(ctx context.Context, articleID uuid.UUID) ([]*ArticleVersion, error)

	// Image operations. GetImage and DeleteImage are scoped by article id:
	// an image belonging to a different article is ErrImageNotFound.
	// ListImages returns images by sort_order ascending, creation order
	// breaking ties.
	CreateImage(ctx context.Context, image *ArticleImage) error
	GetImage(ctx context.Context, articleID, imageID uuid.UUID) (*ArticleImage, error)
	ListImages(ctx context.Context, articleID uuid.UUID) ([]*ArticleImage, error)
	UpdateImage(ctx context.Context, image *ArticleImage) error
	DeleteImage(ctx context.Context, articleID, imageID uuid.UUID) error

	// Stats operations. CreateStats appends a snapshot row; ListStats
	// returns snapshots newest first.
	CreateStats(ctx context.Context, stats *ArticleStats) error
	ListStats(ctx context.Context, articleID uuid.UUID) ([]*ArticleStats, error)
}

// EventSink defines the interface for lifecycle event handling. Sink
// failures are logged by the service and never fail the operation.
type EventSink interface {
	// ArticleCreated is fired when an article is created
	ArticleCreated(ctx context.Context, article *Article) error

	// ArticleUpdated is fired when an article's fields are updated
	ArticleUpdated(ctx context.Context, article *Article) error

	// ArticleStatusChanged is fired on a successful workflow transition
	ArticleStatusChanged(ctx context.Context, article *Article, previous, next ArticleStatus) error

	// ArticlePublished is fired when an article is published
	ArticlePublished(ctx context.Context, article *Article) error

	// ArticleDeleted is fired after an article and its children are deleted
	ArticleDeleted(ctx context.Context, articleID uuid.UUID) error

	// ImageAdded is fired when an image is attached to an article
	ImageAdded(ctx context.Context, image *ArticleImage) error

	// ImageDeleted is fired when an image is removed
	ImageDeleted(ctx context.Context, articleID, imageID uuid.UUID) error
}
