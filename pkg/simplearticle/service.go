package simplearticle

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service is the aggregate root for the editorial pipeline: article CRUD
// with version orchestration, the status workflow, image/HTML linkage and
// publication recording.
type Service interface {
	// Article operations
	CreateArticle(ctx context.Context, req CreateArticleRequest) (*Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	UpdateArticle(ctx context.Context, req UpdateArticleRequest) (*Article, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	ListArticles(ctx context.Context, req ListArticlesRequest) (*ArticleList, error)

	// Status workflow
	GetStatusOptions(ctx context.Context, id uuid.UUID) (*StatusOptions, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, target ArticleStatus) (*StatusTransition, error)

	// Publication
	PublishArticle(ctx context.Context, req PublishArticleRequest) (*Article, error)

	// Version ledger
	ListVersions(ctx context.Context, articleID uuid.UUID) ([]*ArticleVersion, error)

	// Publication telemetry
	ListStats(ctx context.Context, articleID uuid.UUID) ([]*ArticleStats, error)

	// Image/asset linkage
	AddImage(ctx context.Context, req AddImageRequest) (*ArticleImage, error)
	ListImages(ctx context.Context, articleID uuid.UUID) ([]*ArticleImage, error)
	DeleteImage(ctx context.Context, articleID, imageID uuid.UUID) error

	// HTML source linkage
	AttachImageHTML(ctx context.Context, articleID, imageID uuid.UUID, html string) (*ArticleImage, error)
	GetImageHTML(ctx context.Context, articleID, imageID uuid.UUID) (*ImageHTML, error)
	UpdateImageHTML(ctx context.Context, articleID, imageID uuid.UUID, html string) (*ArticleImage, error)
	RemoveImageHTML(ctx context.Context, articleID, imageID uuid.UUID) (*ArticleImage, error)

	// OpenBlob streams a blob from the default store by storage path, for
	// serving stored images and HTML sources over HTTP.
	OpenBlob(ctx context.Context, storagePath string) (io.ReadCloser, string, error)
}
