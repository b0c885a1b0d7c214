package simplearticle

import (
	"io"

	"github.com/google/uuid"
)

// Request/Response DTOs

// CreateArticleRequest contains parameters for creating a new article.
// Title is required; everything else is optional.
type CreateArticleRequest struct {
	Title    string
	Content  string
	Tags     []string
	Category string
}

// UpdateArticleRequest contains parameters for a partial article update.
// Nil pointer fields are left untouched. A non-nil Title or Content, even
// when equal to the stored value, triggers a new version snapshot.
type UpdateArticleRequest struct {
	ID       uuid.UUID
	Title    *string
	Content  *string
	Tags     *[]string
	Category *string
}

// ListArticlesRequest contains parameters for listing articles.
type ListArticlesRequest struct {
	Filter ListArticlesFilter
}

// ArticleList is a page of articles plus the pre-pagination total.
type ArticleList struct {
	Articles []*Article
	Total    int
	Limit    int
	Offset   int
}

// StatusOptions describes the moves available from an article's current
// lifecycle state.
type StatusOptions struct {
	CurrentStatus       ArticleStatus
	AllowedNextStatuses []ArticleStatus
}

// StatusTransition is the result of a successful workflow transition.
type StatusTransition struct {
	Article        *Article
	PreviousStatus ArticleStatus
	NewStatus      ArticleStatus
}

// PublishArticleRequest contains parameters for publishing an article.
// XHSNoteID is the external platform identifier and is required. A stats
// snapshot is recorded iff at least one metric pointer is non-nil;
// unsupplied metrics default to zero.
type PublishArticleRequest struct {
	ArticleID uuid.UUID
	XHSNoteID string
	Views     *int
	Likes     *int
	Favorites *int
	Comments  *int
}

// AddImageRequest contains parameters for attaching an image to an article.
// Size is the declared payload size in bytes; zero means unknown (the edge
// is expected to cap oversized bodies).
type AddImageRequest struct {
	ArticleID uuid.UUID
	FileName  string
	MimeType  string
	Size      int64
	SortOrder int
	Reader    io.Reader
}

// ImageHTML is the HTML source attached to an image, including the stored
// addressing fields.
type ImageHTML struct {
	ImageID         uuid.UUID
	HTMLURL         string
	HTMLStoragePath string
	Content         string
}
