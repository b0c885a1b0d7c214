package simplearticle

import (
	"time"

	"github.com/google/uuid"
)

// ArticleStatus is the domain type for article lifecycle states.
type ArticleStatus string

// Article status constants (typed).
const (
	ArticleStatusDraft         ArticleStatus = "draft"
	ArticleStatusPendingRender ArticleStatus = "pending_render"
	ArticleStatusPendingReview ArticleStatus = "pending_review"
	ArticleStatusPublished     ArticleStatus = "published"
	ArticleStatusArchived      ArticleStatus = "archived"
)

// Article is the primary content entity moving through the editorial
// workflow. Articles start in draft and are mutated only through the
// service operations; deletion is explicit and cascades to versions,
// images and stats.
type Article struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Status    ArticleStatus `json:"status"`
	Tags      []string      `json:"tags"`
	Category  string        `json:"category,omitempty"`
	XHSNoteID string        `json:"xhs_note_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ArticleVersion is an immutable snapshot of an article's title and content.
// Version numbers are contiguous per article, starting at 1, and are
// assigned by the repository at insert time, never by the caller.
type ArticleVersion struct {
	ID         uuid.UUID `json:"id"`
	ArticleID  uuid.UUID `json:"article_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	VersionNum int       `json:"version_num"`
	CreatedAt  time.Time `json:"created_at"`
}

// ArticleImage is an ordered visual attachment of an article. The binary
// lives in a blob store under StoragePath; URL is the application-facing
// address. The HTML fields are empty unless a paired HTML source was
// explicitly uploaded; the HTML storage path is always derived from
// StoragePath by replacing the final extension with ".html".
type ArticleImage struct {
	ID              uuid.UUID `json:"id"`
	ArticleID       uuid.UUID `json:"article_id"`
	URL             string    `json:"url"`
	StoragePath     string    `json:"storage_path"`
	HTMLURL         string    `json:"html_url,omitempty"`
	HTMLStoragePath string    `json:"html_storage_path,omitempty"`
	SortOrder       int       `json:"sort_order"`
	CreatedAt       time.Time `json:"created_at"`
}

// ArticleStats is an append-only publication telemetry snapshot. A row is
// recorded when a publish call supplies at least one metric; rows are never
// updated in place.
type ArticleStats struct {
	ID         uuid.UUID `json:"id"`
	ArticleID  uuid.UUID `json:"article_id"`
	Views      int       `json:"views"`
	Likes      int       `json:"likes"`
	Favorites  int       `json:"favorites"`
	Comments   int       `json:"comments"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ListArticlesFilter defines filtering options for listing articles.
// Zero values mean "no filter" for the match fields; Limit falls back to
// the repository default when zero.
type ListArticlesFilter struct {
	Status   string // exact status match
	Tag      string // membership test against the tags list
	Category string // exact category match
	Search   string // case-insensitive substring match on title OR content
	Limit    int
	Offset   int
}

// DefaultListLimit is the page size applied when a list request does not
// specify one.
const DefaultListLimit = 50

// ObjectMeta contains metadata about an object in blob storage.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading a blob.
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
