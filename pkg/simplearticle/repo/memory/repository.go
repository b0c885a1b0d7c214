package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-articles/pkg/simplearticle"
)

// Repository implements simplearticle.Repository using in-memory storage
type Repository struct {
	mu       sync.RWMutex
	articles map[uuid.UUID]*simplearticle.Article
	versions map[uuid.UUID][]*simplearticle.ArticleVersion // article_id -> versions
	images   map[uuid.UUID][]*simplearticle.ArticleImage   // article_id -> images
	stats    map[uuid.UUID][]*simplearticle.ArticleStats   // article_id -> stats rows
}

// New creates a new in-memory repository
func New() simplearticle.Repository {
	return &Repository{
		articles: make(map[uuid.UUID]*simplearticle.Article),
		versions: make(map[uuid.UUID][]*simplearticle.ArticleVersion),
		images:   make(map[uuid.UUID][]*simplearticle.ArticleImage),
		stats:    make(map[uuid.UUID][]*simplearticle.ArticleStats),
	}
}

// Article operations

func (r *Repository) CreateArticle(ctx context.Context, article *simplearticle.Article, initialVersion *simplearticle.ArticleVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Copies keep callers from mutating stored state
	articleCopy := copyArticle(article)
	r.articles[article.ID] = articleCopy

	versionCopy := *initialVersion
	versionCopy.VersionNum = 1
	r.versions[article.ID] = []*simplearticle.ArticleVersion{&versionCopy}
	initialVersion.VersionNum = 1

	return nil
}

func (r *Repository) GetArticle(ctx context.Context, id uuid.UUID) (*simplearticle.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, exists := r.articles[id]
	if !exists {
		return nil, simplearticle.ErrArticleNotFound
	}
	return copyArticle(article), nil
}

func (r *Repository) UpdateArticle(ctx context.Context, article *simplearticle.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[article.ID]; !exists {
		return simplearticle.ErrArticleNotFound
	}
	r.articles[article.ID] = copyArticle(article)
	return nil
}

func (r *Repository) UpdateArticleStatus(ctx context.Context, id uuid.UUID, from, to simplearticle.ArticleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, exists := r.articles[id]
	if !exists {
		return simplearticle.ErrArticleNotFound
	}
	if article.Status != from {
		return simplearticle.ErrStatusConflict
	}
	article.Status = to
	article.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repository) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[id]; !exists {
		return simplearticle.ErrArticleNotFound
	}

	// Hard delete with cascade; dependent rows never outlive the article
	delete(r.articles, id)
	delete(r.versions, id)
	delete(r.images, id)
	delete(r.stats, id)
	return nil
}

func (r *Repository) ListArticles(ctx context.Context, filter simplearticle.ListArticlesFilter) ([]*simplearticle.Article, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*simplearticle.Article
	for _, article := range r.articles {
		if !matchesFilter(article, filter) {
			continue
		}
		matched = append(matched, copyArticle(article))
	}

	// Most recently updated first; id breaks ties so pagination is stable
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := len(matched)
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < total {
		end = offset + filter.Limit
	}

	return matched[offset:end], total, nil
}

func matchesFilter(article *simplearticle.Article, filter simplearticle.ListArticlesFilter) bool {
	if filter.Status != "" && string(article.Status) != filter.Status {
		return false
	}
	if filter.Category != "" && article.Category != filter.Category {
		return false
	}
	if filter.Tag != "" {
		found := false
		for _, tag := range article.Tags {
			if tag == filter.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(article.Title), needle) &&
			!strings.Contains(strings.ToLower(article.Content), needle) {
			return false
		}
	}
	return true
}

// Version operations

func (r *Repository) AppendVersion(ctx context.Context, version *simplearticle.ArticleVersion) (*simplearticle.ArticleVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[version.ArticleID]; !exists {
		return nil, simplearticle.ErrArticleNotFound
	}

	// The lock makes max+1 assignment atomic, so numbering never skips or
	// repeats within an article.
	max := 0
	for _, v := range r.versions[version.ArticleID] {
		if v.VersionNum > max {
			max = v.VersionNum
		}
	}

	versionCopy := *version
	versionCopy.VersionNum = max + 1
	r.versions[version.ArticleID] = append(r.versions[version.ArticleID], &versionCopy)

	result := versionCopy
	return &result, nil
}

func (r *Repository) ListVersions(ctx context.Context, articleID uuid.UUID) ([]*simplearticle.ArticleVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.versions[articleID]
	result := make([]*simplearticle.ArticleVersion, 0, len(stored))
	for _, v := range stored {
		versionCopy := *v
		result = append(result, &versionCopy)
	}

	// Newest version first
	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNum > result[j].VersionNum
	})

	return result, nil
}

// Image operations

func (r *Repository) CreateImage(ctx context.Context, image *simplearticle.ArticleImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[image.ArticleID]; !exists {
		return simplearticle.ErrArticleNotFound
	}
	imageCopy := *image
	r.images[image.ArticleID] = append(r.images[image.ArticleID], &imageCopy)
	return nil
}

func (r *Repository) GetImage(ctx context.Context, articleID, imageID uuid.UUID) (*simplearticle.ArticleImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, image := range r.images[articleID] {
		if image.ID == imageID {
			imageCopy := *image
			return &imageCopy, nil
		}
	}
	return nil, simplearticle.ErrImageNotFound
}

func (r *Repository) ListImages(ctx context.Context, articleID uuid.UUID) ([]*simplearticle.ArticleImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.images[articleID]
	result := make([]*simplearticle.ArticleImage, 0, len(stored))
	for _, image := range stored {
		imageCopy := *image
		result = append(result, &imageCopy)
	}

	// Sort order ascending; insertion order breaks ties
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SortOrder < result[j].SortOrder
	})

	return result, nil
}

func (r *Repository) UpdateImage(ctx context.Context, image *simplearticle.ArticleImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.images[image.ArticleID]
	for i, existing := range stored {
		if existing.ID == image.ID {
			imageCopy := *image
			stored[i] = &imageCopy
			return nil
		}
	}
	return simplearticle.ErrImageNotFound
}

func (r *Repository) DeleteImage(ctx context.Context, articleID, imageID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.images[articleID]
	for i, existing := range stored {
		if existing.ID == imageID {
			r.images[articleID] = append(stored[:i], stored[i+1:]...)
			return nil
		}
	}
	return simplearticle.ErrImageNotFound
}

// Stats operations

func (r *Repository) CreateStats(ctx context.Context, stats *simplearticle.ArticleStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[stats.ArticleID]; !exists {
		return simplearticle.ErrArticleNotFound
	}
	statsCopy := *stats
	r.stats[stats.ArticleID] = append(r.stats[stats.ArticleID], &statsCopy)
	return nil
}

func (r *Repository) ListStats(ctx context.Context, articleID uuid.UUID) ([]*simplearticle.ArticleStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.stats[articleID]
	result := make([]*simplearticle.ArticleStats, 0, len(stored))
	for _, s := range stored {
		statsCopy := *s
		result = append(result, &statsCopy)
	}

	// Newest recording first
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})

	return result, nil
}

func copyArticle(article *simplearticle.Article) *simplearticle.Article {
	articleCopy := *article
	if article.Tags != nil {
		articleCopy.Tags = append([]string(nil), article.Tags...)
	}
	return &articleCopy
}
