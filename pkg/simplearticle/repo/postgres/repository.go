package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-articles/pkg/simplearticle"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplearticle.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL repository. Multi-statement operations run
// without a transaction when constructed this way; prefer NewWithPool.
func New(db DBTX) simplearticle.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simplearticle.Repository {
	return &Repository{db: pool, pool: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "version") {
				return simplearticle.ErrVersionConflict
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return simplearticle.ErrArticleNotFound
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return simplearticle.ErrArticleNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// withTx runs fn inside a transaction when a pool is available, otherwise
// directly against the configured DBTX.
func (r *Repository) withTx(ctx context.Context, fn func(db DBTX) error) error {
	if r.pool == nil {
		return fn(r.db)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Article operations

func (r *Repository) CreateArticle(ctx context.Context, article *simplearticle.Article, initialVersion *simplearticle.ArticleVersion) error {
	return r.withTx(ctx, func(db DBTX) error {
		articleQuery := `
			INSERT INTO articles (
				id, title, content, status, tags, category, xhs_note_id,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		_, err := db.Exec(ctx, articleQuery,
			article.ID, article.Title, article.Content, article.Status,
			article.Tags, article.Category, article.XHSNoteID,
			article.CreatedAt, article.UpdatedAt)
		if err != nil {
			return r.handlePostgresError("create article", err)
		}

		versionQuery := `
			INSERT INTO article_versions (id, article_id, title, content, version_num, created_at)
			VALUES ($1, $2, $3, $4, 1, $5)`

		_, err = db.Exec(ctx, versionQuery,
			initialVersion.ID, article.ID, initialVersion.Title,
			initialVersion.Content, initialVersion.CreatedAt)
		if err != nil {
			return r.handlePostgresError("create initial version", err)
		}
		initialVersion.VersionNum = 1
		return nil
	})
}

func (r *Repository) GetArticle(ctx context.Context, id uuid.UUID) (*simplearticle.Article, error) {
	query := `
        SELECT id, title, content, status, tags, category, xhs_note_id,
               created_at, updated_at
        FROM articles WHERE id = $1`

	var article simplearticle.Article
	err := r.db.QueryRow(ctx, query, id).Scan(
		&article.ID, &article.Title, &article.Content, &article.Status,
		&article.Tags, &article.Category, &article.XHSNoteID,
		&article.CreatedAt, &article.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplearticle.ErrArticleNotFound
		}
		return nil, err
	}

	return &article, nil
}

func (r *Repository) UpdateArticle(ctx context.Context, article *simplearticle.Article) error {
	query := `
		UPDATE articles SET
			title = $2, content = $3, status = $4, tags = $5,
			category = $6, xhs_note_id = $7, updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		article.ID, article.Title, article.Content, article.Status,
		article.Tags, article.Category, article.XHSNoteID, article.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update article", err)
	}
	if tag.RowsAffected() == 0 {
		return simplearticle.ErrArticleNotFound
	}
	return nil
}

func (r *Repository) UpdateArticleStatus(ctx context.Context, id uuid.UUID, from, to simplearticle.ArticleStatus) error {
	// Compare-and-swap: the status predicate makes concurrent transitions
	// lose cleanly instead of clobbering each other.
	query := `UPDATE articles SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return r.handlePostgresError("update article status", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a vanished article from a lost race
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`, id).Scan(&exists); err != nil {
			return r.handlePostgresError("update article status", err)
		}
		if !exists {
			return simplearticle.ErrArticleNotFound
		}
		return simplearticle.ErrStatusConflict
	}
	return nil
}

func (r *Repository) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	return r.withTx(ctx, func(db DBTX) error {
		// Dependent rows go first; articles has no ON DELETE CASCADE for
		// stats recorded before the FK was added.
		for _, query := range []string{
			`DELETE FROM article_stats WHERE article_id = $1`,
			`DELETE FROM article_images WHERE article_id = $1`,
			`DELETE FROM article_versions WHERE article_id = $1`,
		} {
			if _, err := db.Exec(ctx, query, id); err != nil {
				return r.handlePostgresError("delete article", err)
			}
		}

		tag, err := db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
		if err != nil {
			return r.handlePostgresError("delete article", err)
		}
		if tag.RowsAffected() == 0 {
			return simplearticle.ErrArticleNotFound
		}
		return nil
	})
}

func (r *Repository) ListArticles(ctx context.Context, filter simplearticle.ListArticlesFilter) ([]*simplearticle.Article, int, error) {
	where, args := buildListFilter(filter)

	countQuery := `SELECT COUNT(*) FROM articles` + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count articles", err)
	}

	pageQuery := fmt.Sprintf(`
        SELECT id, title, content, status, tags, category, xhs_note_id,
               created_at, updated_at
        FROM articles%s
        ORDER BY updated_at DESC, id
        LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, r.handlePostgresError("list articles", err)
	}
	defer rows.Close()

	var articles []*simplearticle.Article
	for rows.Next() {
		var article simplearticle.Article
		if err := rows.Scan(
			&article.ID, &article.Title, &article.Content, &article.Status,
			&article.Tags, &article.Category, &article.XHSNoteID,
			&article.CreatedAt, &article.UpdatedAt); err != nil {
			return nil, 0, err
		}
		articles = append(articles, &article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}

func buildListFilter(filter simplearticle.ListArticlesFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", len(args), len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Version operations

func (r *Repository) AppendVersion(ctx context.Context, version *simplearticle.ArticleVersion) (*simplearticle.ArticleVersion, error) {
	// Number assignment and insert happen in one statement; the unique
	// index on (article_id, version_num) turns a race into a 23505 which
	// surfaces as ErrVersionConflict for the caller to retry.
	query := `
		INSERT INTO article_versions (id, article_id, title, content, version_num, created_at)
		SELECT $1, $2, $3, $4, COALESCE(MAX(version_num), 0) + 1, $5
		FROM article_versions WHERE article_id = $2
		RETURNING version_num`

	var assigned int
	err := r.db.QueryRow(ctx, query,
		version.ID, version.ArticleID, version.Title, version.Content, version.CreatedAt).Scan(&assigned)
	if err != nil {
		return nil, r.handlePostgresError("append version", err)
	}

	result := *version
	result.VersionNum = assigned
	return &result, nil
}

func (r *Repository) ListVersions(ctx context.Context, articleID uuid.UUID) ([]*simplearticle.ArticleVersion, error) {
	query := `
        SELECT id, article_id, title, content, version_num, created_at
        FROM article_versions WHERE article_id = $1
        ORDER BY version_num DESC`

	rows, err := r.db.Query(ctx, query, articleID)
	if err != nil {
		return nil, r.handlePostgresError("list versions", err)
	}
	defer rows.Close()

	versions := make([]*simplearticle.ArticleVersion, 0)
	for rows.Next() {
		var version simplearticle.ArticleVersion
		if err := rows.Scan(
			&version.ID, &version.ArticleID, &version.Title,
			&version.Content, &version.VersionNum, &version.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, &version)
	}
	return versions, rows.Err()
}

// Image operations

func (r *Repository) CreateImage(ctx context.Context, image *simplearticle.ArticleImage) error {
	query := `
		INSERT INTO article_images (
			id, article_id, url, storage_path, html_url, html_storage_path,
			sort_order, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		image.ID, image.ArticleID, image.URL, image.StoragePath,
		image.HTMLURL, image.HTMLStoragePath, image.SortOrder, image.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create image", err)
	}
	return nil
}

func (r *Repository) GetImage(ctx context.Context, articleID, imageID uuid.UUID) (*simplearticle.ArticleImage, error) {
	query := `
        SELECT id, article_id, url, storage_path, html_url, html_storage_path,
               sort_order, created_at
        FROM article_images WHERE id = $1 AND article_id = $2`

	var image simplearticle.ArticleImage
	err := r.db.QueryRow(ctx, query, imageID, articleID).Scan(
		&image.ID, &image.ArticleID, &image.URL, &image.StoragePath,
		&image.HTMLURL, &image.HTMLStoragePath, &image.SortOrder, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplearticle.ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

func (r *Repository) ListImages(ctx context.Context, articleID uuid.UUID) ([]*simplearticle.ArticleImage, error) {
	query := `
        SELECT id, article_id, url, storage_path, html_url, html_storage_path,
               sort_order, created_at
        FROM article_images WHERE article_id = $1
        ORDER BY sort_order, created_at`

	rows, err := r.db.Query(ctx, query, articleID)
	if err != nil {
		return nil, r.handlePostgresError("list images", err)
	}
	defer rows.Close()

	images := make([]*simplearticle.ArticleImage, 0)
	for rows.Next() {
		var image simplearticle.ArticleImage
		if err := rows.Scan(
			&image.ID, &image.ArticleID, &image.URL, &image.StoragePath,
			&image.HTMLURL, &image.HTMLStoragePath, &image.SortOrder, &image.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, &image)
	}
	return images, rows.Err()
}

func (r *Repository) UpdateImage(ctx context.Context, image *simplearticle.ArticleImage) error {
	query := `
		UPDATE article_images SET
			url = $3, storage_path = $4, html_url = $5, html_storage_path = $6,
			sort_order = $7
		WHERE id = $1 AND article_id = $2`

	tag, err := r.db.Exec(ctx, query,
		image.ID, image.ArticleID, image.URL, image.StoragePath,
		image.HTMLURL, image.HTMLStoragePath, image.SortOrder)
	if err != nil {
		return r.handlePostgresError("update image", err)
	}
	if tag.RowsAffected() == 0 {
		return simplearticle.ErrImageNotFound
	}
	return nil
}

func (r *Repository) DeleteImage(ctx context.Context, articleID, imageID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM article_images WHERE id = $1 AND article_id = $2`, imageID, articleID)
	if err != nil {
		return r.handlePostgresError("delete image", err)
	}
	if tag.RowsAffected() == 0 {
		return simplearticle.ErrImageNotFound
	}
	return nil
}

// Stats operations

func (r *Repository) CreateStats(ctx context.Context, stats *simplearticle.ArticleStats) error {
	query := `
		INSERT INTO article_stats (
			id, article_id, views, likes, favorites, comments, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		stats.ID, stats.ArticleID, stats.Views, stats.Likes,
		stats.Favorites, stats.Comments, stats.RecordedAt)
	if err != nil {
		return r.handlePostgresError("create stats", err)
	}
	return nil
}

func (r *Repository) ListStats(ctx context.Context, articleID uuid.UUID) ([]*simplearticle.ArticleStats, error) {
	query := `
        SELECT id, article_id, views, likes, favorites, comments, recorded_at
        FROM article_stats WHERE article_id = $1
        ORDER BY recorded_at DESC`

	rows, err := r.db.Query(ctx, query, articleID)
	if err != nil {
		return nil, r.handlePostgresError("list stats", err)
	}
	defer rows.Close()

	stats := make([]*simplearticle.ArticleStats, 0)
	for rows.Next() {
		var s simplearticle.ArticleStats
		if err := rows.Scan(
			&s.ID, &s.ArticleID, &s.Views, &s.Likes,
			&s.Favorites, &s.Comments, &s.RecordedAt); err != nil {
			return nil, err
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}
