package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-articles/pkg/simplearticle"
)

// ArticleHandler handles HTTP requests for articles using pkg/simplearticle
type ArticleHandler struct {
	service simplearticle.Service
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(service simplearticle.Service) *ArticleHandler {
	return &ArticleHandler{service: service}
}

// Routes returns the routes for articles
func (h *ArticleHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateArticle)
	r.Get("/", h.ListArticles)
	r.Get("/{id}", h.GetArticle)
	r.Put("/{id}", h.UpdateArticle)
	r.Delete("/{id}", h.DeleteArticle)

	r.Get("/{id}/status", h.GetStatusOptions)
	r.Put("/{id}/status", h.TransitionStatus)
	r.Post("/{id}/publish", h.PublishArticle)
	r.Get("/{id}/versions", h.ListVersions)
	r.Get("/{id}/stats", h.ListStats)

	r.Post("/{id}/images", h.AddImage)
	r.Get("/{id}/images", h.ListImages)
	r.Delete("/{id}/images", h.DeleteImage)

	r.Post("/{id}/images/{imageID}/html", h.AttachImageHTML)
	r.Get("/{id}/images/{imageID}/html", h.GetImageHTML)
	r.Put("/{id}/images/{imageID}/html", h.UpdateImageHTML)
	r.Delete("/{id}/images/{imageID}/html", h.RemoveImageHTML)

	return r
}

// CreateArticleRequest is the request body for creating an article
type CreateArticleRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
}

// UpdateArticleRequest is the request body for updating an article. Absent
// fields are left untouched; title or content presence records a version.
type UpdateArticleRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	Category *string   `json:"category"`
}

// ArticleResponse is the response body for an article
type ArticleResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
	Category  string    `json:"category,omitempty"`
	XHSNoteID string    `json:"xhs_note_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleListResponse is the response body for a paginated article list
type ArticleListResponse struct {
	Articles []ArticleResponse `json:"articles"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// MessageResponse is the acknowledgement body for delete operations
type MessageResponse struct {
	Message string `json:"message"`
}

// PublishResponse is the response body for a publication
type PublishResponse struct {
	Article ArticleResponse `json:"article"`
	Message string          `json:"message"`
}

// VersionListResponse wraps an article's version history
type VersionListResponse struct {
	ArticleID string            `json:"article_id"`
	Versions  []VersionResponse `json:"versions"`
	Total     int               `json:"total"`
}

// StatsListResponse wraps an article's publication stats snapshots
type StatsListResponse struct {
	ArticleID string          `json:"article_id"`
	Stats     []StatsResponse `json:"stats"`
	Total     int             `json:"total"`
}

// VersionResponse is the response body for an article version
type VersionResponse struct {
	ID         string    `json:"id"`
	ArticleID  string    `json:"article_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	VersionNum int       `json:"version_num"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusOptionsResponse reports the current workflow position
type StatusOptionsResponse struct {
	CurrentStatus       string   `json:"current_status"`
	AllowedNextStatuses []string `json:"allowed_next_statuses"`
}

// TransitionRequest is the request body for a status transition
type TransitionRequest struct {
	Status string `json:"status"`
}

// TransitionResponse is the response body for a successful transition
type TransitionResponse struct {
	Article        ArticleResponse `json:"article"`
	PreviousStatus string          `json:"previous_status"`
	NewStatus      string          `json:"new_status"`
}

// PublishRequest is the request body for recording a publication
type PublishRequest struct {
	XHSNoteID string `json:"xhs_note_id"`
	Views     *int   `json:"views"`
	Likes     *int   `json:"likes"`
	Favorites *int   `json:"favorites"`
	Comments  *int   `json:"comments"`
}

// StatsResponse is the response body for a publication stats snapshot
type StatsResponse struct {
	ID         string    `json:"id"`
	ArticleID  string    `json:"article_id"`
	Views      int       `json:"views"`
	Likes      int       `json:"likes"`
	Favorites  int       `json:"favorites"`
	Comments   int       `json:"comments"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toArticleResponse(article *simplearticle.Article) ArticleResponse {
	tags := article.Tags
	if tags == nil {
		tags = []string{}
	}
	return ArticleResponse{
		ID:        article.ID.String(),
		Title:     article.Title,
		Content:   article.Content,
		Status:    string(article.Status),
		Tags:      tags,
		Category:  article.Category,
		XHSNoteID: article.XHSNoteID,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	}
}

// CreateArticle creates a new article in draft with version 1
func (h *ArticleHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	article, err := h.service.CreateArticle(r.Context(), simplearticle.CreateArticleRequest{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		slog.Error("Failed to create article", "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Article created", "article_id", article.ID.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toArticleResponse(article))
}

// GetArticle retrieves an article by ID
func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	article, err := h.service.GetArticle(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	render.JSON(w, r, toArticleResponse(article))
}

// UpdateArticle applies a partial update, recording a version when title or
// content is present in the body
func (h *ArticleHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	article, err := h.service.UpdateArticle(r.Context(), simplearticle.UpdateArticleRequest{
		ID:       id,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		slog.Error("Failed to update article", "article_id", id.String(), "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Article updated", "article_id", id.String())
	render.JSON(w, r, toArticleResponse(article))
}

// DeleteArticle deletes an article together with its versions, images,
// stats and stored blobs
func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteArticle(r.Context(), id); err != nil {
		slog.Error("Failed to delete article", "article_id", id.String(), "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Article deleted", "article_id", id.String())
	render.JSON(w, r, MessageResponse{Message: "article deleted"})
}

// ListArticles lists articles with filtering and pagination
// Query parameters: status, tag, category, search, limit, offset
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := simplearticle.ListArticlesFilter{
		Status:   q.Get("status"),
		Tag:      q.Get("tag"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid offset")
			return
		}
		filter.Offset = n
	}
	if filter.Status != "" && !simplearticle.ArticleStatus(filter.Status).IsValid() {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid status filter")
		return
	}

	list, err := h.service.ListArticles(r.Context(), simplearticle.ListArticlesRequest{Filter: filter})
	if err != nil {
		slog.Error("Failed to list articles", "error", err)
		respondServiceError(w, r, err)
		return
	}

	resp := ArticleListResponse{
		Articles: make([]ArticleResponse, 0, len(list.Articles)),
		Total:    list.Total,
		Limit:    list.Limit,
		Offset:   list.Offset,
	}
	for _, article := range list.Articles {
		resp.Articles = append(resp.Articles, toArticleResponse(article))
	}

	render.JSON(w, r, resp)
}

// GetStatusOptions reports the article's current status and the moves the
// workflow allows from it
func (h *ArticleHandler) GetStatusOptions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	options, err := h.service.GetStatusOptions(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	allowed := make([]string, 0, len(options.AllowedNextStatuses))
	for _, s := range options.AllowedNextStatuses {
		allowed = append(allowed, string(s))
	}
	render.JSON(w, r, StatusOptionsResponse{
		CurrentStatus:       string(options.CurrentStatus),
		AllowedNextStatuses: allowed,
	})
}

// TransitionStatus moves the article to a new workflow status
func (h *ArticleHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	target := simplearticle.ArticleStatus(req.Status)
	if !target.IsValid() {
		respondError(w, r, http.StatusBadRequest, "invalid_status", "unknown status: "+req.Status)
		return
	}

	transition, err := h.service.TransitionStatus(r.Context(), id, target)
	if err != nil {
		slog.Error("Failed to transition article status", "article_id", id.String(), "target", req.Status, "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Article status changed", "article_id", id.String(),
		"from", string(transition.PreviousStatus), "to", string(transition.NewStatus))
	render.JSON(w, r, TransitionResponse{
		Article:        toArticleResponse(transition.Article),
		PreviousStatus: string(transition.PreviousStatus),
		NewStatus:      string(transition.NewStatus),
	})
}

// PublishArticle records a publication: the platform note id, the published
// status, and optionally an engagement stats snapshot
func (h *ArticleHandler) PublishArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	article, err := h.service.PublishArticle(r.Context(), simplearticle.PublishArticleRequest{
		ArticleID: id,
		XHSNoteID: req.XHSNoteID,
		Views:     req.Views,
		Likes:     req.Likes,
		Favorites: req.Favorites,
		Comments:  req.Comments,
	})
	if err != nil {
		slog.Error("Failed to publish article", "article_id", id.String(), "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Article published", "article_id", id.String(), "xhs_note_id", req.XHSNoteID)
	render.JSON(w, r, PublishResponse{
		Article: toArticleResponse(article),
		Message: "article published",
	})
}

// ListVersions lists the article's version history, newest first
func (h *ArticleHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.service.ListVersions(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, VersionResponse{
			ID:         v.ID.String(),
			ArticleID:  v.ArticleID.String(),
			Title:      v.Title,
			Content:    v.Content,
			VersionNum: v.VersionNum,
			CreatedAt:  v.CreatedAt,
		})
	}
	render.JSON(w, r, VersionListResponse{
		ArticleID: id.String(),
		Versions:  resp,
		Total:     len(resp),
	})
}

// ListStats lists the article's publication stats snapshots, newest first
func (h *ArticleHandler) ListStats(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.service.ListStats(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := make([]StatsResponse, 0, len(stats))
	for _, s := range stats {
		resp = append(resp, StatsResponse{
			ID:         s.ID.String(),
			ArticleID:  s.ArticleID.String(),
			Views:      s.Views,
			Likes:      s.Likes,
			Favorites:  s.Favorites,
			Comments:   s.Comments,
			RecordedAt: s.RecordedAt,
		})
	}
	render.JSON(w, r, StatsListResponse{
		ArticleID: id.String(),
		Stats:     resp,
		Total:     len(resp),
	})
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, name)
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid id parameter", "param", name, "value", idStr, "error", err)
		respondError(w, r, http.StatusBadRequest, "invalid_id", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
